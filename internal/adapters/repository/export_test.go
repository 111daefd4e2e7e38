package repository

import "context"

// Truncate empties every ledger table.
func Truncate(ctx context.Context, s *GormStore) error {
	return s.db.WithContext(ctx).Exec("TRUNCATE event_records, name_mappings, attendance, roster_players").Error
}
