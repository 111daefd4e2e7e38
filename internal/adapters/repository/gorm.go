package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

type eventRecordRow struct {
	ID                  string `gorm:"primaryKey;size:36"`
	EventName           string `gorm:"not null;uniqueIndex:idx_event_player_day,priority:1"`
	PlayerName          string `gorm:"not null;uniqueIndex:idx_event_player_day,priority:2"`
	DayKey              string `gorm:"not null;size:10;uniqueIndex:idx_event_player_day,priority:3"`
	EventType           string
	EventDate           time.Time
	PlayerID            *string `gorm:"index"`
	Rank                *int
	RankInferred        bool
	Score               *int64
	OCRConfidence       float64
	ImageSource         string
	ProcessingSessionID string
	VerificationCount   int
	VerifiedSessionIDs  datatypes.JSON
	DataConfidence      float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (eventRecordRow) TableName() string { return "event_records" }

type nameMappingRow struct {
	ObservedName string `gorm:"primaryKey"`
	PlayerID     string `gorm:"not null;index"`
	Confidence   float64
	FirstSeen    time.Time
	LastSeen     time.Time
	TimesSeen    int
}

func (nameMappingRow) TableName() string { return "name_mappings" }

type attendanceRow struct {
	PlayerID        string `gorm:"primaryKey"`
	EventSessionKey string `gorm:"primaryKey"`
	EventName       string
	EventDate       time.Time
	PlayerName      string
	Score           *int64
	Status          string
	MarkedAt        time.Time
	MarkedBy        string
}

func (attendanceRow) TableName() string { return "attendance" }

type rosterRow struct {
	PlayerID string `gorm:"primaryKey"`
	Nickname string `gorm:"not null"`
}

func (rosterRow) TableName() string { return "roster_players" }

func toEventRow(r *model.EventRecord) (eventRecordRow, error) {
	sessions, err := json.Marshal(r.VerifiedSessionIDs)
	if err != nil {
		return eventRecordRow{}, err
	}
	return eventRecordRow{
		ID:                  r.ID,
		EventName:           r.EventName,
		PlayerName:          r.PlayerName,
		DayKey:              r.DayKey,
		EventType:           r.EventType,
		EventDate:           r.EventDate,
		PlayerID:            r.PlayerID,
		Rank:                r.Rank,
		RankInferred:        r.RankInferred,
		Score:               r.Score,
		OCRConfidence:       r.OCRConfidence,
		ImageSource:         r.ImageSource,
		ProcessingSessionID: r.ProcessingSessionID,
		VerificationCount:   r.VerificationCount,
		VerifiedSessionIDs:  datatypes.JSON(sessions),
		DataConfidence:      r.DataConfidence,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}

func (row eventRecordRow) toModel() (*model.EventRecord, error) {
	var sessions []string
	if len(row.VerifiedSessionIDs) > 0 {
		if err := json.Unmarshal(row.VerifiedSessionIDs, &sessions); err != nil {
			return nil, fmt.Errorf("decode sessions of %s: %w", row.ID, err)
		}
	}
	return &model.EventRecord{
		ID:                  row.ID,
		EventName:           row.EventName,
		EventType:           row.EventType,
		EventDate:           row.EventDate,
		DayKey:              row.DayKey,
		PlayerName:          row.PlayerName,
		PlayerID:            row.PlayerID,
		Rank:                row.Rank,
		RankInferred:        row.RankInferred,
		Score:               row.Score,
		OCRConfidence:       row.OCRConfidence,
		ImageSource:         row.ImageSource,
		ProcessingSessionID: row.ProcessingSessionID,
		VerificationCount:   len(sessions),
		VerifiedSessionIDs:  sessions,
		DataConfidence:      row.DataConfidence,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}, nil
}

// GormStore is a Store backed by PostgreSQL through gorm. Upserts lock the
// target row with SELECT ... FOR UPDATE inside a transaction; concurrent
// first inserts of the same key collide on the unique index and are retried
// once as updates.
type GormStore struct {
	db  *gorm.DB
	log logger.Logger
}

// OpenPostgres connects to dsn and migrates the schema unless disabled.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormStore(ctx, db, opts...)
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(o.maxIdle)
		sqlDB.SetMaxOpenConns(o.maxOpen)
		sqlDB.SetConnMaxLifetime(o.connMaxLife)
	}

	s := &GormStore{db: db, log: o.log}
	if o.autoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&eventRecordRow{}, &nameMappingRow{}, &attendanceRow{}, &rosterRow{}); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.log.Info(ctx, "ledger schema migrated")
	}
	if len(o.roster) > 0 {
		if err := s.PutRoster(ctx, o.roster); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// UpsertEventRecord implements consensus.Store.
func (s *GormStore) UpsertEventRecord(ctx context.Context, key model.EventKey, mutate func(*model.EventRecord) (*model.EventRecord, error)) (*model.EventRecord, error) {
	var out *model.EventRecord
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var row eventRecordRow
			var existing *model.EventRecord
			err := forUpdate(tx).
				Where("event_name = ? AND player_name = ? AND day_key = ?", key.EventName, key.PlayerName, key.DayKey).
				Take(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			default:
				if existing, err = row.toModel(); err != nil {
					return err
				}
			}

			next, err := mutate(existing.Clone())
			if err != nil {
				return err
			}
			if next == nil {
				return ErrNilRecord
			}
			if next.Key() != key {
				return fmt.Errorf("%w: %+v", ErrKeyMismatch, key)
			}
			if existing != nil {
				next.ID = existing.ID
			} else if next.ID == "" {
				next.ID = uuid.NewString()
			}

			nextRow, err := toEventRow(next)
			if err != nil {
				return err
			}
			if existing == nil {
				err = tx.Create(&nextRow).Error
			} else {
				err = tx.Save(&nextRow).Error
			}
			if err != nil {
				return err
			}
			out = next
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another writer created the row first; now it exists and can be locked
		err = attempt()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListEventRecords implements Store.
func (s *GormStore) ListEventRecords(ctx context.Context, f EventFilter) ([]*model.EventRecord, error) {
	q := s.db.WithContext(ctx).Model(&eventRecordRow{})
	if f.EventName != "" {
		q = q.Where("event_name = ?", f.EventName)
	}
	if f.DayKey != "" {
		q = q.Where("day_key = ?", f.DayKey)
	}
	if f.GhostsOnly {
		q = q.Where("player_id IS NULL OR player_id = '' OR player_id = ?", model.UnmatchedPlayerID)
	}

	var rows []eventRecordRow
	if err := q.Order("event_name, day_key, player_name").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*model.EventRecord, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, err
		}
		// session membership lives in a JSON column; filter in memory
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ObserveName implements naming.MappingStore.
func (s *GormStore) ObserveName(ctx context.Context, observed, playerID string, confidence float64, at time.Time) (model.NameMapping, error) {
	var out model.NameMapping
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var row nameMappingRow
			err := forUpdate(tx).Where("observed_name = ?", observed).Take(&row).Error
			found := err == nil
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			m := model.NameMapping{
				ObservedName: observed,
				PlayerID:     row.PlayerID,
				Confidence:   row.Confidence,
				FirstSeen:    row.FirstSeen,
				LastSeen:     row.LastSeen,
				TimesSeen:    row.TimesSeen,
			}
			m.Observe(playerID, confidence, at)
			next := nameMappingRow(m)
			if found {
				err = tx.Save(&next).Error
			} else {
				err = tx.Create(&next).Error
			}
			if err != nil {
				return err
			}
			out = m
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = attempt()
	}
	return out, err
}

// NameMapping implements Store.
func (s *GormStore) NameMapping(ctx context.Context, observed string) (model.NameMapping, error) {
	var row nameMappingRow
	err := s.db.WithContext(ctx).Where("observed_name = ?", observed).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NameMapping{}, ErrNotFound
	}
	if err != nil {
		return model.NameMapping{}, err
	}
	return model.NameMapping(row), nil
}

// UpsertAttendance implements attendance.Store.
func (s *GormStore) UpsertAttendance(ctx context.Context, playerID, sessionKey string, mutate func(*model.AttendanceEntry) *model.AttendanceEntry) (*model.AttendanceEntry, error) {
	var out *model.AttendanceEntry
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var row attendanceRow
			var existing *model.AttendanceEntry
			err := forUpdate(tx).Where("player_id = ? AND event_session_key = ?", playerID, sessionKey).Take(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			default:
				e := model.AttendanceEntry(row)
				existing = &e
			}

			next := mutate(existing)
			if next == nil {
				return ErrNilRecord
			}
			if next.PlayerID != playerID || next.EventSessionKey != sessionKey {
				return fmt.Errorf("%w: %s/%s", ErrKeyMismatch, playerID, sessionKey)
			}
			nextRow := attendanceRow(*next)
			if existing == nil {
				err = tx.Create(&nextRow).Error
			} else {
				err = tx.Save(&nextRow).Error
			}
			if err != nil {
				return err
			}
			out = next
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAttendance implements Store.
func (s *GormStore) ListAttendance(ctx context.Context, sessionKey string) ([]model.AttendanceEntry, error) {
	q := s.db.WithContext(ctx).Model(&attendanceRow{})
	if sessionKey != "" {
		q = q.Where("event_session_key = ?", sessionKey)
	}
	var rows []attendanceRow
	if err := q.Order("event_session_key, player_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.AttendanceEntry, len(rows))
	for i, row := range rows {
		out[i] = model.AttendanceEntry(row)
	}
	return out, nil
}

// ListRoster implements Store.
func (s *GormStore) ListRoster(ctx context.Context) ([]model.RosterEntry, error) {
	var rows []rosterRow
	if err := s.db.WithContext(ctx).Order("player_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.RosterEntry, len(rows))
	for i, row := range rows {
		out[i] = model.RosterEntry{PlayerID: row.PlayerID, Nickname: row.Nickname}
	}
	return out, nil
}

// PutRoster implements Store.
func (s *GormStore) PutRoster(ctx context.Context, entries []model.RosterEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]rosterRow, len(entries))
	for i, e := range entries {
		rows[i] = rosterRow{PlayerID: e.PlayerID, Nickname: e.Nickname}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname"}),
	}).Create(&rows).Error
}

// Counts implements Store.
func (s *GormStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	for _, q := range []struct {
		model any
		dst   *int64
	}{
		{&eventRecordRow{}, &c.EventRecords},
		{&nameMappingRow{}, &c.NameMappings},
		{&attendanceRow{}, &c.Attendance},
		{&rosterRow{}, &c.Roster},
	} {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			return Counts{}, err
		}
	}
	metrics.UpdateLedgerRows(int(c.EventRecords))
	return c, nil
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
