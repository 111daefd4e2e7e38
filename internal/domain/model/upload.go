package model

import (
	"fmt"
	"strings"
	"time"
)

// Image is one screenshot of an upload.
type Image struct {
	Name string
	Data []byte
}

// Upload is one processing session: screenshots of a single event submitted together.
type Upload struct {
	SessionID string
	EventName string
	EventType string
	EventDate time.Time
	Images    []Image
}

// Validate checks the fields required to key ledger rows.
func (u Upload) Validate() error {
	if strings.TrimSpace(u.EventName) == "" {
		return fmt.Errorf("%w: event name is required", ErrInvalidUpload)
	}
	if u.EventDate.IsZero() {
		return fmt.Errorf("%w: event date is required", ErrInvalidUpload)
	}
	if len(u.Images) == 0 {
		return ErrNoImages
	}
	return nil
}

// UploadJob is an upload waiting in the queue.
type UploadJob struct {
	ID          string
	Upload      Upload
	SubmittedAt time.Time
}
