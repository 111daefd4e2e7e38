package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// UploadsHandler accepts screenshot uploads and reports job status.
type UploadsHandler struct {
	deps     UploadDependencies
	maxBytes int64
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(deps UploadDependencies, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{deps: deps, maxBytes: maxBytes}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	JobID     string `json:"job_id,omitempty"`
	SessionID string `json:"session_id"`
}

// HandlePostUpload handles POST /uploads (multipart form: files,
// event_name, event_type, event_date, session_id).
func (h *UploadsHandler) HandlePostUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	up, err := uploadFromForm(r.MultipartForm)
	if err != nil {
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	st, dup, err := h.deps.Submit(r.Context(), up)
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, JobID: st.JobID, SessionID: st.SessionID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: st.JobID, SessionID: st.SessionID})
}

// HandleGetUpload handles GET /uploads/{job_id}.
func (h *UploadsHandler) HandleGetUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_upload"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/uploads/")
	if id == "" || strings.Contains(id, "/") {
		writeKind(w, NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func uploadFromForm(form *multipart.Form) (model.Upload, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	up := model.Upload{
		SessionID: value("session_id"),
		EventName: value("event_name"),
		EventType: value("event_type"),
	}
	if up.EventName == "" {
		return up, errors.New("missing event_name")
	}
	date, err := parseEventDate(value("event_date"))
	if err != nil {
		return up, err
	}
	up.EventDate = date

	for _, fh := range form.File["files"] {
		data, err := readPart(fh)
		if err != nil {
			return up, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		up.Images = append(up.Images, model.Image{Name: fh.Filename, Data: data})
	}
	if len(up.Images) == 0 {
		return up, errors.New("missing files")
	}
	return up, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// parseEventDate accepts RFC3339 or a bare YYYY-MM-DD (UTC midnight).
func parseEventDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing event_date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid event_date; must be RFC3339 or YYYY-MM-DD")
}
