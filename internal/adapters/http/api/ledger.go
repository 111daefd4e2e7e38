package api

import (
	"net/http"
	"strconv"
)

// LedgerHandler serves read views over the ledger.
type LedgerHandler struct {
	deps     LedgerDependencies
	maxLimit int
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies, maxLimit int) *LedgerHandler {
	return &LedgerHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGhosts handles GET /ghosts.
func (h *LedgerHandler) HandleGhosts(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ghosts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ghosts, err := h.deps.Ghosts(r.Context())
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ghosts)
}

// HandleEventDetail handles GET /events?name=N&date=YYYY-MM-DD.
func (h *LedgerHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		writeKind(w, NewKind(op, ErrBadRequest))
		return
	}
	day, err := parseEventDate(q.Get("date"))
	if err != nil {
		writeKind(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	detail, err := h.deps.EventDetail(r.Context(), name, day.Format("2006-01-02"))
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleTopPlayers handles GET /players/top?limit=N.
func (h *LedgerHandler) HandleTopPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top_players"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeKind(w, NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	n = min(n, h.maxLimit)
	top, err := h.deps.TopPlayers(r.Context(), n)
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// HandleVerification handles GET /verification.
func (h *LedgerHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_verification"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	v, err := h.deps.Verification(r.Context())
	if err != nil {
		writeKind(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
