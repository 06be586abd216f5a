package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"securereport/core/store"
)

const (
	auditPageSize    = 100
	auditMaxPageSize = 300
)

type LogsHandler struct {
	audits store.AuditStore
}

func NewLogsHandler(audits store.AuditStore) *LogsHandler {
	return &LogsHandler{audits: audits}
}

type logFilter struct {
	Since   time.Time
	To      *time.Time
	Section string
	Action  string
	User    string
	Query   string
	Limit   int
}

func parseLogFilter(r *http.Request) (logFilter, bool) {
	q := r.URL.Query()
	f := logFilter{
		Section: strings.ToLower(strings.TrimSpace(q.Get("section"))),
		Action:  strings.ToLower(strings.TrimSpace(q.Get("action"))),
		User:    strings.ToLower(strings.TrimSpace(q.Get("user"))),
		Query:   strings.ToLower(strings.TrimSpace(q.Get("q"))),
		Limit:   auditPageSize,
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, false
		}
		f.Limit = n
		if f.Limit > auditMaxPageSize {
			f.Limit = auditMaxPageSize
		}
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, false
		}
		f.Since = ts.UTC()
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, false
		}
		to := ts.UTC()
		f.To = &to
	}
	return f, true
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseLogFilter(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "invalid filter")
		return
	}
	items, err := h.filteredLogs(r, filter)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *LogsHandler) filteredLogs(r *http.Request, filter logFilter) ([]store.AuditRecord, error) {
	raw, err := h.audits.ListFiltered(r.Context(), filter.Since, filter.Limit*3)
	if err != nil {
		return nil, err
	}
	out := make([]store.AuditRecord, 0, min(filter.Limit, len(raw)))
	for i := range raw {
		item := raw[i]
		if filter.To != nil && item.CreatedAt.After(*filter.To) {
			continue
		}
		action := strings.ToLower(strings.TrimSpace(item.Action))
		user := strings.ToLower(strings.TrimSpace(item.Username))
		details := strings.ToLower(strings.TrimSpace(item.Details))
		if filter.Section != "" && logCategory(action) != filter.Section {
			continue
		}
		if filter.Action != "" && !strings.Contains(action, filter.Action) {
			continue
		}
		if filter.User != "" && !strings.Contains(user, filter.User) {
			continue
		}
		if filter.Query != "" && !strings.Contains(action, filter.Query) && !strings.Contains(details, filter.Query) {
			continue
		}
		out = append(out, item)
		if len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func logCategory(action string) string {
	switch {
	case strings.HasPrefix(action, "auth."), strings.HasPrefix(action, "session."):
		return "auth"
	case strings.HasPrefix(action, "accounts."):
		return "accounts"
	case strings.HasPrefix(action, "reports."):
		return "reports"
	default:
		return "other"
	}
}
