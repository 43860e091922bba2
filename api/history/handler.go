package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/railsched/core/dispatch/history"
)

// NewHandler exposes dispatch records via GET /api/dispatch/history.
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty. Supported filters: start, end (RFC3339), train_id and
// schedule_id.
func NewHandler(store history.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (history.Query, error) {
	var q history.Query
	v := r.URL.Query()
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("train_id"); s != "" {
		if q.TrainID, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := v.Get("schedule_id"); s != "" {
		if q.ScheduleID, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	return q, nil
}
