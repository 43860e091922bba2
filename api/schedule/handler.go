package schedule

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/pkg/export"
)

// Provider gives read access to generated schedules.
type Provider interface {
	ByID(id int) (*schedule.Schedule, bool)
	Latest() (*schedule.Schedule, bool)
}

// NewHandler serves schedules under /api/schedules/:
//
//	GET /api/schedules/latest
//	GET /api/schedules/{id}
//
// The optional format query parameter selects json (default) or csv.
func NewHandler(p Provider) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		var (
			s  *schedule.Schedule
			ok bool
		)
		if id := r.PathValue("id"); id == "latest" {
			s, ok = p.Latest()
		} else {
			n, err := strconv.Atoi(id)
			if err != nil {
				http.Error(w, "invalid schedule id", http.StatusBadRequest)
				return
			}
			s, ok = p.ByID(n)
		}
		if !ok {
			http.Error(w, "schedule not found", http.StatusNotFound)
			return
		}
		format := strings.ToLower(r.URL.Query().Get("format"))
		switch format {
		case "", "json":
			w.Header().Set("Content-Type", "application/json")
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
		default:
			http.Error(w, "unsupported format", http.StatusBadRequest)
			return
		}
		if err := export.Write(w, format, s); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}
