// Package statuspage serves a read-only JSON status page for a
// running supervisor: table sizes, uptime, and the boot-config path it
// persists to. It exists purely for operational visibility; nothing in
// the control protocol depends on it.
package statuspage

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/opslane/supervisor/internal/supervisor"
	"github.com/opslane/supervisor/version"
)

type response struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Uptime        string  `json:"uptime"`
	ConfigPath    string  `json:"config_path"`
	RunCount      int     `json:"run_count"`
	MainCount     int     `json:"main_count"`
	TermCount     int     `json:"term_count"`
}

// New builds an http.Handler exposing GET /status. startedAt is the
// time the supervisor was constructed, used to compute uptime.
func New(sup *supervisor.Supervisor, startedAt time.Time) http.Handler {
	r := chi.NewRouter()
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		stats := sup.Stats()
		since := time.Since(startedAt)
		resp := response{
			UptimeSeconds: since.Seconds(),
			Uptime:        humanize.RelTime(startedAt, time.Now(), "", ""),
			ConfigPath:    sup.ConfigPath(),
			RunCount:      stats.RunCount,
			MainCount:     stats.MainCount,
			TermCount:     stats.TermCount,
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Server", version.UserAgent())
		_ = json.NewEncoder(w).Encode(resp)
	})
	return r
}
