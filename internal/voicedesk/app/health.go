package app

import (
	"net/http"
	"time"

	"github.com/bdobrica/voicedesk/common/version"
)

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Commit       string    `json:"commit"`
	BuildTime    string    `json:"build_time"`
	StartedAt    time.Time `json:"started_at"`
	UptimeSecs   float64   `json:"uptime_seconds"`
	SessionCount int       `json:"session_count"`
	NLUEndpoint  string    `json:"nlu_endpoint"`
	MgmtEnabled  bool      `json:"mgmt_enabled"`
}

// handleHealth responds with a simple ok JSON payload.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

// handleStatus responds with runtime statistics.
func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if n, err := a.store.Count(r.Context()); err == nil {
		sessions = n
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:       "ok",
		Version:      version.Version,
		Commit:       version.GitCommit,
		BuildTime:    version.BuildTime,
		StartedAt:    a.startedAt,
		UptimeSecs:   time.Since(a.startedAt).Seconds(),
		SessionCount: sessions,
		NLUEndpoint:  a.cfg.NLU.BaseURL,
		MgmtEnabled:  a.cfg.Mgmt.BaseURL != "",
	})
}
