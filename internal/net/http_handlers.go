package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"ballpit/bridge/internal/journal"
)

// StatusSource exposes the live bridge state rendered by the diagnostics
// endpoints. The composition root wires its loop, registry, and counters
// behind this interface.
type StatusSource interface {
	SessionID() string
	Phase() string
	Ticks() uint64
	TrackedBodies() int
	StaticBodies() int
	CountersSnapshot() map[string]uint64
}

type HTTPHandlerConfig struct {
	Logger    *log.Logger
	Journal   *journal.Journal
	StartedAt time.Time
}

func NewHTTPHandler(status StatusSource, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		now := time.Now()

		var submissions any
		if cfg.Journal != nil {
			size, oldest, newest := cfg.Journal.Window()
			submissions = struct {
				Size   int              `json:"size"`
				Oldest uint64           `json:"oldest"`
				Newest uint64           `json:"newest"`
				Recent []journal.Record `json:"recent"`
			}{
				Size:   size,
				Oldest: oldest,
				Newest: newest,
				Recent: cfg.Journal.Recent(),
			}
		}

		payload := struct {
			Status        string            `json:"status"`
			ServerTime    int64             `json:"serverTime"`
			UptimeMillis  int64             `json:"uptimeMillis"`
			Session       string            `json:"session"`
			Phase         string            `json:"phase"`
			Ticks         uint64            `json:"ticks"`
			TrackedBodies int               `json:"trackedBodies"`
			StaticBodies  int               `json:"staticBodies"`
			Counters      map[string]uint64 `json:"counters"`
			Submissions   any               `json:"submissions,omitempty"`
		}{
			Status:        "ok",
			ServerTime:    now.UnixMilli(),
			UptimeMillis:  now.Sub(startedAt).Milliseconds(),
			Session:       status.SessionID(),
			Phase:         status.Phase(),
			Ticks:         status.Ticks(),
			TrackedBodies: status.TrackedBodies(),
			StaticBodies:  status.StaticBodies(),
			Counters:      status.CountersSnapshot(),
			Submissions:   submissions,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			logger.Printf("failed to encode diagnostics payload: %v", err)
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
