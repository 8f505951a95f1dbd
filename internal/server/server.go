// Package server wires the HTTP surface: task routes, stats, health
// probes and the middleware chain.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"tasktempo/internal/config"
	"tasktempo/internal/httpmw"
	"tasktempo/internal/model"
	"tasktempo/internal/task"
	"tasktempo/internal/telemetry"
)

type Options struct {
	Config  *config.Config
	Service *task.Service
	Events  telemetry.Repository
	Logger  *log.Logger
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Service == nil {
		return nil, errors.New("service is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tasktempo",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	taskHandler := task.NewHandler(opts.Service)
	if mode := model.SyncMode(opts.Config.Tasks.DefaultSyncMode); mode.Valid() {
		taskHandler.SetDefaultSyncMode(mode)
	}
	mux.HandleFunc("/api/tasks", taskHandler.Tasks)
	mux.HandleFunc("/api/tasks/update", taskHandler.Update)
	mux.HandleFunc("/api/tasks/delete", taskHandler.Delete)
	mux.HandleFunc("/api/tasks/toggle", taskHandler.Toggle)
	mux.HandleFunc("/api/tasks/pin", taskHandler.Pin)
	mux.HandleFunc("/api/tasks/stages", taskHandler.Stages)
	mux.HandleFunc("/api/tasks/comments", taskHandler.Comments)
	mux.HandleFunc("/api/tasks/comments/delete", taskHandler.DeleteComment)
	mux.HandleFunc("/api/tasks/calendar.ics", taskHandler.Calendar)

	if opts.Events != nil {
		events := opts.Events
		mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			since := time.Now().AddDate(0, 0, -30)
			if raw := r.URL.Query().Get("since"); raw != "" {
				parsed, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": "since must be RFC3339"})
					return
				}
				since = parsed
			}
			evs, err := events.GetEvents(since, nil)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats unavailable"})
				return
			}
			stats, err := telemetry.CalculateStats(evs, since)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "stats unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})
	}

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts.Config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = opts.Service.Tasks()
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tasktempo",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
