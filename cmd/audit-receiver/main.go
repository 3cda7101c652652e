package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/straja-ai/fdpadvisor/internal/audit"
	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/logging"
)

type receiver struct {
	store *audit.SQLiteSink
	log   zerolog.Logger
}

func main() {
	addr := flag.String("addr", ":8099", "listen address for audit receiver")
	dbPath := flag.String("db", "", "optional sqlite file to store received events")
	flag.Parse()

	logger, err := logging.Init(config.LoggingConfig{Level: "info", Format: "console"})
	if err != nil {
		log.Fatal().Err(err).Msg("init logging")
	}

	rc := &receiver{log: logger}
	if *dbPath != "" {
		rc.store, err = audit.NewSQLiteSink(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite store")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/audit", rc.handleAudit)
	mux.HandleFunc("/", rc.handleAudit)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", *addr).Msg("audit receiver listening (POST JSON to /audit)")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("receiver error")
	}
}

func (rc *receiver) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()

	var ev audit.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		rc.log.Warn().Err(err).Int("len", len(body)).Msg("undecodable audit event")
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	rc.log.Info().
		Str("event_id", r.Header.Get("X-Audit-Event-ID")).
		Str("request_id", ev.RequestID).
		Str("client_id", ev.ClientID).
		Str("outcome", string(ev.Outcome)).
		Strs("rule_ids", ev.RuleIDs).
		Float64("latency_ms", ev.LatencyMs).
		Msg("received audit event")

	if rc.store != nil {
		if err := rc.store.Deliver(r.Context(), &ev); err != nil {
			rc.log.Error().Err(err).Msg("store audit event")
			http.Error(w, "store failed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, `{"status":"ok"}`)
}
