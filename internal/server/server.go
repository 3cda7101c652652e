package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/audit"
	"github.com/straja-ai/fdpadvisor/internal/auth"
	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/telemetry"
)

// Server wraps the HTTP components of the advisor API.
type Server struct {
	mux     *http.ServeMux
	handler http.Handler
	cfg     *config.Config
	auth    *auth.Auth
	eval    *advisor.Evaluator
	schemas *requestSchemas

	audit      *audit.Emitter
	auditLevel audit.Level
	telemetry  *telemetry.Provider
	log        zerolog.Logger

	inFlight chan struct{}
	http     *http.Server
}

// Deps are the optional collaborators of a Server. Nil values disable the
// matching feature.
type Deps struct {
	Audit     *audit.Emitter
	Telemetry *telemetry.Provider
	Logger    *zerolog.Logger
}

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxClientID
)

// New creates a server with all routes registered.
func New(cfg *config.Config, authz *auth.Auth, eval *advisor.Evaluator, deps Deps) (*Server, error) {
	if eval == nil {
		return nil, errors.New("server: nil evaluator")
	}
	schemas, err := compileRequestSchemas(eval.Table())
	if err != nil {
		return nil, err
	}
	level, err := audit.ParseLevel(cfg.Audit.Level)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	s := &Server{
		mux:        http.NewServeMux(),
		cfg:        cfg,
		auth:       authz,
		eval:       eval,
		schemas:    schemas,
		audit:      deps.Audit,
		auditLevel: level,
		telemetry:  deps.Telemetry,
		log:        logger,
	}
	if cfg.Server.MaxInFlight > 0 {
		s.inFlight = make(chan struct{}, cfg.Server.MaxInFlight)
	}

	if s.telemetry != nil {
		adapter := eval.Adapter()
		eval.ObserveInference(func(ctx context.Context, d time.Duration, _ error) {
			s.telemetry.RecordInference(ctx, adapter.State(), float64(d.Microseconds())/1000)
		})
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/evaluate", s.requireClient(s.handleEvaluate))
	s.mux.HandleFunc("POST /v1/evaluate/batch", s.requireClient(s.handleEvaluateBatch))
	s.mux.HandleFunc("GET /v1/taxonomy", s.requireClient(s.handleTaxonomy))
	s.mux.HandleFunc("GET /v1/model/importances", s.requireClient(s.handleImportances))

	s.handler = s.withRequestID(s.withLimits(s.mux))
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Int("taxonomy_size", s.eval.Table().Len()).Str("classifier", s.eval.Adapter().State()).Msg("fdpadvisor API listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// --- Middleware ---

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
	})
}

func (s *Server) withLimits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.inFlight != nil {
			select {
			case s.inFlight <- struct{}{}:
				defer func() { <-s.inFlight }()
			default:
				writeAPIError(w, http.StatusTooManyRequests, "Too many requests in flight", "rate_limit_error")
				return
			}
		}
		if r.Body != nil && s.cfg.Server.MaxRequestBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// requireClient enforces bearer keys when any client is configured.
func (s *Server) requireClient(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.Enabled() {
			next(w, r)
			return
		}
		key := auth.BearerToken(r)
		if key == "" {
			writeAPIError(w, http.StatusUnauthorized, "Invalid or missing API key", "authentication_error")
			return
		}
		client, ok := s.auth.Lookup(key)
		if !ok {
			writeAPIError(w, http.StatusUnauthorized, "Invalid API key", "authentication_error")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxClientID, client.ID)))
	}
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

func clientID(ctx context.Context) string {
	id, _ := ctx.Value(ctxClientID).(string)
	return id
}

// readBody reads the limited request body, writing 413 when it is too large.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, "Request body too large", "payload_too_large")
			return nil, false
		}
		writeAPIError(w, http.StatusBadRequest, "Could not read request body", "invalid_request_error")
		return nil, false
	}
	return body, true
}

type apiErrorBody struct {
	Error apiErrorDetail `json:"error"`
}

type apiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// writeAPIError writes an error JSON body.
func writeAPIError(w http.ResponseWriter, status int, message, typ string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErrorBody{
		Error: apiErrorDetail{
			Message: message,
			Type:    typ,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
