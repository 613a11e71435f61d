// Package server is the request gateway: HTTP routing, bearer-token
// authentication, rate limiting, and the view filtering that keeps each
// agent's hole cards private. It is stateless between requests; all game
// state lives in the table actors and the store underneath them.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/agentpoker/agentpoker/internal/collusion"
	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/identity"
	"github.com/agentpoker/agentpoker/internal/store"
	"github.com/agentpoker/agentpoker/internal/table"
)

// Server wires the gateway to its collaborators.
type Server struct {
	log       zerolog.Logger
	cfg       *Config
	clock     quartz.Clock
	store     *store.Store
	identity  *identity.Service
	tables    *table.Manager
	collusion *collusion.Accumulator
	limiter   *Limiter
	metrics   *Metrics
	startedAt time.Time

	httpServer *http.Server
}

// NewServer builds the full service over an opened store: identity,
// collusion accumulator, table manager (restored from snapshots, then
// seeded from config), rate limiter, and metrics.
func NewServer(logger zerolog.Logger, clock quartz.Clock, st *store.Store, cfg *Config) (*Server, error) {
	s := &Server{
		log:       logger.With().Str("component", "server").Logger(),
		cfg:       cfg,
		clock:     clock,
		store:     st,
		identity:  identity.New(st, logger),
		collusion: collusion.New(st, logger),
		limiter:   NewLimiter(clock),
		startedAt: clock.Now(),
	}
	s.metrics = NewMetrics(func() float64 { return float64(s.tables.Count()) })

	s.tables = table.NewManager(table.Deps{
		Log:   logger,
		Clock: clock,
		Store: st,
		Sink:  s,
	}, game.Config{})
	if err := s.tables.Restore(); err != nil {
		return nil, err
	}
	for _, tc := range cfg.Tables {
		s.tables.Create(tc.Name, game.Config{
			MaxPlayers:        tc.MaxPlayers,
			DefaultSmallBlind: tc.SmallBlind,
		})
	}
	return s, nil
}

// Handler builds the route table. All agent-facing routes live under /api;
// /health and /metrics sit at the root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.limited(rateRegister, s.handleRegister))
	mux.HandleFunc("GET /api/me", s.authed(rateAuth, s.handleMe))
	mux.HandleFunc("POST /api/rebuy", s.authed(rateAuth, s.handleRebuy))

	mux.HandleFunc("POST /api/table/join", s.authed(rateAuth, s.handleJoin))
	mux.HandleFunc("POST /api/table/leave", s.authed(rateAuth, s.handleLeave))
	mux.HandleFunc("POST /api/table/sit-out", s.authed(rateAuth, s.handleSitOut))
	mux.HandleFunc("POST /api/table/sit-in", s.authed(rateAuth, s.handleSitIn))
	mux.HandleFunc("GET /api/table/state", s.authed(rateAuth, s.handleState))
	mux.HandleFunc("POST /api/table/act", s.authed(rateAuth, s.handleAct))
	mux.HandleFunc("POST /api/table/chat", s.authed(rateChat, s.handleChat))
	mux.HandleFunc("GET /api/table/history", s.authed(rateAuth, s.handleMyHistory))

	mux.HandleFunc("GET /api/tables", s.limited(ratePublic, s.handleTables))
	mux.HandleFunc("GET /api/table/{id}/spectate", s.limited(ratePublic, s.handleSpectate))
	mux.HandleFunc("GET /api/table/{id}/history", s.limited(ratePublic, s.handlePublicHistory))
	mux.HandleFunc("GET /api/leaderboard", s.limited(ratePublic, s.handleLeaderboard))
	mux.HandleFunc("GET /api/stats", s.limited(ratePublic, s.handleStats))
	mux.HandleFunc("GET /api/collusion", s.limited(ratePublic, s.handleCollusion))
	mux.HandleFunc("POST /api/table/{id}/reset", s.limited(ratePublic, s.handleReset))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.logRequests(mux)
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Route classes for rate limiting: authenticated traffic and chat are
// keyed per agent, registration and public reads per client IP.
type rateClass int

const (
	rateAuth rateClass = iota
	rateChat
	rateRegister
	ratePublic
)

func (s *Server) classLimit(c rateClass) (prefix string, perMin int) {
	switch c {
	case rateChat:
		return "chat", s.cfg.Limits.ChatPerMin
	case rateRegister:
		return "register", s.cfg.Limits.RegisterPerMin
	case ratePublic:
		return "public", s.cfg.Limits.PublicPerMin
	default:
		return "auth", s.cfg.Limits.AuthPerMin
	}
}

// checkLimit consults the limiter and writes the rate headers. A false
// return means the 429 has already been written.
func (s *Server) checkLimit(w http.ResponseWriter, c rateClass, key string) bool {
	prefix, perMin := s.classLimit(c)
	d := s.limiter.Allow(prefix+":"+key, perMin, time.Minute)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		s.metrics.RateLimited.Inc()
		retry := d.RetryAfter(s.clock.Now())
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "rate limit exceeded",
			"retryAfter": retry,
		})
		return false
	}
	return true
}

// limited wraps unauthenticated handlers with a per-IP rate limit.
func (s *Server) limited(c rateClass, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkLimit(w, c, clientIP(r)) {
			return
		}
		h(w, r)
	}
}

// authed resolves the bearer token to an agent, rejects banned and unknown
// callers, and applies the per-agent limit for the route class.
func (s *Server) authed(c rateClass, h func(http.ResponseWriter, *http.Request, *store.Agent)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, identity.ErrBadToken)
			return
		}
		agent, err := s.identity.Authenticate(token)
		if err != nil {
			writeError(w, err)
			return
		}
		if !s.checkLimit(w, c, agent.ID) {
			return
		}
		h(w, r, agent)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response code for the request log and the
// requests counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Method + " " + r.URL.Path
		if p := r.Pattern; p != "" {
			route = p
		}
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", s.clock.Now().Sub(start)).
			Msg("request")
	})
}
