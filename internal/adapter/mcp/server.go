package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"qualrag/internal/domain"
)

// Version is the MCP server version.
const Version = "0.1.0"

const defaultTopK = 5

// Knowledge is the engine surface the tools dispatch to.
type Knowledge interface {
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.QueryResult, error)
	Status() domain.Status
}

// Server is the MCP server for the knowledge base.
type Server struct {
	engine      Knowledge
	server      *mcp.Server
	logger      *slog.Logger
	defaultTopK int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultTopK sets top_k for calls that omit it.
func WithDefaultTopK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

// NewServer creates an MCP server backed by engine.
func NewServer(engine Knowledge, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, ErrMissingEngine
	}

	s := &Server{
		engine:      engine,
		logger:      slog.Default(),
		defaultTopK: defaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mcp")

	impl := &mcp.Implementation{
		Name:    "qualrag",
		Version: Version,
	}
	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to a single transport and returns the session.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// RunHTTP serves MCP over streamable HTTP on addr, with GET /health alongside.
// It blocks until ctx is cancelled or the listener fails.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.logger.Info("serving MCP over HTTP", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler returns the HTTP routes: /health and the MCP endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil))
	return mux
}

// HealthOutput is the body of GET /health.
type HealthOutput struct {
	Status     string `json:"status"`
	State      string `json:"state"`
	CorpusSize int    `json:"corpus_size"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.Status()
	out := HealthOutput{
		Status:     "starting",
		State:      st.State.String(),
		CorpusSize: st.CorpusSize,
	}
	switch st.State {
	case domain.StateReady:
		out.Status = "ok"
	case domain.StateDegraded:
		out.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Warn("write health response", "error", err)
	}
}
