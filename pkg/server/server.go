package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/html"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/dom"
	"github.com/vango-dev/docsave/pkg/middleware"
	"github.com/vango-dev/docsave/pkg/publish"
	"github.com/vango-dev/docsave/pkg/pubsub"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

// Server exposes an Exporter over HTTP.
type Server struct {
	config   Config
	exporter *snapshot.Exporter
	hub      *pubsub.Hub
	store    publish.Store
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	otelOpts []middleware.OTelOption
	logger   *slog.Logger

	router     chi.Router
	upgrader   websocket.Upgrader
	streams    *streamSet
	httpServer *http.Server
	offWarn    func()
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics on m and serves gatherer on
// /metrics. The warn counter is fed from the hub.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithStore enables POST /v1/publish, which writes every artifact to store.
func WithStore(store publish.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracing passes options to the OpenTelemetry middleware.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.otelOpts = append(s.otelOpts, opts...)
	}
}

// New creates a Server. exporter must publish its events on hub, which
// also feeds /v1/events.
func New(config Config, exporter *snapshot.Exporter, hub *pubsub.Hub, opts ...Option) *Server {
	s := &Server{
		config:   config.withDefaults(),
		exporter: exporter,
		hub:      hub,
		logger:   slog.Default().With("component", "server"),
		streams:  newStreamSet(),
		offWarn:  func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.config.CheckOrigin,
	}

	if s.metrics != nil && s.hub != nil {
		m := s.metrics
		s.offWarn = s.hub.Subscribe(pubsub.TopicWarn, func(pubsub.Event) error {
			m.RecordWarning()
			return nil
		})
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(chimw.Recoverer)
	r.Use(middleware.BodyLimit(s.config.BodyLimit))
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	r.Use(middleware.OpenTelemetry(s.otelOpts...))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/html", s.handleHTML)
		r.Post("/xhtml", s.handleXHTML)
		r.Post("/diff", s.handleDiff)
		r.Post("/artifacts", s.handleArtifacts)
		r.Post("/menu", s.handleMenu)
		if s.store != nil {
			r.Post("/publish", s.handlePublish)
		}
		r.Get("/epub", s.handleEPub)
		if s.hub != nil {
			r.Get("/events", s.handleEvents)
		}
	})

	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.exporter.HTML(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMarkup(w, "text/html; charset=utf-8", out)
}

func (s *Server) handleXHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.exporter.XHTML(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMarkup(w, "application/xhtml+xml; charset=utf-8", out)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.exporter.DiffPage(r.Context(), doc, r.URL.Query().Get("url"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMarkup(w, "text/html; charset=utf-8", out)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	arts, ok := s.artifacts(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, arts)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	arts, ok := s.artifacts(w, r)
	if !ok {
		return
	}
	writeMarkup(w, "text/html; charset=utf-8", snapshot.Menu(arts))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	arts, ok := s.artifacts(w, r)
	if !ok {
		return
	}
	results, err := publish.All(r.Context(), s.store, arts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleEPub(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("url")
	if location == "" {
		s.writeError(w, r, errors.New("E004").WithSubject("url"))
		return
	}
	http.Redirect(w, r, s.exporter.EPubURL(location), http.StatusFound)
}

func (s *Server) artifacts(w http.ResponseWriter, r *http.Request) ([]snapshot.Artifact, bool) {
	doc, err := readDocument(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	arts, err := s.exporter.Artifacts(r.Context(), doc, r.URL.Query().Get("url"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return arts, true
}

// readDocument parses the request body as an HTML document.
func readDocument(r *http.Request) (*html.Node, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New("E003").Wrap(err)
		}
		return nil, errors.New("E001").Wrap(err)
	}
	doc, err := dom.ParseString(string(data))
	if err != nil {
		return nil, errors.New("E001").Wrap(err)
	}
	return doc, nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case "E001", "E002", "E004", "E051":
		return http.StatusBadRequest
	case "E003":
		return http.StatusRequestEntityTooLarge
	case "E020":
		return http.StatusUnprocessableEntity
	case "E030":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	de := errors.FromError(err, "E021")
	status := statusFor(de.Code)
	if status >= http.StatusInternalServerError {
		middleware.RecordError(r.Context(), err)
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", de.Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, de.FormatJSON())
}

func writeMarkup(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Run starts the server and blocks until it fails or receives SIGINT or
// SIGTERM, in which case it shuts down gracefully.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes the event streams and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.offWarn()
	s.streams.closeAll()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
