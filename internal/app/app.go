// Package app wires the SceneCoach subsystems into a running server.
//
// The App struct owns the full lifecycle: New builds the subtitle pipeline
// and the practice service from the config, Run serves HTTP until the context
// is cancelled, and Shutdown tears everything down in order. Reload applies a
// new config in place where that is possible.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/scenecoach/internal/api"
	"github.com/MrWong99/scenecoach/internal/config"
	"github.com/MrWong99/scenecoach/internal/health"
	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/practice"
	"github.com/MrWong99/scenecoach/internal/subtitle"
	"github.com/MrWong99/scenecoach/pkg/provider/stt"
	"github.com/MrWong99/scenecoach/pkg/types"
)

// ErrNoProvider is returned (wrapped in [practice.ErrTranscription]) for
// practice attempts when no STT provider is configured.
var ErrNoProvider = errors.New("app: no speech-to-text provider configured")

// App owns the subsystem lifetimes of a SceneCoach server.
type App struct {
	cfg      atomic.Pointer[config.Config]
	pipeline atomic.Pointer[subtitle.Pipeline]
	practice atomic.Pointer[practice.Service]

	stt            stt.Provider
	metrics        *observe.Metrics
	metricsHandler http.Handler
	level          *slog.LevelVar
	checkers       []health.Checker

	server *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLevelVar lets Reload change the log level of the handler behind lv.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithChecker adds a readiness check to /readyz.
func WithChecker(c health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, c) }
}

// WithCloser registers fn to run during Shutdown, after the HTTP server has
// stopped.
func WithCloser(fn func() error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg. provider transcribes practice attempts and may
// be nil, in which case only the subtitle routes are useful.
func New(cfg *config.Config, provider stt.Provider, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}
	a := &App{stt: provider}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.apply(cfg)

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// NewPipeline builds a subtitle pipeline from cfg.
func NewPipeline(cfg config.SubtitleConfig, m *observe.Metrics) *subtitle.Pipeline {
	return subtitle.New(
		subtitle.WithSceneOptions(subtitle.SceneOptions{
			MaxGap:      cfg.MaxGap,
			MinLines:    cfg.MinLines,
			MaxDuration: cfg.MaxDuration,
		}),
		subtitle.WithMergeGap(cfg.MergeGap),
		subtitle.WithPerSceneDifficulty(cfg.PerSceneDifficulty),
		subtitle.WithBatchWorkers(cfg.BatchWorkers),
		subtitle.WithMetrics(m),
	)
}

// NewPracticeService builds a practice service that transcribes through p.
func NewPracticeService(cfg *config.Config, p stt.Provider, m *observe.Metrics) *practice.Service {
	return practice.NewService(p,
		practice.WithScorer(practice.NewScorer(practice.ScoringConfig{
			PronunciationThreshold: cfg.Scoring.PronunciationThreshold,
			FluencyThreshold:       cfg.Scoring.FluencyThreshold,
			PauseThreshold:         cfg.Scoring.PauseThreshold,
			MaxSuggestions:         cfg.Scoring.MaxSuggestions,
		})),
		practice.WithLanguage(cfg.Providers.STT.Language),
		practice.WithMetrics(m),
	)
}

// apply swaps in components built from cfg.
func (a *App) apply(cfg *config.Config) {
	a.cfg.Store(cfg)
	a.pipeline.Store(NewPipeline(cfg.Subtitles, a.metrics))
	a.practice.Store(NewPracticeService(cfg, a.stt, a.metrics))
	if a.level != nil {
		a.level.Set(cfg.Server.LogLevel.SlogLevel())
	}
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Config returns the config currently in effect.
func (a *App) Config() *config.Config {
	return a.cfg.Load()
}

// Process converts subtitle content with the current pipeline.
func (a *App) Process(ctx context.Context, content string) ([]types.Scene, error) {
	return a.pipeline.Load().Process(ctx, content)
}

// ProcessBatch converts several documents with the current pipeline.
func (a *App) ProcessBatch(ctx context.Context, sources []subtitle.Source) ([]subtitle.BatchResult, error) {
	return a.pipeline.Load().ProcessBatch(ctx, sources)
}

// Practice grades one attempt with the current practice service.
func (a *App) Practice(ctx context.Context, at practice.Attempt) (*types.PracticeResult, error) {
	if a.stt == nil {
		return nil, fmt.Errorf("%w: %w", practice.ErrTranscription, ErrNoProvider)
	}
	return a.practice.Load().Practice(ctx, at)
}

// Handler returns the full HTTP surface: the API, health probes and, when
// configured, /metrics, wrapped in the observability middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	api.New(a, a).Register(mux)
	health.New(a.checkers...).Register(mux)
	if a.metricsHandler != nil {
		mux.Handle("GET /metrics", a.metricsHandler)
	}
	return observe.Middleware(a.metrics)(mux)
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// Reload applies cfg in place. Subtitle, scoring and log level changes take
// effect for the next request; provider and listen address changes are
// reported but need a restart. It is safe to use as a [config.Watcher]
// callback.
func (a *App) Reload(cfg *config.Config) config.ConfigDiff {
	old := a.cfg.Load()
	d := config.Diff(old, cfg)

	if d.RequiresRestart() {
		slog.Warn("config change requires a restart to take effect",
			"providers_changed", d.ProvidersChanged,
			"listen_addr_changed", d.ListenAddrChanged,
		)
		// Keep the running values for restart-only fields.
		next := *cfg
		next.Server.ListenAddr = old.Server.ListenAddr
		next.Providers = old.Providers
		cfg = &next
	}
	if d.HotReloadable() {
		a.apply(cfg)
		slog.Info("config applied",
			"log_level_changed", d.LogLevelChanged,
			"subtitles_changed", d.SubtitlesChanged,
			"scoring_changed", d.ScoringChanged,
		)
	}
	return d
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on the configured address and serves HTTP until ctx is
// cancelled, then returns ctx.Err(). A listener or serve failure is returned
// immediately.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is like Run but accepts connections on ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()
	slog.Info("http server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP server and then runs the registered closers. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
