package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/api"
	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/domain/srs"
	"github.com/phrazzld/vocab-trainer/internal/events"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/gateway/memgateway"
	"github.com/phrazzld/vocab-trainer/internal/generation"
	"github.com/phrazzld/vocab-trainer/internal/metrics"
	"github.com/phrazzld/vocab-trainer/internal/platform/gemini"
	"github.com/phrazzld/vocab-trainer/internal/platform/httpgateway"
	"github.com/phrazzld/vocab-trainer/internal/platform/kvstore"
	"github.com/phrazzld/vocab-trainer/internal/progress"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"github.com/phrazzld/vocab-trainer/internal/review"
	"github.com/phrazzld/vocab-trainer/internal/scheduler"
	"github.com/phrazzld/vocab-trainer/internal/service/practice"
	"github.com/phrazzld/vocab-trainer/internal/service/progress_sync"
	"github.com/phrazzld/vocab-trainer/internal/store"
)

// application holds the shared dependencies of the serve command and
// releases them on close.
type application struct {
	config *config.Config
	logger *slog.Logger
	now    func() time.Time

	kv      store.KVStore
	metrics *metrics.Metrics

	store    *progress.Store
	remote   gateway.RemoteGateway
	// backend is the in-memory source of truth; nil in http gateway mode.
	backend     *memgateway.Backend
	backendOpts []memgateway.Option
	content  *generation.Service
	coord    *progress_sync.Coordinator
	practice *practice.Service
	jobs     *scheduler.Scheduler
}

// openKV opens the configured key-value store and applies pending
// migrations for SQL drivers.
func openKV(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger, now func() time.Time) (store.KVStore, error) {
	if cfg.Driver == config.StoreDriverMemory {
		return store.NewMemoryStore(now), nil
	}

	kv, err := kvstore.Open(ctx, cfg,
		kvstore.WithClock(now),
		kvstore.WithLogger(logger.With(slog.String("component", "kvstore"))))
	if err != nil {
		return nil, err
	}
	report, err := kv.Migrate(ctx)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	logger.Info("store ready",
		slog.String("driver", cfg.Driver),
		slog.Int64("version", report.Version),
		slog.Int("applied", len(report.Applied)))
	return kv, nil
}

// srsService builds the scheduler with the configured interval cap. A cap of
// zero removes it.
func srsService(cfg config.SRSConfig) srs.Service {
	return srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MaxIntervalDays:    cfg.MaxIntervalDays,
		DisableIntervalCap: cfg.MaxIntervalDays == 0,
	}))
}

// appOption adjusts an application before its components are wired.
type appOption func(*application)

// withBackendOptions passes extra options to the in-memory backend.
func withBackendOptions(opts ...memgateway.Option) appOption {
	return func(app *application) {
		app.backendOpts = append(app.backendOpts, opts...)
	}
}

// newApplication wires every component. kv may be nil, in which case the
// configured store is opened. It does not load the user state.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	kv store.KVStore,
	opts ...appOption,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(app)
	}

	var err error
	if kv == nil {
		kv, err = openKV(ctx, cfg.Store, logger, app.now)
		if err != nil {
			return nil, err
		}
	}
	app.kv = kv

	catalogue, err := generation.LoadCatalogue()
	if err != nil {
		_ = app.kv.Close()
		return nil, fmt.Errorf("failed to load content catalogue: %w", err)
	}

	contentOpts := []generation.Option{
		generation.WithCache(app.kv),
		generation.WithRecorder(app.metrics),
		generation.WithLogger(logger),
	}
	if cfg.LLM.GeminiAPIKey != "" {
		gen, err := gemini.NewGenerator(ctx, logger.With(slog.String("component", "llm_generator")), cfg.LLM)
		if err != nil {
			_ = app.kv.Close()
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		contentOpts = append(contentOpts, generation.WithSource(gen))
		logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))
	} else {
		logger.Warn("no Gemini API key configured, serving built-in content only")
	}
	app.content = generation.NewService(catalogue, contentOpts...)

	scheduling := srsService(cfg.SRS)
	state, err := app.stateGateway(ctx, catalogue, scheduling)
	if err != nil {
		_ = app.kv.Close()
		return nil, err
	}
	app.remote = gateway.Compose(state, app.content)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(app.metrics)
	emitter.RegisterHandler(events.EventHandlerFunc(app.persistSettled))

	app.store = progress.NewStore()
	app.coord = progress_sync.NewCoordinator(app.store, app.remote,
		progress_sync.WithEmitter(emitter),
		progress_sync.WithLogger(logger),
		progress_sync.WithRemoteTimeout(cfg.Sync.RemoteTimeout),
		progress_sync.WithSRS(scheduling),
		progress_sync.WithNewWordsBatch(cfg.Session.NewWordsBatch))

	app.practice = practice.NewService(app.store, app.coord, app.remote, review.NewSelector(nil),
		practice.WithSessionLength(cfg.Session.QuizLength),
		practice.WithLogger(logger))

	if err := app.registerGauges(); err != nil {
		_ = app.kv.Close()
		return nil, err
	}

	app.jobs = scheduler.New(scheduler.WithObserver(app.metrics), scheduler.WithLogger(logger))
	if err := app.registerJobs(); err != nil {
		_ = app.kv.Close()
		return nil, err
	}

	return app, nil
}

// stateGateway returns the configured source of truth. The in-memory backend
// starts from the last saved snapshot, or from the built-in words.
func (app *application) stateGateway(
	ctx context.Context,
	catalogue *generation.Catalogue,
	scheduling srs.Service,
) (gateway.StateGateway, error) {
	if app.config.Gateway.Mode == config.GatewayModeHTTP {
		client, err := httpgateway.New(app.config.Gateway,
			httpgateway.WithLogger(app.logger.With(slog.String("component", "http_gateway"))))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize remote gateway: %w", err)
		}
		return client, nil
	}

	initial := catalogue.InitialState()
	snap, err := store.LoadSnapshot(ctx, app.kv)
	switch {
	case err == nil:
		initial = snap.State
		app.logger.Info("restored user state from snapshot",
			slog.Time("saved_at", snap.SavedAt),
			slog.Int("words", len(snap.State.Words)))
	case errors.Is(err, store.ErrSnapshotNotFound):
	case errors.Is(err, store.ErrCorrupt):
		app.logger.Warn("ignoring corrupt snapshot", redact.ErrAttr(err))
	default:
		app.logger.Warn("failed to read snapshot, starting from the catalogue", redact.ErrAttr(err))
	}

	opts := append([]memgateway.Option{
		memgateway.WithSRS(scheduling),
		memgateway.WithWordSource(app.content),
	}, app.backendOpts...)
	app.backend = memgateway.New(initial, opts...)
	return app.backend, nil
}

// persistSettled saves the state after a mutation committed or rolled back.
// The settling mutation is still counted as pending while handlers run.
func (app *application) persistSettled(ctx context.Context, _ *events.MutationEvent) error {
	return app.save(ctx, 1)
}

// persist saves the state when no mutation is in flight.
func (app *application) persist(ctx context.Context) error {
	return app.save(ctx, 0)
}

// save writes a snapshot that holds no speculative values. The in-memory
// backend is authoritative and always safe to save. The local store is saved
// only while at most settling mutations are pending.
func (app *application) save(ctx context.Context, settling int) error {
	if app.backend != nil {
		return store.SaveSnapshot(ctx, app.kv, app.backend.Snapshot(), app.now())
	}
	if !app.store.Ready() {
		return nil
	}
	if n := app.coord.Pending(); n > settling {
		app.logger.DebugContext(ctx, "snapshot skipped, mutations in flight", slog.Int("pending", n-settling))
		return nil
	}
	return store.SaveSnapshot(ctx, app.kv, app.store.State(), app.now())
}

func (app *application) registerGauges() error {
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"pending_mutations", "Mutations awaiting the remote service.", func() float64 {
			return float64(app.coord.Pending())
		}},
		{"words_due", "Learned words due for review.", func() float64 {
			return float64(len(app.store.WordsToReview()))
		}},
		{"words_learned", "Words rated at least once.", func() float64 {
			return float64(app.store.Progress().WordsLearned)
		}},
	}
	for _, g := range gauges {
		if err := app.metrics.RegisterGauge(g.name, g.help, g.fn); err != nil {
			return fmt.Errorf("failed to register gauge %s: %w", g.name, err)
		}
	}
	return nil
}

func (app *application) registerJobs() error {
	cfg := app.config.Scheduler
	jobs := []scheduler.Job{
		scheduler.RefreshJob(app.coord, cfg.RefreshInterval, app.persist),
		scheduler.DigestJob(app.store, app.kv, cfg.DigestInterval, app.now, app.logger),
		scheduler.PurgeJob(app.kv, cfg.PurgeInterval, app.logger),
	}
	for _, job := range jobs {
		if err := app.jobs.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// initialize loads the user state. A failure is logged and left to the
// refresh job to retry; the API answers 503 meanwhile.
func (app *application) initialize(ctx context.Context) {
	if err := app.coord.Initialize(ctx); err != nil {
		app.logger.Error("user state not loaded, will retry on refresh", redact.ErrAttr(err))
		return
	}
	if err := app.persist(ctx); err != nil {
		app.logger.Warn("failed to persist initial state", redact.ErrAttr(err))
	}
}

// router builds the local API.
func (app *application) router() http.Handler {
	return api.NewRouter(api.Deps{
		Reader:   app.store,
		Syncer:   app.coord,
		Practice: app.practice,
		Content:  app.content,
		Metrics:  app.metrics.Handler(),
		Logger:   app.logger,
	})
}

// close stops background jobs and releases the store.
func (app *application) close() error {
	app.jobs.Stop()
	return app.kv.Close()
}
