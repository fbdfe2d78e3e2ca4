package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/nerdneilsfield/imagegen-studio/internal/config"
	"github.com/nerdneilsfield/imagegen-studio/internal/i18n"
	"github.com/nerdneilsfield/imagegen-studio/internal/logger"
	"github.com/nerdneilsfield/imagegen-studio/internal/sink"
	"github.com/nerdneilsfield/imagegen-studio/internal/storage"
	"github.com/nerdneilsfield/imagegen-studio/internal/studio"
	"github.com/nerdneilsfield/imagegen-studio/pkg/imagegen"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app is the assembled dependency graph shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	tr        *i18n.Manager
	lang      string
	db        *gorm.DB
	store     *storage.Store
	client    *imagegen.Client
	builder   *studio.Builder
	orch      *studio.Orchestrator
	presenter *presenter
	saver     *sink.FileSaver
	clipboard studio.Clipboard
	out       io.Writer
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	tempLogger, _ := zap.NewProduction()
	defer tempLogger.Sync()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			tempLogger.Error("Failed to load config", zap.String("path", opts.configPath), zap.Error(err))
			return nil, err
		}
		if opts.verbose {
			tempLogger.Info("Config file not found, using defaults", zap.String("path", opts.configPath))
		}
		cfg = config.DefaultConfig()
	}

	if err := config.ValidateConfig(cfg); err != nil {
		tempLogger.Error("Config validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid config %s: %w", opts.configPath, err)
	}
	return cfg, nil
}

func newApp(opts *rootOptions, out io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := cfg.LogConfig.Level
	if opts.verbose {
		level = "debug"
		config.PrintConfig(cfg)
	}
	log, err := logger.InitLogger(level, cfg.LogConfig.Format, cfg.LogConfig.File)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	zap.ReplaceGlobals(log)

	tr, err := i18n.NewManager(cfg.Language, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init i18n: %w", err)
	}

	db, err := storage.InitDB(cfg.DBPath)
	if err != nil {
		log.Error("Failed to initialize database", zap.String("path", cfg.DBPath), zap.Error(err))
		return nil, err
	}
	store := storage.NewStore(storage.NewGormBackend(db), cfg.History.MaxEntries, log)

	client, err := imagegen.NewClient(cfg.Service.Endpoint, cfg.Service.Timeout(), log)
	if err != nil {
		_ = storage.CloseDB(db)
		return nil, err
	}

	defaults := studio.ParamsFromConfig(cfg.Defaults)
	if last, ok := store.LastSettings(); ok {
		defaults = studio.ParamsFromSettings(last)
		log.Debug("Using last-used generation settings", zap.Any("settings", last))
	}

	p := newPresenter(out, tr, cfg.Language, store.Theme())
	store.OnThemeChange(p.ApplyTheme)

	orch := studio.NewOrchestrator(client, store, tr, log, studio.Options{
		MaxCount:       cfg.Batch.MaxCount,
		PersistBatches: cfg.Batch.PersistHistory,
		Language:       cfg.Language,
	})
	orch.Subscribe(p)

	var cb studio.Clipboard = sink.WriterClipboard{W: out}
	if sink.Available() {
		cb = sink.SystemClipboard{}
	}

	log.Info("Studio ready",
		zap.String("endpoint", client.Endpoint()),
		zap.String("db", cfg.DBPath),
		zap.Int("history", store.Len()),
		zap.String("theme", string(store.Theme())),
	)

	return &app{
		cfg:       cfg,
		logger:    log,
		tr:        tr,
		lang:      cfg.Language,
		db:        db,
		store:     store,
		client:    client,
		builder:   studio.NewBuilder(defaults),
		orch:      orch,
		presenter: p,
		saver:     sink.NewFileSaver(cfg.ExportDir, log),
		clipboard: cb,
		out:       out,
	}, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := storage.CloseDB(a.db); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) t(key string, args ...interface{}) string {
	return a.tr.T(&a.lang, key, args...)
}

func (a *app) println(args ...interface{}) {
	fmt.Fprintln(a.out, args...)
}

// submit builds a request and runs it. A prompt the builder rejects still goes
// through the orchestrator so the failure is settled and shown like any other.
func (a *app) submit(ctx context.Context, prompt string, overrides studio.Overrides, count int) (studio.Snapshot, error) {
	req, err := a.builder.Build(prompt, overrides)
	if err != nil {
		if !studio.IsEmptyPrompt(err) {
			return studio.Snapshot{}, err
		}
		req = studio.GenerationRequest{Prompt: prompt, GenerationParams: a.builder.Defaults()}
	}
	return a.orch.Generate(ctx, req, count)
}

// exportAll saves every image of the current results.
func (a *app) exportAll(ctx context.Context) error {
	current := a.orch.Current()
	if len(current) == 0 {
		a.println(a.t("export_none"))
		return nil
	}
	for i := range current {
		path, err := a.orch.ExportCurrent(ctx, a.saver, i)
		if err != nil {
			return err
		}
		a.println(a.t("export_done", "path", path))
	}
	return nil
}

func runApp(opts *rootOptions, out io.Writer, fn func(a *app) error) error {
	a, err := newApp(opts, out)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
