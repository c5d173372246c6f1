package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/marquee/internal/config"
	"github.com/five82/marquee/internal/connstatus"
	"github.com/five82/marquee/internal/drafts"
	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/query"
	"github.com/five82/marquee/internal/state"
	"github.com/five82/marquee/internal/toast"
	"github.com/five82/marquee/internal/ui"
)

// Options configure the marquee console. Non-empty fields override the
// loaded configuration.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/marquee/prefs.toml
	PollEvery  int    // seconds; zero uses config
	APIURL     string
	Password   string
}

// Services bundles what both the TUI and the one-shot commands need.
type Services struct {
	Config config.Config
	Client *kometa.Client
	Query  *query.Service
}

// Setup loads configuration and builds the API client and query cache.
func Setup(opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.Password != "" {
		cfg.Password = opts.Password
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client, err := kometa.NewClient(cfg.APIURL, kometa.WithPassword(cfg.Password))
	if err != nil {
		return nil, fmt.Errorf("init kometa client: %w", err)
	}
	cache, err := query.New(query.DefaultSize, query.DefaultStaleTime)
	if err != nil {
		return nil, fmt.Errorf("init query cache: %w", err)
	}
	return &Services{
		Config: cfg,
		Client: client,
		Query:  query.NewService(client, cache),
	}, nil
}

// Run boots the marquee TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()
	logger.Log("marquee starting against %s", svc.Client.BaseURL())

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs: %v", err)
	}

	// Drafts are a convenience; the console works without them.
	draftStore, err := drafts.Open(svc.Config.DraftsDB)
	if err != nil {
		logger.Warn("drafts disabled: %v", err)
		draftStore = nil
	} else {
		defer func() { _ = draftStore.Close() }()
	}

	store := &state.Store{}
	interval := time.Duration(svc.Config.PollSeconds) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}

	StartPoller(ctx, store, svc.Client, interval)
	go followStatus(ctx, store, svc.Client, interval)

	uiOpts := ui.Options{
		Context:   ctx,
		Service:   svc.Query,
		Store:     store,
		Conn:      &connstatus.Store{},
		Drafts:    draftStore,
		Toasts:    toast.NewQueue(),
		PollTick:  interval,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}
