// Package app wires the bot's components together and runs them.
package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"proposalbot/internal/bot"
	"proposalbot/internal/config"
	"proposalbot/internal/convert"
	"proposalbot/internal/httpapi"
	"proposalbot/internal/llm"
	"proposalbot/internal/proposal"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
	"proposalbot/internal/watch"
)

// App owns the service's long-lived components.
type App struct {
	cfg      config.Config
	store    *store.Store
	registry *registry.Registry
	conv     *convert.Service
	bot      *bot.Bot
	watcher  *watch.Watcher
	mux      *http.ServeMux
}

func New(cfg config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	perms, err := config.LoadPermissions(cfg.PermissionsFile)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.TemplatesDir)
	if err := reg.Refresh(); err != nil {
		log.Printf("app: initial template scan: %v", err)
	}

	renderer := convert.NewRenderer(cfg.SofficePath, cfg.ConvertTimeout())
	conv := convert.NewService(renderer, cfg.ConvertConcurrency)
	orch := proposal.New(reg, conv, st, cfg.WorkDir)

	b := bot.New(bot.Options{
		Chat:          llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
		Messenger:     bot.NewSlackMessenger(cfg.SlackBotToken),
		Orchestrator:  orch,
		Registry:      reg,
		Store:         st,
		Permissions:   perms,
		WorkDir:       cfg.WorkDir,
		TemplatesRoot: cfg.TemplatesDir,
		HistoryTTL:    time.Duration(cfg.HistoryTTLMin) * time.Minute,
	})

	mux := http.NewServeMux()
	router := httpapi.NewRouter(cfg, st, reg, conv, b)
	router.Register(mux)

	return &App{
		cfg:      cfg,
		store:    st,
		registry: reg,
		conv:     conv,
		bot:      b,
		watcher:  watch.New(cfg, reg),
		mux:      mux,
	}, nil
}

// Run starts the watcher, the sweeper and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}
	go a.sweep(ctx)

	srv := &http.Server{Addr: ":" + a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Printf("http listening on %s", a.cfg.HTTPPort)
	return srv.ListenAndServe()
}

// sweep periodically expires idle conversations and removes stale work
// files left behind by delivered proposals.
func (a *App) sweep(ctx context.Context) {
	interval := time.Duration(a.cfg.SweepIntervalMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := config.Now()
			a.bot.Sweep(now)
			a.cleanWorkDir(now)
		}
	}
}

func (a *App) cleanWorkDir(now time.Time) {
	ttl := time.Duration(a.cfg.TempFileTTLMin) * time.Minute
	entries, err := os.ReadDir(a.cfg.WorkDir)
	if err != nil {
		log.Printf("app: sweep workdir: %v", err)
		return
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > ttl {
			if err := os.Remove(filepath.Join(a.cfg.WorkDir, e.Name())); err != nil {
				log.Printf("app: remove %s: %v", e.Name(), err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Printf("app: swept %d stale work files", removed)
	}
}

func (a *App) Store() *store.Store          { return a.store }
func (a *App) Registry() *registry.Registry { return a.registry }
func (a *App) Mux() *http.ServeMux          { return a.mux }
