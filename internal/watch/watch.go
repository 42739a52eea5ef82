// Package watch reloads the location registry when templates change on disk.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"proposalbot/internal/config"
	"proposalbot/internal/registry"
)

// debounce coalesces bursts of filesystem events into one refresh.
const debounce = 2 * time.Second

// Watcher monitors the template root and refreshes the registry when a
// template or metadata file is added, replaced or removed.
type Watcher struct {
	cfg      config.Config
	registry *registry.Registry
}

func New(cfg config.Config, reg *registry.Registry) *Watcher {
	return &Watcher{cfg: cfg, registry: reg}
}

func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.EnableWatcher {
		log.Println("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				// New location directories need their own watch.
				if evt.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						if err := watcher.Add(evt.Name); err != nil {
							log.Printf("watcher: add %s: %v", evt.Name, err)
						}
					}
				}
				if !w.isRelevant(evt.Name) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
				} else {
					timer.Reset(debounce)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				if err := w.registry.Refresh(); err != nil {
					log.Printf("watcher: refresh: %v", err)
				}
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()

	if err := watcher.Add(w.cfg.TemplatesDir); err != nil {
		return err
	}
	// Watch existing per-location subdirectories too.
	entries, err := os.ReadDir(w.cfg.TemplatesDir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := watcher.Add(filepath.Join(w.cfg.TemplatesDir, e.Name())); err != nil {
				log.Printf("watcher: add %s: %v", e.Name(), err)
			}
		}
	}
	return nil
}

func (w *Watcher) isRelevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx", ".txt":
		return true
	}
	return false
}
