// Package httpapi exposes the Slack events endpoint and the /ops surface.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"runtime"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"proposalbot/internal/config"
	"proposalbot/internal/convert"
	"proposalbot/internal/export"
	"proposalbot/internal/metrics"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
)

// Conversations is the bot surface the event endpoint dispatches into.
type Conversations interface {
	HandleMessage(ctx context.Context, userID, channel, text string)
	HandleFileShared(ctx context.Context, userID, channel, filename, downloadURL string)
}

// Router builds HTTP handlers for /slack and /ops.
type Router struct {
	cfg      config.Config
	store    *store.Store
	registry *registry.Registry
	conv     *convert.Service
	bot      Conversations
}

func NewRouter(cfg config.Config, st *store.Store, reg *registry.Registry, conv *convert.Service, bot Conversations) *Router {
	return &Router{cfg: cfg, store: st, registry: reg, conv: conv, bot: bot}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/slack/events", r.slackEvents)
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/metrics", r.metrics)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/locations", r.locations)
	mux.HandleFunc("/ops/refresh", r.refresh)
	mux.HandleFunc("/ops/export", r.export)
	mux.HandleFunc("/ops/summary", r.summary)
}

// slackEvents acknowledges within Slack's deadline and hands the event to
// the bot on a background context.
func (r *Router) slackEvents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.cfg.SlackSigningSecret != "" {
		verifier, err := slack.NewSecretsVerifier(req.Header, r.cfg.SlackSigningSecret)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := verifier.Write(body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := verifier.Ensure(); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, challenge.Challenge)
		return
	case slackevents.CallbackEvent:
		r.dispatchEvent(event.InnerEvent)
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *Router) dispatchEvent(inner slackevents.EventsAPIInnerEvent) {
	switch ev := inner.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.BotID != "" {
			return
		}
		if ev.SubType == "file_share" {
			for _, f := range ev.Files {
				file := f
				go r.bot.HandleFileShared(context.Background(), ev.User, ev.Channel, file.Name, file.URLPrivateDownload)
			}
			return
		}
		if ev.SubType != "" || ev.Text == "" {
			return
		}
		go r.bot.HandleMessage(context.Background(), ev.User, ev.Channel, ev.Text)
	case *slackevents.AppMentionEvent:
		go r.bot.HandleMessage(context.Background(), ev.User, ev.Channel, ev.Text)
	}
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) metrics(w http.ResponseWriter, req *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	payload := map[string]any{
		"counters":   metrics.Snapshot(),
		"goroutines": runtime.NumGoroutine(),
		"heap_bytes": mem.HeapAlloc,
		"locations":  r.registry.Len(),
	}
	respondJSON(w, payload)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	entries, _ := r.store.ListEntries(req.Context(), 5)
	respondJSON(w, map[string]any{
		"locations": r.registry.Len(),
		"renderer":  r.conv.RendererName(),
		"fallback":  r.conv.UsingFallback(),
		"recent":    entries,
	})
}

func (r *Router) locations(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, map[string]any{"locations": r.registry.DisplayNames()})
}

func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.registry.Refresh(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"locations": r.registry.Len()})
}

func (r *Router) export(w http.ResponseWriter, req *http.Request) {
	entries, err := r.store.ListEntries(req.Context(), 10000)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="proposals-log.xlsx"`)
	if err := export.Write(entries, w); err != nil {
		log.Printf("httpapi: export: %v", err)
	}
}

func (r *Router) summary(w http.ResponseWriter, req *http.Request) {
	sum, err := r.store.Summarize(req.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, sum)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
