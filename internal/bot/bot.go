// Package bot drives the conversational front end: it relays user messages
// to the model, executes the tool calls the model makes and delivers the
// resulting documents.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"proposalbot/internal/config"
	"proposalbot/internal/export"
	"proposalbot/internal/llm"
	"proposalbot/internal/proposal"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
)

const systemPrompt = `You are a sales assistant for an out-of-home advertising company.
You help the sales team produce client-ready financial proposal documents.
Collect the client name, locations, start dates, durations and net rates, then call the matching tool.
Amounts are in AED. When the user wants several locations priced together at one rate, use get_combined_proposal; otherwise use get_separate_proposals.
Relay tool results faithfully and keep replies short.`

// maxToolTurns bounds one message's tool round trips.
const maxToolTurns = 6

const apology = "Sorry, something went wrong while handling that. Please try again."

// Chatter is the model behind the conversation.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error)
}

// Messenger delivers text and files to the chat workspace.
type Messenger interface {
	PostMessage(ctx context.Context, channel, text string) error
	UploadFile(ctx context.Context, channel, path, title string) error
	DownloadFile(ctx context.Context, url, destPath string) error
}

// Options wires a Bot's collaborators.
type Options struct {
	Chat          Chatter
	Messenger     Messenger
	Orchestrator  *proposal.Orchestrator
	Registry      *registry.Registry
	Store         *store.Store
	Permissions   *config.Permissions
	WorkDir       string
	TemplatesRoot string
	HistoryTTL    time.Duration
}

type Bot struct {
	chat     Chatter
	send     Messenger
	orch     *proposal.Orchestrator
	registry *registry.Registry
	store    *store.Store
	perms    *config.Permissions
	workDir  string
	tplRoot  string
	history  *conversationStore
	pending  *uploadSessions
}

func New(opts Options) *Bot {
	return &Bot{
		chat:     opts.Chat,
		send:     opts.Messenger,
		orch:     opts.Orchestrator,
		registry: opts.Registry,
		store:    opts.Store,
		perms:    opts.Permissions,
		workDir:  opts.WorkDir,
		tplRoot:  opts.TemplatesRoot,
		history:  newConversationStore(opts.HistoryTTL),
		pending:  newUploadSessions(opts.HistoryTTL),
	}
}

// HandleMessage runs one conversational turn, executing tool calls until the
// model produces a plain reply. Unexpected failures become a generic apology.
func (b *Bot) HandleMessage(ctx context.Context, userID, channel, text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bot: panic handling message from %s: %v", userID, r)
			b.post(ctx, channel, apology)
		}
	}()

	now := config.Now()
	userMsg := llm.Message{Role: "user", Content: text}
	msgs := append([]llm.Message{{Role: "system", Content: systemPrompt}}, b.history.Get(userID, now)...)
	msgs = append(msgs, userMsg)

	for turn := 0; turn < maxToolTurns; turn++ {
		reply, err := b.chat.Chat(ctx, msgs, toolDefs())
		if err != nil {
			log.Printf("bot: chat failed for %s: %v", userID, err)
			b.post(ctx, channel, apology)
			return
		}
		if len(reply.ToolCalls) == 0 {
			b.history.Append(userID, now, userMsg, reply)
			b.post(ctx, channel, ToMrkdwn(reply.Content))
			return
		}
		msgs = append(msgs, reply)
		for _, tc := range reply.ToolCalls {
			result := b.dispatch(ctx, userID, channel, tc)
			msgs = append(msgs, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Content:    result,
			})
		}
	}
	log.Printf("bot: tool turn limit reached for %s", userID)
	b.post(ctx, channel, apology)
}

func (b *Bot) post(ctx context.Context, channel, text string) {
	if err := b.send.PostMessage(ctx, channel, text); err != nil {
		log.Printf("bot: post to %s failed: %v", channel, err)
	}
}

// dispatch executes one tool call and returns the result text handed back to
// the model. Validation problems are returned verbatim so the model can
// relay them; everything else degrades to a generic failure note.
func (b *Bot) dispatch(ctx context.Context, userID, channel string, tc llm.ToolCall) string {
	switch tc.Function.Name {
	case "get_separate_proposals":
		var args separateArgs
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("bad arguments: %v", err)
		}
		res, err := b.orch.Process(ctx, toRequests(args.Proposals), userID, args.ClientName)
		if err != nil {
			return b.describeFailure(err)
		}
		return b.deliver(ctx, channel, args.ClientName, res)

	case "get_combined_proposal":
		var args combinedArgs
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("bad arguments: %v", err)
		}
		res, err := b.orch.ProcessCombined(ctx, toRequests(args.Proposals), args.CombinedNetRate, userID, args.ClientName)
		if err != nil {
			return b.describeFailure(err)
		}
		return b.deliver(ctx, channel, args.ClientName, res)

	case "list_locations":
		names := b.registry.DisplayNames()
		if len(names) == 0 {
			return "No locations registered."
		}
		return "Available locations:\n" + strings.Join(names, "\n")

	case "refresh_templates":
		if err := b.registry.Refresh(); err != nil {
			log.Printf("bot: refresh failed: %v", err)
			return "Template refresh failed."
		}
		return fmt.Sprintf("Templates reloaded: %d locations available.", b.registry.Len())

	case "add_location":
		return b.startAddLocation(userID, tc.Function.Arguments)

	case "export_log":
		return b.exportLog(ctx, userID, channel)

	case "log_summary":
		return b.logSummary(ctx, userID)
	}
	return fmt.Sprintf("unknown tool %q", tc.Function.Name)
}

func toRequests(items []proposalItem) []proposal.Request {
	reqs := make([]proposal.Request, len(items))
	for i, it := range items {
		reqs[i] = proposal.Request{
			Location:      it.Location,
			StartDate:     it.StartDate,
			Durations:     it.Durations,
			NetRates:      it.NetRates,
			Spots:         it.Spots,
			ProductionFee: it.ProductionFee,
		}
	}
	return reqs
}

func (b *Bot) describeFailure(err error) string {
	var verr *proposal.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	log.Printf("bot: proposal generation failed: %v", err)
	return "The proposal could not be generated due to an internal error."
}

// deliver uploads the package files and summarizes them for the model.
func (b *Bot) deliver(ctx context.Context, channel, client string, res *proposal.Result) string {
	title := strings.TrimSpace(client + " Proposal")
	if err := b.send.UploadFile(ctx, channel, res.PDFPath, title); err != nil {
		log.Printf("bot: pdf upload failed: %v", err)
		return "The proposal was generated but could not be uploaded."
	}
	for i, deckPath := range res.DeckPaths {
		deckTitle := title
		if i < len(res.Locations) {
			deckTitle = res.Locations[i] + " Deck"
		}
		if err := b.send.UploadFile(ctx, channel, deckPath, deckTitle); err != nil {
			log.Printf("bot: deck upload failed: %v", err)
		}
	}
	return fmt.Sprintf("Delivered a %s proposal for %s. Totals: %s.",
		res.PackageType, strings.Join(res.Locations, ", "), strings.Join(res.Totals, ", "))
}

func (b *Bot) startAddLocation(userID, rawArgs string) string {
	if !b.perms.CanManageLocations(userID) {
		return "You are not allowed to manage locations."
	}
	var args addLocationArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("bad arguments: %v", err)
	}
	if strings.TrimSpace(args.LocationName) == "" {
		return "A location name is required."
	}
	key := locationKey(args.LocationName)
	if _, exists := b.registry.Get(key); exists && !args.Replace {
		return fmt.Sprintf("Location %q already exists. Ask the user to confirm replacing it, then call add_location again with replace set.", args.LocationName)
	}
	b.pending.Start(userID, &pendingLocation{
		Name:         args.LocationName,
		Series:       args.Series,
		Height:       args.Height,
		Width:        args.Width,
		DisplayType:  args.DisplayType,
		SOV:          args.SOV,
		UploadFee:    args.UploadFee,
		Faces:        args.Faces,
		SpotDuration: args.SpotDuration,
		LoopDuration: args.LoopDuration,
	}, config.Now())
	return fmt.Sprintf("Ready to register %q. Ask the user to upload the template .pptx file now.", args.LocationName)
}

// HandleFileShared completes a pending add_location: the uploaded template
// is stored under the registry root with its metadata sidecar.
func (b *Bot) HandleFileShared(ctx context.Context, userID, channel, filename, downloadURL string) {
	now := config.Now()
	p, ok := b.pending.Take(userID, now)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pptx") {
		b.pending.Start(userID, p, now)
		b.post(ctx, channel, fmt.Sprintf("%s is not a .pptx file. Please upload the template deck.", filename))
		return
	}

	key := locationKey(p.Name)
	dir := filepath.Join(b.tplRoot, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("bot: create template dir: %v", err)
		b.post(ctx, channel, apology)
		return
	}
	if err := b.send.DownloadFile(ctx, downloadURL, filepath.Join(dir, key+".pptx")); err != nil {
		log.Printf("bot: template download: %v", err)
		b.post(ctx, channel, apology)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.txt"), []byte(sidecarText(p)), 0o644); err != nil {
		log.Printf("bot: write sidecar: %v", err)
		b.post(ctx, channel, apology)
		return
	}
	if err := b.registry.Refresh(); err != nil {
		log.Printf("bot: refresh after add: %v", err)
	}
	b.post(ctx, channel, fmt.Sprintf("Location %q registered. %d locations available.", p.Name, b.registry.Len()))
}

func locationKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// sidecarText renders the metadata file the registry parses back on refresh.
func sidecarText(p *pendingLocation) string {
	var sb strings.Builder
	write := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			sb.WriteString(key + ": " + val + "\n")
		}
	}
	write("Display Name", p.Name)
	write("Series", p.Series)
	write("Height", p.Height)
	write("Width", p.Width)
	write("Display Type", p.DisplayType)
	write("SOV", p.SOV)
	write("Upload Fee", p.UploadFee)
	if p.Faces > 0 {
		write("Number Of Faces", strconv.Itoa(p.Faces))
	}
	if p.SpotDuration > 0 {
		write("Spot Duration", strconv.Itoa(p.SpotDuration))
	}
	if p.LoopDuration > 0 {
		write("Loop Duration", strconv.Itoa(p.LoopDuration))
	}
	return sb.String()
}

// exportLog and logSummary expose the proposal database, so both stay
// behind the admin group.
func (b *Bot) exportLog(ctx context.Context, userID, channel string) string {
	if !b.perms.IsAdmin(userID) {
		return "You are not allowed to export the log."
	}
	entries, err := b.store.ListEntries(ctx, 1000)
	if err != nil {
		log.Printf("bot: export query: %v", err)
		return "The log could not be read."
	}
	path := filepath.Join(b.workDir, fmt.Sprintf("proposals-log-%s.xlsx", uuid.NewString()))
	if err := export.WriteFile(entries, path); err != nil {
		log.Printf("bot: export write: %v", err)
		return "The log export failed."
	}
	if err := b.send.UploadFile(ctx, channel, path, "Proposals Log"); err != nil {
		log.Printf("bot: export upload: %v", err)
		return "The log export could not be uploaded."
	}
	return fmt.Sprintf("Exported %d log entries as a workbook.", len(entries))
}

func (b *Bot) logSummary(ctx context.Context, userID string) string {
	if !b.perms.IsAdmin(userID) {
		return "You are not allowed to view the log."
	}
	sum, err := b.store.Summarize(ctx)
	if err != nil {
		log.Printf("bot: summary query: %v", err)
		return "The log could not be read."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d proposals generated in total.\n", sum.Total)
	for _, pkg := range []string{"single", "separate", "combined"} {
		if n := sum.ByPackage[pkg]; n > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", pkg, n)
		}
	}
	if len(sum.Recent) > 0 {
		sb.WriteString("Most recent:\n")
		for _, e := range sum.Recent {
			fmt.Fprintf(&sb, "- %s for %s (%s, %s)\n",
				e.DateGenerated.Format("2006-01-02"), e.ClientName, e.PackageType, e.Locations)
		}
	}
	return sb.String()
}

// Sweep expires idle conversations and stale upload sessions.
func (b *Bot) Sweep(now time.Time) {
	if n := b.history.Sweep(now); n > 0 {
		log.Printf("bot: expired %d idle conversations", n)
	}
	if n := b.pending.Sweep(now); n > 0 {
		log.Printf("bot: expired %d stale upload sessions", n)
	}
}
