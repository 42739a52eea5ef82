package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"proposalbot/internal/config"
	"proposalbot/internal/llm"
	"proposalbot/internal/registry"
	"proposalbot/internal/store"
)

// scriptedChat replays canned replies and records what it was asked.
type scriptedChat struct {
	replies []llm.Message
	calls   [][]llm.Message
}

func (s *scriptedChat) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error) {
	s.calls = append(s.calls, messages)
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// fakeMessenger records deliveries; downloads write placeholder bytes.
type fakeMessenger struct {
	mu       sync.Mutex
	posts    []string
	uploads  []string
	channels []string
}

func (f *fakeMessenger) PostMessage(ctx context.Context, channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, text)
	f.channels = append(f.channels, channel)
	return nil
}

func (f *fakeMessenger) UploadFile(ctx context.Context, channel, path, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, path)
	return nil
}

func (f *fakeMessenger) DownloadFile(ctx context.Context, url, destPath string) error {
	return os.WriteFile(destPath, []byte("deck bytes"), 0o644)
}

func testPermissions() *config.Permissions {
	p := &config.Permissions{Groups: map[string][]config.Member{
		"admin": {{Name: "Ana", SlackUserID: "U_ADMIN", Active: true}},
	}}
	return p
}

func newTestBot(t *testing.T, chat Chatter, send Messenger) (*Bot, *store.Store, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	tplRoot := t.TempDir()
	b := New(Options{
		Chat:          chat,
		Messenger:     send,
		Registry:      registry.New(tplRoot),
		Store:         st,
		Permissions:   testPermissions(),
		WorkDir:       t.TempDir(),
		TemplatesRoot: tplRoot,
		HistoryTTL:    time.Hour,
	})
	return b, st, tplRoot
}

func TestHandleMessagePlainReply(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: "assistant", Content: "**Hello!** How can I help?"},
	}}
	send := &fakeMessenger{}
	b, _, _ := newTestBot(t, chat, send)

	b.HandleMessage(context.Background(), "U1", "C1", "hi")

	if len(send.posts) != 1 {
		t.Fatalf("posts = %v", send.posts)
	}
	if send.posts[0] != "*Hello!* How can I help?" {
		t.Errorf("post = %q", send.posts[0])
	}
	if got := b.history.Get("U1", config.Now()); len(got) != 2 {
		t.Errorf("history = %d messages, want user + assistant", len(got))
	}
}

func TestHandleMessageToolRoundTrip(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: llm.FunctionCall{Name: "list_locations", Arguments: "{}"},
		}}},
		{Role: "assistant", Content: "There are no locations yet."},
	}}
	send := &fakeMessenger{}
	b, _, _ := newTestBot(t, chat, send)

	b.HandleMessage(context.Background(), "U1", "C1", "what locations do you have?")

	if len(chat.calls) != 2 {
		t.Fatalf("chat called %d times", len(chat.calls))
	}
	second := chat.calls[1]
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Errorf("tool result not passed back: %+v", last)
	}
	if last.Content != "No locations registered." {
		t.Errorf("tool result = %q", last.Content)
	}
	if len(send.posts) != 1 || send.posts[0] != "There are no locations yet." {
		t.Errorf("posts = %v", send.posts)
	}
}

func TestAddLocationRequiresPermission(t *testing.T) {
	b, _, _ := newTestBot(t, &scriptedChat{}, &fakeMessenger{})

	tc := llm.ToolCall{Function: llm.FunctionCall{
		Name:      "add_location",
		Arguments: `{"location_name":"The Gateway"}`,
	}}
	if got := b.dispatch(context.Background(), "U_NOBODY", "C1", tc); !strings.Contains(got, "not allowed") {
		t.Errorf("dispatch = %q", got)
	}
	if _, ok := b.pending.Take("U_NOBODY", config.Now()); ok {
		t.Error("session created despite denial")
	}
}

func TestAddLocationFlow(t *testing.T) {
	send := &fakeMessenger{}
	b, _, tplRoot := newTestBot(t, &scriptedChat{}, send)
	ctx := context.Background()

	tc := llm.ToolCall{Function: llm.FunctionCall{
		Name:      "add_location",
		Arguments: `{"location_name":"The Gateway","series":"The Landmark Series","height":"14m","width":"48m","display_type":"digital","sov":"16.6","upload_fee":"3000"}`,
	}}
	if got := b.dispatch(ctx, "U_ADMIN", "C1", tc); !strings.Contains(got, "upload the template") {
		t.Fatalf("dispatch = %q", got)
	}

	b.HandleFileShared(ctx, "U_ADMIN", "C1", "gateway.pptx", "https://files.example/abc")

	if _, err := os.Stat(filepath.Join(tplRoot, "the_gateway", "the_gateway.pptx")); err != nil {
		t.Fatalf("template not stored: %v", err)
	}
	meta, err := os.ReadFile(filepath.Join(tplRoot, "the_gateway", "metadata.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(meta), "Display Name: The Gateway") || !strings.Contains(string(meta), "Series: The Landmark Series") {
		t.Errorf("sidecar = %q", meta)
	}

	loc, err := b.registry.Lookup("The Gateway")
	if err != nil {
		t.Fatal(err)
	}
	if loc.Series != "The Landmark Series" || loc.Height != "14m" {
		t.Errorf("location = %+v", loc)
	}

	if len(send.posts) == 0 || !strings.Contains(send.posts[len(send.posts)-1], "registered") {
		t.Errorf("posts = %v", send.posts)
	}

	// Re-adding the same location needs explicit confirmation.
	if got := b.dispatch(ctx, "U_ADMIN", "C1", tc); !strings.Contains(got, "already exists") {
		t.Errorf("duplicate dispatch = %q", got)
	}
	replace := llm.ToolCall{Function: llm.FunctionCall{
		Name:      "add_location",
		Arguments: `{"location_name":"The Gateway","replace":true}`,
	}}
	if got := b.dispatch(ctx, "U_ADMIN", "C1", replace); !strings.Contains(got, "upload the template") {
		t.Errorf("replace dispatch = %q", got)
	}
}

func TestHandleFileSharedRejectsNonDeck(t *testing.T) {
	send := &fakeMessenger{}
	b, _, _ := newTestBot(t, &scriptedChat{}, send)
	ctx := context.Background()

	b.pending.Start("U_ADMIN", &pendingLocation{Name: "The Gateway"}, config.Now())
	b.HandleFileShared(ctx, "U_ADMIN", "C1", "notes.pdf", "https://files.example/abc")

	if len(send.posts) != 1 || !strings.Contains(send.posts[0], "not a .pptx") {
		t.Errorf("posts = %v", send.posts)
	}
	// The session survives so the user can retry.
	if _, ok := b.pending.Take("U_ADMIN", config.Now()); !ok {
		t.Error("session lost after wrong file type")
	}
}

func TestLogSummaryAndExport(t *testing.T) {
	send := &fakeMessenger{}
	b, st, _ := newTestBot(t, &scriptedChat{}, send)
	ctx := context.Background()

	for _, pkg := range []string{"single", "combined"} {
		if err := st.LogProposal(ctx, &store.Entry{
			SubmittedBy: "U1", ClientName: "Acme", DateGenerated: config.Now(), PackageType: pkg,
			Locations: "The Gateway", TotalAmount: "AED 1,316,196",
		}); err != nil {
			t.Fatal(err)
		}
	}

	summary := b.dispatch(ctx, "U_ADMIN", "C1", llm.ToolCall{Function: llm.FunctionCall{Name: "log_summary", Arguments: "{}"}})
	if !strings.Contains(summary, "2 proposals generated") {
		t.Errorf("summary = %q", summary)
	}
	if !strings.Contains(summary, "single: 1") || !strings.Contains(summary, "combined: 1") {
		t.Errorf("summary = %q", summary)
	}

	result := b.dispatch(ctx, "U_ADMIN", "C1", llm.ToolCall{Function: llm.FunctionCall{Name: "export_log", Arguments: "{}"}})
	if !strings.Contains(result, "Exported 2 log entries") {
		t.Errorf("export result = %q", result)
	}
	if len(send.uploads) != 1 || !strings.HasSuffix(send.uploads[0], ".xlsx") {
		t.Errorf("uploads = %v", send.uploads)
	}
}

func TestLogToolsRequireAdmin(t *testing.T) {
	send := &fakeMessenger{}
	b, _, _ := newTestBot(t, &scriptedChat{}, send)
	ctx := context.Background()

	for _, name := range []string{"export_log", "log_summary"} {
		got := b.dispatch(ctx, "U_NOBODY", "C1", llm.ToolCall{Function: llm.FunctionCall{Name: name, Arguments: "{}"}})
		if !strings.Contains(got, "not allowed") {
			t.Errorf("%s dispatch = %q", name, got)
		}
	}
	if len(send.uploads) != 0 {
		t.Errorf("uploads = %v", send.uploads)
	}
}

func TestToMrkdwn(t *testing.T) {
	cases := []struct{ in, want string }{
		{"**bold** text", "*bold* text"},
		{"# Heading\nbody", "*Heading*\nbody"},
		{"- item one\n- item two", "• item one\n• item two"},
		{"see [docs](https://example.com)", "see <https://example.com|docs>"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := ToMrkdwn(tc.in); got != tc.want {
			t.Errorf("ToMrkdwn(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConversationStoreLimitAndTTL(t *testing.T) {
	c := newConversationStore(time.Minute)
	now := time.Now()

	for i := 0; i < 15; i++ {
		c.Append("U1", now, llm.Message{Role: "user", Content: "m"})
	}
	if got := len(c.Get("U1", now)); got != historyLimit {
		t.Errorf("history = %d messages, want %d", got, historyLimit)
	}

	if got := c.Get("U1", now.Add(2*time.Minute)); got != nil {
		t.Errorf("expired history returned: %v", got)
	}

	c.Append("U2", now, llm.Message{Role: "user", Content: "m"})
	if n := c.Sweep(now.Add(2 * time.Minute)); n != 1 {
		t.Errorf("sweep removed %d, want 1", n)
	}
}
