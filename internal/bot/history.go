package bot

import (
	"sync"
	"time"

	"proposalbot/internal/llm"
)

// historyLimit caps the retained turns per user so prompts stay bounded.
const historyLimit = 10

type userHistory struct {
	messages []llm.Message
	touched  time.Time
}

// conversationStore keeps per-user chat history with idle expiry.
type conversationStore struct {
	mu     sync.Mutex
	byUser map[string]*userHistory
	ttl    time.Duration
}

func newConversationStore(ttl time.Duration) *conversationStore {
	return &conversationStore{byUser: map[string]*userHistory{}, ttl: ttl}
}

func (c *conversationStore) Get(userID string, now time.Time) []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.byUser[userID]
	if !ok {
		return nil
	}
	if c.ttl > 0 && now.Sub(h.touched) > c.ttl {
		delete(c.byUser, userID)
		return nil
	}
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (c *conversationStore) Append(userID string, now time.Time, msgs ...llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.byUser[userID]
	if !ok {
		h = &userHistory{}
		c.byUser[userID] = h
	}
	h.messages = append(h.messages, msgs...)
	if len(h.messages) > historyLimit {
		h.messages = h.messages[len(h.messages)-historyLimit:]
	}
	h.touched = now
}

func (c *conversationStore) Clear(userID string) {
	c.mu.Lock()
	delete(c.byUser, userID)
	c.mu.Unlock()
}

// Sweep drops conversations idle past the TTL and reports how many.
func (c *conversationStore) Sweep(now time.Time) int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for user, h := range c.byUser {
		if now.Sub(h.touched) > c.ttl {
			delete(c.byUser, user)
			n++
		}
	}
	return n
}
