package bot

import (
	"sync"
	"time"
)

// pendingLocation holds add_location metadata while we wait for the user to
// upload the template file.
type pendingLocation struct {
	Name         string
	Series       string
	Height       string
	Width        string
	DisplayType  string
	SOV          string
	UploadFee    string
	Faces        int
	SpotDuration int
	LoopDuration int
	created      time.Time
}

// uploadSessions tracks at most one pending template upload per user.
type uploadSessions struct {
	mu     sync.Mutex
	byUser map[string]*pendingLocation
	ttl    time.Duration
}

func newUploadSessions(ttl time.Duration) *uploadSessions {
	return &uploadSessions{byUser: map[string]*pendingLocation{}, ttl: ttl}
}

func (s *uploadSessions) Start(userID string, p *pendingLocation, now time.Time) {
	p.created = now
	s.mu.Lock()
	s.byUser[userID] = p
	s.mu.Unlock()
}

// Take removes and returns the user's pending upload, if any.
func (s *uploadSessions) Take(userID string, now time.Time) (*pendingLocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	delete(s.byUser, userID)
	if s.ttl > 0 && now.Sub(p.created) > s.ttl {
		return nil, false
	}
	return p, true
}

// Sweep drops sessions older than the TTL and reports how many.
func (s *uploadSessions) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for user, p := range s.byUser {
		if now.Sub(p.created) > s.ttl {
			delete(s.byUser, user)
			n++
		}
	}
	return n
}
