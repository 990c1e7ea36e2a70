// Package session keeps short-lived WhatsApp conversation state in memory.
package session

import (
	"sync"
	"time"

	"github.com/shopscout-ai/shopscout/internal/catalog"
)

// Conversation states.
const (
	StateAwaitingQuery            = "awaiting_query"
	StateAwaitingBudget           = "awaiting_budget"
	StateAwaitingCategory         = "awaiting_category"
	StateAwaitingAIConfirmation   = "awaiting_ai_confirmation"
	StateAwaitingProductSelection = "awaiting_product_selection"
)

// Session is one user's conversation state, keyed by phone number.
type Session struct {
	Phone      string
	State      string
	Query      string
	MinPrice   float64
	MaxPrice   float64
	Category   string
	UseAI      bool
	LastResult *catalog.SearchResult

	updatedAt time.Time
}

// Store is an in-memory session store with TTL expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
}

// NewStore creates a session store. Sessions idle longer than ttl are
// dropped by a background janitor.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Get returns the session for a phone number, creating a fresh one in the
// initial state when none exists or the previous one expired.
func (s *Store) Get(phone string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[phone]
	if !ok || time.Since(sess.updatedAt) > s.ttl {
		sess = &Session{Phone: phone, State: StateAwaitingQuery}
		s.sessions[phone] = sess
	}
	sess.updatedAt = time.Now()
	return sess
}

// Put stores an updated session and refreshes its expiry.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.updatedAt = time.Now()
	s.sessions[sess.Phone] = sess
}

// Reset drops a session so the next message starts a new conversation.
func (s *Store) Reset(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor.
func (s *Store) Close() {
	close(s.stop)
}

func (s *Store) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for phone, sess := range s.sessions {
				if time.Since(sess.updatedAt) > s.ttl {
					delete(s.sessions, phone)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
