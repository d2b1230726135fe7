// Package conversation owns the per-channel conversation history. The store
// lives for the process lifetime; channels are created lazily and never
// deleted.
package conversation

import (
	"sync"

	"junkobot/core"
)

// channelHistory guards one channel's turns. Independent channels never
// contend with each other; the store-level mutex is only held long enough to
// look up or create the entry.
type channelHistory struct {
	mu    sync.Mutex
	turns []core.ConversationTurn
}

// Store maps channel ids to their conversation history. All methods are safe
// for concurrent use; appends on the same channel are serialized.
type Store struct {
	mu       sync.RWMutex
	channels map[string]*channelHistory
}

func NewStore() *Store {
	return &Store{
		channels: make(map[string]*channelHistory),
	}
}

func (s *Store) channel(channelID string) *channelHistory {
	s.mu.RLock()
	ch, ok := s.channels[channelID]
	s.mu.RUnlock()
	if ok {
		return ch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok = s.channels[channelID]; ok {
		return ch
	}
	ch = &channelHistory{}
	s.channels[channelID] = ch
	return ch
}

// Append adds turns to the end of the channel's history and returns a copy of
// the history including them. The channel lock is released before Append
// returns, so it is never held across network I/O.
func (s *Store) Append(channelID string, turns ...core.ConversationTurn) []core.ConversationTurn {
	ch := s.channel(channelID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.turns = append(ch.turns, turns...)
	snapshot := make([]core.ConversationTurn, len(ch.turns))
	copy(snapshot, ch.turns)
	return snapshot
}

// History returns a copy of the channel's history in conversational order.
// An unknown channel yields an empty history.
func (s *Store) History(channelID string) []core.ConversationTurn {
	ch := s.channel(channelID)
	ch.mu.Lock()
	defer ch.mu.Unlock()

	snapshot := make([]core.ConversationTurn, len(ch.turns))
	copy(snapshot, ch.turns)
	return snapshot
}

// Len reports how many turns the channel has accumulated.
func (s *Store) Len(channelID string) int {
	ch := s.channel(channelID)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.turns)
}
