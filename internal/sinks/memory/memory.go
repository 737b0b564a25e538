// Package memory keeps the most recently published metrics for each sensor.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/purpleaqi/internal/types"
)

// State is the last published view of one sensor. Snapshot holds the
// metrics of the last accepted reading and survives faults.
type State struct {
	Sensor      string          `json:"sensor"`
	Fault       bool            `json:"fault"`
	LastPollID  string          `json:"last_poll_id"`
	LastOutcome string          `json:"last_outcome"`
	LastPoll    time.Time       `json:"last_poll"`
	Snapshot    *types.Snapshot `json:"snapshot,omitempty"`
}

// Store holds the latest state of every sensor that has published
type Store struct {
	mu     sync.RWMutex
	states map[string]State
}

// New creates an empty store
func New() *Store {
	return &Store{states: make(map[string]State)}
}

// StartSink creates a goroutine loop to receive updates and apply them
func (s *Store) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	updates := make(chan types.Update, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case u := <-updates:
				s.Apply(u)
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}

// Apply records an update. An update without a snapshot only changes the
// fault flag and poll bookkeeping.
func (s *Store) Apply(u types.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.states[u.SensorName]
	st.Sensor = u.SensorName
	st.Fault = u.Fault
	st.LastPollID = u.PollID
	st.LastOutcome = u.Outcome
	st.LastPoll = u.Timestamp

	if u.Snapshot != nil {
		snap := *u.Snapshot
		st.Snapshot = &snap
	}
	if st.Snapshot != nil {
		st.Snapshot.Fault = u.Fault
	}

	s.states[u.SensorName] = st
}

// Latest returns the state of the named sensor
func (s *Store) Latest(sensor string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[sensor]
	if ok && st.Snapshot != nil {
		snap := *st.Snapshot
		st.Snapshot = &snap
	}
	return st, ok
}

// All returns the state of every sensor, sorted by name
func (s *Store) All() []State {
	s.mu.RLock()
	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)

	all := make([]State, 0, len(names))
	for _, name := range names {
		if st, ok := s.Latest(name); ok {
			all = append(all, st)
		}
	}
	return all
}
