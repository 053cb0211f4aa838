package deckstate

import (
	"context"
	"sync"
	"sync/atomic"
)

// commandQueueSize bounds how many commands may wait for the writer goroutine.
const commandQueueSize = 256

// command is one unit of work for the writer goroutine.
type command struct {
	apply  func(*State) bool
	result chan bool
}

// Stats counts commands processed by a Store.
type Stats struct {
	Applied uint64 `json:"applied"`
	Dropped uint64 `json:"dropped"`
}

// Store owns the state tree and is its only writer.
//
// Both update channels are delivered as commands to one goroutine (Run), so
// they are applied strictly in arrival order. After each applied command the
// store publishes a fresh Snapshot to the Snapshot accessor and to every
// subscriber.
//
// Thread Safety: All exported methods are safe for concurrent use.
type Store struct {
	state    *State
	commands chan command
	latest   atomic.Pointer[Snapshot]

	running  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once

	subs  map[*subscriber]struct{}
	subMu sync.RWMutex

	applied atomic.Uint64
	dropped atomic.Uint64
}

type subscriber struct {
	ch chan *Snapshot
}

// NewStore creates a store holding an empty state tree.
// Call Run to start processing commands.
func NewStore() *Store {
	s := &Store{
		state:    NewState(),
		commands: make(chan command, commandQueueSize),
		stopped:  make(chan struct{}),
		subs:     make(map[*subscriber]struct{}),
	}
	s.latest.Store(s.state.Snapshot())
	return s
}

// Run processes commands until ctx is cancelled. It blocks.
//
// Returns:
//   - error: ErrAlreadyRunning if Run is called twice, otherwise ctx.Err()
func (s *Store) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.stopOnce.Do(func() { close(s.stopped) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.commands:
			s.handle(cmd)
		}
	}
}

// handle applies one command and publishes the result.
func (s *Store) handle(cmd command) {
	applied := cmd.apply(s.state)
	if applied {
		s.applied.Add(1)
		s.publish(s.state.Snapshot())
	} else {
		s.dropped.Add(1)
	}
	cmd.result <- applied
}

// submit enqueues fn and waits until the writer goroutine has applied it.
func (s *Store) submit(ctx context.Context, fn func(*State) bool) (bool, error) {
	cmd := command{apply: fn, result: make(chan bool, 1)}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, ErrStoreStopped
	}

	select {
	case applied := <-cmd.result:
		return applied, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.stopped:
		return false, ErrStoreStopped
	}
}

// ApplyStateChange routes a raw path/value update through the dispatcher.
//
// Returns:
//   - bool: true if the update was recognised and applied
//   - error: only if ctx is done or the store has stopped
func (s *Store) ApplyStateChange(ctx context.Context, path string, value any) (bool, error) {
	return s.submit(ctx, func(st *State) bool {
		return st.ApplyStateChange(path, value)
	})
}

// ApplyPlayerStatus merges a player status into its deck.
func (s *Store) ApplyPlayerStatus(ctx context.Context, status PlayerStatus) (bool, error) {
	return s.submit(ctx, func(st *State) bool {
		return st.ApplyPlayerStatus(status)
	})
}

// ApplyConnection records a connection lifecycle transition.
func (s *Store) ApplyConnection(ctx context.Context, change ConnectionChange) (bool, error) {
	return s.submit(ctx, func(st *State) bool {
		return st.ApplyConnection(change)
	})
}

// Reset atomically replaces the state tree with empty defaults.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.submit(ctx, func(st *State) bool {
		st.Reset()
		return true
	})
	return err
}

// Snapshot returns a private copy of the most recently published snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.latest.Load().Clone()
}

// Stats returns command counters.
func (s *Store) Stats() Stats {
	return Stats{
		Applied: s.applied.Load(),
		Dropped: s.dropped.Load(),
	}
}

// Subscribe registers for snapshots published after each applied command.
//
// A slow subscriber never blocks the writer: when its buffer is full the
// oldest pending snapshot is discarded, so the newest state always arrives.
//
// Parameters:
//   - buffer: channel capacity (minimum 1)
//
// Returns:
//   - <-chan *Snapshot: receives snapshots owned by this subscriber alone
//   - func(): cancels the subscription and closes the channel
func (s *Store) Subscribe(buffer int) (<-chan *Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan *Snapshot, buffer)}

	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, sub)
			close(sub.ch)
			s.subMu.Unlock()
		})
	}
	return sub.ch, cancel
}

// SubscriberCount returns the number of active subscriptions.
func (s *Store) SubscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// publish stores snap as the latest snapshot and fans it out.
func (s *Store) publish(snap *Snapshot) {
	s.latest.Store(snap)

	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for sub := range s.subs {
		snap := snap.Clone()
		select {
		case sub.ch <- snap:
			continue
		default:
		}
		// Buffer full: drop the oldest pending snapshot, then retry once.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}
