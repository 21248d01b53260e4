package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/cells"
	"github.com/diogo/cellchat/internal/models"
)

// subscriberBuffer is how many snapshots a subscriber may lag behind
// before updates to it are dropped
const subscriberBuffer = 8

// Store guards a State for concurrent use and notifies subscribers of
// every change
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
}

// NewStore returns a store holding a fresh conversation
func NewStore() *Store {
	return &Store{
		state: NewState(),
		subs:  make(map[int]chan State),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Submit is State.Submit under the store lock
func (s *Store) Submit(input string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.state.Submit(input)
	if err != nil {
		return req, err
	}
	s.publishLocked()
	return req, nil
}

// Resolve is State.Resolve under the store lock
func (s *Store) Resolve(generation uint64, completion *models.Completion, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rerr := s.state.Resolve(generation, completion, err); rerr != nil {
		return rerr
	}
	if err == nil {
		LogDiagnostics(s.state.Layout)
	}
	s.publishLocked()
	return nil
}

// Send submits input, runs the request and resolves it. It blocks until
// the reply is applied and returns only Submit errors; request failures
// end up in the conversation.
func (s *Store) Send(ctx context.Context, client api.Completer, input string) error {
	req, err := s.Submit(input)
	if err != nil {
		return err
	}

	completion, err := Exchange(ctx, client, req)
	return s.Resolve(req.Generation, completion, err)
}

// Subscribe returns a channel that receives a snapshot after every change
// and a function that ends the subscription
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan State, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publishLocked must be called with s.mu held. Sends never block. A full
// subscriber loses its oldest buffered snapshot so the newest always lands.
func (s *Store) publishLocked() {
	snap := s.state.Clone()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}

		select {
		case <-ch:
			log.Debug().Int("subscriber", id).Msg("subscriber is behind, dropping oldest update")
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Exchange runs req against client. A failure is logged here; the caller
// only has to pass the result to Resolve.
func Exchange(ctx context.Context, client api.Completer, req Request) (*models.Completion, error) {
	log.Info().
		Uint64("generation", req.Generation).
		Int("history", len(req.History)).
		Msg("requesting cells")

	completion, err := client.Complete(ctx, req.History, req.Message)
	if err != nil {
		log.Error().Err(err).Uint64("generation", req.Generation).Msg("completion failed")
		return nil, err
	}
	return completion, nil
}

// LogDiagnostics reports every problem the interpreter found
func LogDiagnostics(layout cells.Layout) {
	for _, d := range layout.Diagnostics {
		log.Warn().Int("cell", d.Index).Msg(d.Message)
	}
	log.Debug().Int("entries", layout.Entries).Int("boxes", len(layout.Boxes)).Msg("layout interpreted")
}
