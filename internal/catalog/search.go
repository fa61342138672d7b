package catalog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned for a search that a newer request from the same
// client has replaced.
var ErrSuperseded = errors.New("search superseded by a newer request")

// Searcher serves search-as-you-type. Requests from one client are numbered;
// each waits out the quiescence window and only the latest issued request may
// produce a result. Results that finish after a newer request was issued are
// discarded too, so a slow stale query never overwrites a fresh one.
type Searcher struct {
	window time.Duration
	run    func(context.Context, FacetState) (Result, error)

	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

func NewSearcher(window time.Duration, run func(context.Context, FacetState) (Result, error)) *Searcher {
	return &Searcher{window: window, run: run, latest: map[string]uint64{}}
}

type ticket struct {
	client string
	seq    uint64
}

func (s *Searcher) begin(client string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.latest[client] = s.seq
	return ticket{client: client, seq: s.seq}
}

func (s *Searcher) current(t ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.client] == t.seq
}

// finish forgets the client once its latest request is done.
func (s *Searcher) finish(t ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.client] == t.seq {
		delete(s.latest, t.client)
	}
}

func (s *Searcher) Search(ctx context.Context, client string, f FacetState) (Result, error) {
	t := s.begin(client)

	if s.window > 0 {
		timer := time.NewTimer(s.window)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finish(t)
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if !s.current(t) {
		return Result{}, ErrSuperseded
	}

	res, err := s.run(ctx, f)
	if !s.current(t) {
		return Result{}, ErrSuperseded
	}
	s.finish(t)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Pending reports how many clients have a search in flight.
func (s *Searcher) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}
