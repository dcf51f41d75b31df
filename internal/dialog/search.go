package dialog

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/port"

	"go.uber.org/zap"
)

// minQueryLength is the exclusive threshold below which no search is
// dispatched: the query must be longer than this many characters.
const minQueryLength = 2

// UserSearch is the debounced directory search backing the user picker.
// Each query change supersedes any pending search; at most one timer is
// armed per instance, and stale completions are discarded.
type UserSearch struct {
	searcher port.UserSearcher
	metrics  *observability.Metrics
	logger   *zap.Logger
	debounce time.Duration
	limit    int
	timeout  time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	seq         int
	query       string
	results     []domain.DirectoryUser
	searching   bool
	searched    bool
	popoverOpen bool
}

// SearchState is a point-in-time snapshot of the search widget.
type SearchState struct {
	Query       string                 `json:"query"`
	Results     []domain.DirectoryUser `json:"results"`
	Searching   bool                   `json:"searching"`
	NoResults   bool                   `json:"no_results"`
	PopoverOpen bool                   `json:"popover_open"`
}

// NewUserSearch creates a debounced directory search. timeout bounds the
// background fetch dispatched when the debounce window elapses.
func NewUserSearch(searcher port.UserSearcher, debounce time.Duration, limit int, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *UserSearch {
	return &UserSearch{
		searcher: searcher,
		metrics:  metrics,
		logger:   logger,
		debounce: debounce,
		limit:    limit,
		timeout:  timeout,
	}
}

// SetQuery records a keystroke. Any pending or in-flight search is
// superseded, which also clears the busy flag; if the query is longer
// than minQueryLength characters a new search is armed to fire after
// the debounce window.
func (s *UserSearch) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query
	s.popoverOpen = true
	s.results = nil
	s.searching = false
	s.searched = false
	s.seq++

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if utf8.RuneCountInString(query) <= minQueryLength {
		return
	}

	seq := s.seq
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(seq, query)
	})
}

// run executes the search dispatched by the debounce timer. seq guards
// against completions of superseded searches.
func (s *UserSearch) run(seq int, query string) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.searching = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	users, err := s.searcher.SearchUsers(ctx, query, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.searching = false
	s.searched = true

	if err != nil {
		s.logger.Warn("user search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		s.metrics.IncrSearch(observability.OutcomeError)
		s.results = nil
		return
	}

	s.metrics.IncrSearch(observability.OutcomeSuccess)
	s.results = users
}

// Pick returns the result with the given id and closes the popover.
// The query text is kept so reopening shows the same search.
func (s *UserSearch) Pick(id string) (domain.DirectoryUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.results {
		if u.ID == id {
			s.popoverOpen = false
			return u, true
		}
	}
	return domain.DirectoryUser{}, false
}

// State returns a snapshot of the search widget.
func (s *UserSearch) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SearchState{
		Query:       s.query,
		Results:     s.results,
		Searching:   s.searching,
		NoResults:   s.searched && len(s.results) == 0,
		PopoverOpen: s.popoverOpen,
	}
}

// Reset cancels any pending search and clears the widget. In-flight
// completions are discarded by the sequence guard.
func (s *UserSearch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.query = ""
	s.results = nil
	s.searching = false
	s.searched = false
	s.popoverOpen = false
}
