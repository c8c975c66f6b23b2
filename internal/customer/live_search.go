package customer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/pkg/utils"
	"go.uber.org/zap"
)

// Live search defaults
const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultMinQueryChars = 3
	DefaultSearchTimeout = 10 * time.Second
)

// LiveSearchConfig tunes the debounced search
type LiveSearchConfig struct {
	Debounce      time.Duration
	MinQueryChars int
	SearchTimeout time.Duration
}

// SearchResult is the outcome of one applied search, tagged with the query
// and generation it answered
type SearchResult struct {
	Query      string
	Generation uint64
	Candidates []entity.Customer
}

// LiveSearch runs a debounced candidate search while the customer name is typed.
// Every Update bumps a generation token; only the response carrying the latest
// token is applied, older ones are dropped regardless of arrival order.
type LiveSearch struct {
	directory port.CustomerDirectory
	cfg       LiveSearchConfig
	logger    *zap.Logger

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	query      string
	result     SearchResult
	pending    int
	settled    chan struct{}
	stopped    bool
}

// NewLiveSearch creates a live search; zero config values take the defaults
func NewLiveSearch(directory port.CustomerDirectory, cfg LiveSearchConfig, logger *zap.Logger) *LiveSearch {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinQueryChars <= 0 {
		cfg.MinQueryChars = DefaultMinQueryChars
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	return &LiveSearch{
		directory: directory,
		cfg:       cfg,
		logger:    logger,
	}
}

// Update records a keystroke. The previous timer is cleared so only the last
// query of a burst is searched once the quiet period elapses.
func (s *LiveSearch) Update(query string) {
	query = utils.SanitizeString(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.generation++
	token := s.generation
	s.query = query
	// results of an older query are never shown next to the new one
	s.result = SearchResult{}

	if s.timer != nil && s.timer.Stop() {
		s.release()
	}
	s.timer = nil

	if len([]rune(query)) < s.cfg.MinQueryChars {
		return
	}

	s.acquire()
	s.timer = time.AfterFunc(s.cfg.Debounce, func() {
		s.run(token, query)
	})
}

func (s *LiveSearch) run(token uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SearchTimeout)
	defer cancel()

	found, err := s.directory.SearchCustomers(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.release()

	if token != s.generation {
		s.logger.Debug("Discarding stale customer search",
			zap.String("query", query),
			zap.Uint64("token", token),
			zap.Uint64("latest", s.generation))
		return
	}
	s.result = SearchResult{Query: query, Generation: token}
	if err != nil {
		s.logger.Warn("Live customer search failed", zap.String("query", query), zap.Error(err))
		return
	}
	s.result.Candidates = found
}

// Candidates returns the latest applied search. It is empty while the
// search for the latest query is still pending.
func (s *LiveSearch) Candidates() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.result
	r.Candidates = append([]entity.Customer(nil), s.result.Candidates...)
	return r
}

// Query returns the latest typed query
func (s *LiveSearch) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Generation returns the token of the latest Update
func (s *LiveSearch) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Wait blocks until no search is scheduled or running, or ctx is done
func (s *LiveSearch) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.pending == 0 {
		s.mu.Unlock()
		return nil
	}
	settled := s.settled
	s.mu.Unlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop clears any scheduled search; in-flight responses are discarded
func (s *LiveSearch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.generation++
	if s.timer != nil && s.timer.Stop() {
		s.release()
	}
	s.timer = nil
}

// acquire and release must be called with mu held
func (s *LiveSearch) acquire() {
	if s.pending == 0 {
		s.settled = make(chan struct{})
	}
	s.pending++
}

func (s *LiveSearch) release() {
	s.pending--
	if s.pending == 0 {
		close(s.settled)
	}
}

func normalizeQuery(q string) string {
	return strings.ToLower(utils.SanitizeString(q))
}

// Matches reports whether the applied result answers the latest query and
// that query is name
func (s *LiveSearch) Matches(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result.Generation == 0 || s.result.Generation != s.generation {
		return false
	}
	return normalizeQuery(s.result.Query) == normalizeQuery(name)
}
