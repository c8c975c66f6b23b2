package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyCatalog is the read-only list of issuing companies
type CompanyCatalog struct {
	companies []entity.Company
	byName    map[string]entity.Company
}

// NewCompanyCatalog indexes companies by case-insensitive name
func NewCompanyCatalog(companies []entity.Company) *CompanyCatalog {
	c := &CompanyCatalog{
		companies: append([]entity.Company(nil), companies...),
		byName:    make(map[string]entity.Company, len(companies)),
	}
	for _, co := range companies {
		c.byName[strings.ToLower(strings.TrimSpace(co.Name))] = co
	}
	return c
}

// Get returns the company with name
func (c *CompanyCatalog) Get(name string) (entity.Company, bool) {
	co, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return co, ok
}

// List returns all companies in configuration order
func (c *CompanyCatalog) List() []entity.Company {
	return append([]entity.Company(nil), c.companies...)
}

// Registry keeps the open draft sessions
type Registry struct {
	companies *CompanyCatalog
	deps      SessionDeps
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry
func NewRegistry(companies *CompanyCatalog, deps SessionDeps, logger *zap.Logger) *Registry {
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Registry{
		companies: companies,
		deps:      deps,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new draft for companyName
func (r *Registry) Create(kind entity.DocumentKind, companyName string) (*Session, error) {
	if !kind.IsValid() {
		return nil, port.NewValidationError("kind", "unknown document kind")
	}
	company, ok := r.companies.Get(companyName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, companyName)
	}

	s := NewSession(uuid.NewString(), kind, company, r.deps)
	r.add(s)

	r.logger.Info("Draft session created",
		zap.String("session_id", s.ID()),
		zap.String("kind", string(kind)),
		zap.String("company", company.Name))
	return s, nil
}

// Open loads a stored bill into a new session
func (r *Registry) Open(ctx context.Context, storedID string) (*Session, error) {
	bill, err := r.deps.Gateway.Load(ctx, storedID)
	if err != nil {
		return nil, err
	}

	s := OpenSession(uuid.NewString(), bill, r.deps)
	r.add(s)

	r.logger.Info("Stored bill opened",
		zap.String("session_id", s.ID()),
		zap.String("stored_id", storedID),
		zap.String("state", s.State().String()))
	return s, nil
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session with id
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove discards a session
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// List returns all sessions, most recently edited first
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt().After(out[j].UpdatedAt())
	})
	return out
}

// Companies returns the company catalog
func (r *Registry) Companies() *CompanyCatalog {
	return r.companies
}
