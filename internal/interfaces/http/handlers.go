package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/billing"
	"github.com/garyjia/billing-workflow/internal/customer"
	"github.com/garyjia/billing-workflow/internal/document"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/email"
	"github.com/garyjia/billing-workflow/internal/tax"
)

// DocumentService composes bills and writes them to the document sinks
type DocumentService interface {
	Compose(ctx context.Context, bill *entity.Bill) (*document.Document, error)
	Preview(doc *document.Document) ([]byte, error)
	Download(doc *document.Document) (string, error)
	SaveWorkbook(bill *entity.Bill) (string, error)
}

// Mailer emails a composed document
type Mailer interface {
	Send(ctx context.Context, doc *document.Document, bill *entity.Bill, msg email.Message) error
}

// NotificationService reads the local notification history
type NotificationService interface {
	List(ctx context.Context) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// TokenSetter receives the backend auth token
type TokenSetter interface {
	SetToken(token string)
}

// Dependencies are the services the API is served from
type Dependencies struct {
	Registry      *billing.Registry
	Documents     DocumentService
	Mailer        Mailer
	Notifications NotificationService
	Preferences   port.PreferenceRepository
	Directory     port.CustomerDirectory
	Search        customer.LiveSearchConfig
	Token         TokenSetter
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger *zap.Logger

	mu       sync.Mutex
	searches map[string]*customer.LiveSearch
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger *zap.Logger) *Handlers {
	return &Handlers{
		deps:     deps,
		logger:   logger,
		searches: make(map[string]*customer.LiveSearch),
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// TaxRequest is the body of POST /tax/calculate
type TaxRequest struct {
	Items        []entity.LineItem `json:"items"`
	IsOtherState bool              `json:"isOtherState"`
}

// TaxResponse is the computed breakdown of a TaxRequest
type TaxResponse struct {
	Breakdown entity.TaxBreakdown  `json:"taxBreakdown"`
	ByRate    []entity.RateSummary `json:"byRate"`
}

// CompanyRequest selects a company
type CompanyRequest struct {
	Company string `json:"company" binding:"required"`
}

// TokenRequest carries the backend auth token
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CalculateTax handles POST /api/v1/tax/calculate
func (h *Handlers) CalculateTax(c *gin.Context) {
	var req TaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TaxResponse{
			Breakdown: tax.Calculate(req.Items, req.IsOtherState),
			ByRate:    tax.SummarizeByRate(req.Items),
		},
	})
}

// ListCompanies handles GET /api/v1/companies
func (h *Handlers) ListCompanies(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.deps.Registry.Companies().List()})
}

// GetLastCompany handles GET /api/v1/preferences/company
func (h *Handlers) GetLastCompany(c *gin.Context) {
	company, err := h.lastCompany(c.Request.Context())
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"company": company}})
}

// SetLastCompany handles PUT /api/v1/preferences/company
func (h *Handlers) SetLastCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "company is required")
		return
	}
	company, ok := h.deps.Registry.Companies().Get(req.Company)
	if !ok {
		h.writeError(c, billing.ErrUnknownCompany, nil)
		return
	}
	if err := h.deps.Preferences.Set(c.Request.Context(), port.PrefLastCompany, company.Name); err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"company": company.Name}})
}

// SetAuthToken handles PUT /api/v1/preferences/token
func (h *Handlers) SetAuthToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token is required")
		return
	}
	if err := h.deps.Preferences.Set(c.Request.Context(), port.PrefAuthToken, req.Token); err != nil {
		h.writeError(c, err, nil)
		return
	}
	if h.deps.Token != nil {
		h.deps.Token.SetToken(req.Token)
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	list, err := h.deps.Notifications.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	if list == nil {
		list = []*entity.Notification{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid notification id")
		return
	}
	if err := h.deps.Notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// lastCompany returns the remembered company or "" when none is stored
func (h *Handlers) lastCompany(ctx context.Context) (string, error) {
	company, err := h.deps.Preferences.Get(ctx, port.PrefLastCompany)
	if errors.Is(err, port.ErrNotFound) {
		return "", nil
	}
	return company, err
}

// search returns the live search of a session, creating it on first use
func (h *Handlers) search(sessionID string) *customer.LiveSearch {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.searches[sessionID]
	if !ok {
		s = customer.NewLiveSearch(h.deps.Directory, h.deps.Search, h.logger.With(zap.String("session_id", sessionID)))
		h.searches[sessionID] = s
	}
	return s
}

func (h *Handlers) dropSearch(sessionID string) {
	h.mu.Lock()
	s, ok := h.searches[sessionID]
	delete(h.searches, sessionID)
	h.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// Close stops every pending live search
func (h *Handlers) Close() {
	h.mu.Lock()
	searches := h.searches
	h.searches = make(map[string]*customer.LiveSearch)
	h.mu.Unlock()

	for _, s := range searches {
		s.Stop()
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
