package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/billing"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/domain/workflow"
)

// candidateWait bounds how long GET /candidates?wait=true blocks
const candidateWait = 15 * time.Second

// EditPermissionHeader carries the edit permission granted to the caller
const EditPermissionHeader = "X-Edit-Permission"

// DraftResponse is the API view of a session
type DraftResponse struct {
	ID        string         `json:"id"`
	State     workflow.State `json:"state"`
	Bill      *entity.Bill   `json:"bill"`
	Warnings  []string       `json:"warnings,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// CreateDraftRequest is the body of POST /drafts
type CreateDraftRequest struct {
	Kind    entity.DocumentKind `json:"kind" binding:"required"`
	Company string              `json:"company"`
}

// UpdateDraftRequest patches a draft; absent fields are left unchanged
type UpdateDraftRequest struct {
	Kind         *entity.DocumentKind `json:"kind"`
	Date         *time.Time           `json:"date"`
	PaymentMode  *string              `json:"paymentMode"`
	Remarks      *string              `json:"remarks"`
	IsOtherState *bool                `json:"isOtherState"`
	Items        []entity.LineItem    `json:"items"`
}

// CustomerRequest sets the typed customer or picks a search candidate
type CustomerRequest struct {
	Name       string         `json:"name"`
	CustomerID string         `json:"customerId"`
	Contact    entity.Contact `json:"contact"`
}

// CandidatesResponse is the latest live search result. Candidates are only
// returned when they answer the customer name currently on the draft.
type CandidatesResponse struct {
	Query      string            `json:"query"`
	Generation uint64            `json:"generation"`
	Current    bool              `json:"current"`
	Candidates []entity.Customer `json:"candidates"`
}

func draftResponse(s *billing.Session) DraftResponse {
	return DraftResponse{
		ID:        s.ID(),
		State:     s.State(),
		Bill:      s.Snapshot(),
		Warnings:  s.Warnings(),
		UpdatedAt: s.UpdatedAt(),
	}
}

// session resolves :id or writes a 404
func (h *Handlers) session(c *gin.Context) (*billing.Session, bool) {
	s, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return nil, false
	}
	return s, true
}

// respond writes the draft, or the error alongside the preserved draft
func (h *Handlers) respond(c *gin.Context, s *billing.Session, err error) {
	if err != nil {
		h.writeError(c, err, draftResponse(s))
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draftResponse(s)})
}

// CreateDraft handles POST /api/v1/drafts
func (h *Handlers) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kind is required")
		return
	}

	ctx := c.Request.Context()
	company := trimmed(req.Company)
	if company == "" {
		last, err := h.lastCompany(ctx)
		if err != nil {
			h.writeError(c, err, nil)
			return
		}
		if last == "" {
			h.writeError(c, port.NewValidationError("company", "company is required"), nil)
			return
		}
		company = last
	}

	s, err := h.deps.Registry.Create(req.Kind, company)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	if err := h.deps.Preferences.Set(ctx, port.PrefLastCompany, s.Snapshot().Company.Name); err != nil {
		h.logger.Warn("Failed to remember company", zap.Error(err))
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: draftResponse(s)})
}

// ListDrafts handles GET /api/v1/drafts
func (h *Handlers) ListDrafts(c *gin.Context) {
	sessions := h.deps.Registry.List()
	out := make([]DraftResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, draftResponse(s))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetDraft handles GET /api/v1/drafts/:id
func (h *Handlers) GetDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s, nil)
}

// UpdateDraft handles PATCH /api/v1/drafts/:id
func (h *Handlers) UpdateDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, port.NewValidationError("body", "invalid request body"), draftResponse(s))
		return
	}

	if req.Kind != nil || req.Date != nil || req.PaymentMode != nil || req.Remarks != nil {
		if _, err := s.SetDetails(billing.DraftDetails{
			Kind:        req.Kind,
			Date:        req.Date,
			PaymentMode: req.PaymentMode,
			Remarks:     req.Remarks,
		}); err != nil {
			h.respond(c, s, err)
			return
		}
	}
	if req.IsOtherState != nil {
		if _, err := s.SetOtherState(*req.IsOtherState); err != nil {
			h.respond(c, s, err)
			return
		}
	}
	if req.Items != nil {
		if _, err := s.SetItems(req.Items); err != nil {
			h.respond(c, s, err)
			return
		}
	}

	h.respond(c, s, nil)
}

// DeleteDraft handles DELETE /api/v1/drafts/:id
func (h *Handlers) DeleteDraft(c *gin.Context) {
	id := c.Param("id")
	if !h.deps.Registry.Remove(id) {
		h.writeError(c, billing.ErrSessionNotFound, nil)
		return
	}
	h.dropSearch(id)
	c.JSON(http.StatusOK, Response{Success: true})
}

// SetCustomer handles PUT /api/v1/drafts/:id/customer. A typed name feeds the
// session's live search; a customerId adopts that candidate.
func (h *Handlers) SetCustomer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, port.NewValidationError("body", "invalid request body"), draftResponse(s))
		return
	}

	if req.CustomerID != "" {
		_, err := s.SelectCustomer(entity.Customer{ID: req.CustomerID, Name: req.Name, Contact: req.Contact})
		h.respond(c, s, err)
		return
	}

	_, err := s.SetCustomer(req.Name, req.Contact)
	if err == nil {
		h.search(s.ID()).Update(req.Name)
	}
	h.respond(c, s, err)
}

// Candidates handles GET /api/v1/drafts/:id/candidates. With wait=true it
// blocks until the pending search settles.
func (h *Handlers) Candidates(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	search := h.search(s.ID())
	if c.Query("wait") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), candidateWait)
		defer cancel()
		if err := search.Wait(ctx); err != nil {
			h.writeError(c, &port.TimeoutError{Op: "customer search"}, nil)
			return
		}
	}

	result := search.Candidates()
	current := search.Matches(s.Snapshot().CustomerName) && result.Generation == search.Generation()
	candidates := result.Candidates
	if !current || candidates == nil {
		candidates = []entity.Customer{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: CandidatesResponse{
		Query:      result.Query,
		Generation: result.Generation,
		Current:    current,
		Candidates: candidates,
	}})
}

// AddItem handles POST /api/v1/drafts/:id/items
func (h *Handlers) AddItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var item entity.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		h.writeError(c, port.NewValidationError("body", "invalid item"), draftResponse(s))
		return
	}
	_, err := s.AddItem(item)
	h.respond(c, s, err)
}

// UpdateItem handles PUT /api/v1/drafts/:id/items/:index
func (h *Handlers) UpdateItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.writeError(c, billing.ErrItemIndex, draftResponse(s))
		return
	}
	var item entity.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		h.writeError(c, port.NewValidationError("body", "invalid item"), draftResponse(s))
		return
	}
	_, err = s.UpdateItem(index, item)
	h.respond(c, s, err)
}

// RemoveItem handles DELETE /api/v1/drafts/:id/items/:index
func (h *Handlers) RemoveItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.writeError(c, billing.ErrItemIndex, draftResponse(s))
		return
	}
	_, err = s.RemoveItem(index)
	h.respond(c, s, err)
}

// SaveDraft handles POST /api/v1/drafts/:id/save
func (h *Handlers) SaveDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	_, err := s.Save(c.Request.Context())
	h.respond(c, s, err)
}

// CancelDraft handles POST /api/v1/drafts/:id/cancel
func (h *Handlers) CancelDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	_, err := s.Cancel(c.Request.Context())
	h.respond(c, s, err)
}

// OpenBill handles POST /api/v1/bills/:id/open, loading a stored bill into a session
func (h *Handlers) OpenBill(c *gin.Context) {
	s, err := h.openStored(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: draftResponse(s)})
}

// EditBill handles POST /api/v1/bills/:id/edit. The caller's permission comes
// from the X-Edit-Permission header; without it a permission request is raised.
func (h *Handlers) EditBill(c *gin.Context) {
	s, err := h.openStored(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}

	granted, _ := strconv.ParseBool(c.GetHeader(EditPermissionHeader))
	ctx := workflow.WithEditPermission(c.Request.Context(), granted)

	_, err = s.Reopen(ctx)
	h.respond(c, s, err)
}

// openStored reuses the session already holding storedID or opens a new one
func (h *Handlers) openStored(ctx context.Context, storedID string) (*billing.Session, error) {
	if storedID == "" {
		return nil, billing.ErrNotSaved
	}
	for _, s := range h.deps.Registry.List() {
		if s.Snapshot().StoredID == storedID {
			return s, nil
		}
	}
	return h.deps.Registry.Open(ctx, storedID)
}
