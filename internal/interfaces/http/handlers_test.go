package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/billing"
	"github.com/garyjia/billing-workflow/internal/customer"
	"github.com/garyjia/billing-workflow/internal/document"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/email"
	"github.com/garyjia/billing-workflow/internal/numbering"
)

// --- fakes ---

type fakeStore struct {
	mu        sync.Mutex
	bills     map[string]*entity.Bill
	saveFunc  func(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error)
	saveCalls int
}

func (f *fakeStore) SaveBill(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error) {
	f.mu.Lock()
	f.saveCalls++
	n := f.saveCalls
	f.mu.Unlock()

	if f.saveFunc != nil {
		return f.saveFunc(ctx, bill)
	}
	id := fmt.Sprintf("B-%d", n)
	f.mu.Lock()
	stored := bill.Clone()
	stored.StoredID = id
	f.bills[id] = stored
	f.mu.Unlock()
	return &entity.SaveResult{StoredID: id, InvoiceNumber: bill.InvoiceNumber}, nil
}

func (f *fakeStore) GetBill(ctx context.Context, storedID string) (*entity.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[storedID]
	if !ok {
		return nil, fmt.Errorf("bill %s: %w", storedID, port.ErrNotFound)
	}
	return b.Clone(), nil
}

func (f *fakeStore) CancelBill(ctx context.Context, storedID string) error {
	return nil
}

type sequenceAllocator struct {
	mu   sync.Mutex
	next int64
}

func (a *sequenceAllocator) Allocate(ctx context.Context, companyName, prefix string) (numbering.Allocation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return numbering.Allocation{InvoiceNumber: numbering.Format(prefix, a.next), Sequence: a.next}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error) {
	return &entity.Customer{ID: "CUST-1", Name: name, Contact: hints}, nil
}

type fakeDirectory struct {
	customers []entity.Customer
}

func (d *fakeDirectory) SearchCustomers(ctx context.Context, query string) ([]entity.Customer, error) {
	var out []entity.Customer
	for _, c := range d.customers {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *fakeDirectory) CreateCustomer(ctx context.Context, c entity.Customer) (*entity.Customer, error) {
	return &c, nil
}

type memoryPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryPreferences) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("preference %s: %w", key, port.ErrNotFound)
	}
	return v, nil
}

func (m *memoryPreferences) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type stubDocuments struct {
	composeErr error
}

func (s *stubDocuments) Compose(ctx context.Context, bill *entity.Bill) (*document.Document, error) {
	if s.composeErr != nil {
		return nil, s.composeErr
	}
	return &document.Document{
		Kind:          bill.Kind,
		InvoiceNumber: bill.InvoiceNumber,
		FileName:      document.FileName(bill.Kind, bill.InvoiceNumber),
		Company:       bill.Company.Name,
		Cancelled:     bill.IsCancelled,
		Content:       []byte("%PDF-1.4 stub"),
	}, nil
}

func (s *stubDocuments) Preview(doc *document.Document) ([]byte, error) {
	return []byte("\x89PNG stub"), nil
}

func (s *stubDocuments) Download(doc *document.Document) (string, error) {
	return "/tmp/docs/" + doc.FileName, nil
}

func (s *stubDocuments) SaveWorkbook(bill *entity.Bill) (string, error) {
	return "/tmp/docs/" + document.WorkbookFileName(bill.Kind, bill.InvoiceNumber), nil
}

type stubMailer struct {
	err  error
	sent []email.Message
}

func (m *stubMailer) Send(ctx context.Context, doc *document.Document, bill *entity.Bill, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubNotifications struct {
	list []*entity.Notification
	read []int64
}

func (s *stubNotifications) List(ctx context.Context) ([]*entity.Notification, error) {
	return s.list, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, id int64) error {
	s.read = append(s.read, id)
	return nil
}

type recordingToken struct {
	token string
}

func (r *recordingToken) SetToken(token string) { r.token = token }

// --- harness ---

type testEnv struct {
	server        *Server
	store         *fakeStore
	prefs         *memoryPreferences
	documents     *stubDocuments
	mailer        *stubMailer
	notifications *stubNotifications
	token         *recordingToken
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	env := &testEnv{
		store:         &fakeStore{bills: make(map[string]*entity.Bill)},
		prefs:         &memoryPreferences{values: make(map[string]string)},
		documents:     &stubDocuments{},
		mailer:        &stubMailer{},
		notifications: &stubNotifications{},
		token:         &recordingToken{},
	}

	catalog := billing.NewCompanyCatalog([]entity.Company{
		{Name: "Wonderful Foods", Prefix: "WNF"},
		{Name: "Sunrise Traders", Prefix: "SRT"},
	})
	gateway := billing.NewGateway(env.store, &sequenceAllocator{}, billing.DefaultRetryPolicy(), logger)
	registry := billing.NewRegistry(catalog, billing.SessionDeps{
		Resolver: fakeResolver{},
		Gateway:  gateway,
		Logger:   logger,
	}, logger)

	directory := &fakeDirectory{customers: []entity.Customer{
		{ID: "CUST-7", Name: "Asha Traders"},
		{ID: "CUST-8", Name: "Ashok Stores"},
	}}

	env.server = NewServer(ServerConfig{Mode: gin.TestMode}, Dependencies{
		Registry:      registry,
		Documents:     env.documents,
		Mailer:        env.mailer,
		Notifications: env.notifications,
		Preferences:   env.prefs,
		Directory:     directory,
		Search:        customer.LiveSearchConfig{Debounce: 10 * time.Millisecond},
		Token:         env.token,
	}, logger)
	t.Cleanup(func() { env.server.handlers.Close() })
	return env
}

type apiResponse struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type draftView struct {
	ID       string       `json:"id"`
	State    string       `json:"state"`
	Bill     *entity.Bill `json:"bill"`
	Warnings []string     `json:"warnings"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeDraft(t *testing.T, w *httptest.ResponseRecorder) (apiResponse, draftView) {
	t.Helper()
	resp := decode(t, w)
	var view draftView
	require.NoError(t, json.Unmarshal(resp.Data, &view), string(resp.Data))
	return resp, view
}

func (e *testEnv) createDraft(t *testing.T) draftView {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/drafts", gin.H{"kind": "CASH_BILL", "company": "Wonderful Foods"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	_, view := decodeDraft(t, w)
	return view
}

func (e *testEnv) fillDraft(t *testing.T, id string) {
	t.Helper()
	w := e.do(t, http.MethodPut, "/api/v1/drafts/"+id+"/customer", gin.H{
		"customerId": "CUST-7",
		"name":       "Asha Traders",
		"contact":    gin.H{"email": "asha@example.com"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPatch, "/api/v1/drafts/"+id, gin.H{
		"items": []gin.H{
			{"name": "Rice", "quantity": 2, "unitRate": "100", "taxRatePercent": "18"},
			{"name": "Oil", "quantity": 1, "unitRate": "45.50", "taxRatePercent": nil},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// --- tests ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestCalculateTax(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/tax/calculate", gin.H{
		"items": []gin.H{
			{"name": "Rice", "quantity": 2, "unitRate": "100", "taxRatePercent": "18"},
			{"name": "Oil", "quantity": 1, "unitRate": "45.50"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data TaxResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "290", data.Breakdown.RoundedTotal.String())
	assert.Equal(t, "245.5", data.Breakdown.TaxableAmount.String())
}

func TestCreateDraft_UsesRememberedCompany(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/drafts", gin.H{"kind": "CASH_BILL"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Fields, "company")

	env.createDraft(t)
	assert.Equal(t, "Wonderful Foods", env.prefs.values[port.PrefLastCompany])

	w = env.do(t, http.MethodPost, "/api/v1/drafts", gin.H{"kind": "QUOTATION"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	_, view := decodeDraft(t, w)
	assert.Equal(t, "Wonderful Foods", view.Bill.Company.Name)
	assert.Equal(t, entity.KindQuotation, view.Bill.Kind)
}

func TestCreateDraft_UnknownCompanyAndKind(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/drafts", gin.H{"kind": "CASH_BILL", "company": "Nobody Ltd"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/drafts", gin.H{"kind": "INVOICE", "company": "Wonderful Foods"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Fields, "kind")
}

func TestDraftLifecycle_SaveCancelAndEdit(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)
	env.fillDraft(t, draft.ID)

	w := env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, saved := decodeDraft(t, w)
	assert.Equal(t, "SAVED", saved.State)
	assert.Equal(t, "WNF-1", saved.Bill.InvoiceNumber)
	assert.Equal(t, "B-1", saved.Bill.StoredID)
	assert.Equal(t, "290", saved.Bill.Tax.RoundedTotal.String())

	// saved bills are read-only until reopened
	w = env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/items", gin.H{"name": "Salt", "quantity": 1, "unitRate": "10"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/bills/B-1/edit", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp, view := decodeDraft(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "SAVED", view.State)

	w = env.do(t, http.MethodPost, "/api/v1/bills/B-1/edit", nil, EditPermissionHeader, "true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, view = decodeDraft(t, w)
	assert.Equal(t, draft.ID, view.ID, "reuses the open session")
	assert.Equal(t, "DRAFT", view.State)
}

func TestCancelDraft(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)

	w := env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "unsaved drafts cannot be cancelled")

	env.fillDraft(t, draft.ID)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/save", nil).Code)

	w = env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, view := decodeDraft(t, w)
	assert.Equal(t, "CANCELLED", view.State)
	assert.True(t, view.Bill.IsCancelled)
}

func TestSaveDraft_ErrorsKeepDraft(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"duplicate twice", &port.DuplicateNumberError{InvoiceNumber: "WNF-1"}, http.StatusConflict},
		{"network", &port.NetworkError{Op: "save bill", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"timeout", &port.TimeoutError{Op: "save bill"}, http.StatusGatewayTimeout},
		{"backend validation", port.NewValidationError("customerName", "required"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.store.saveFunc = func(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error) {
				return nil, tt.err
			}
			draft := env.createDraft(t)
			env.fillDraft(t, draft.ID)

			w := env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/save", nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp, view := decodeDraft(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, "DRAFT", view.State)
			assert.Len(t, view.Bill.Items, 2)
			assert.Equal(t, "Asha Traders", view.Bill.CustomerName)
			assert.Empty(t, view.Bill.InvoiceNumber)
		})
	}
}

func TestSaveDraft_ClientValidation(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)

	w := env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/save", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Contains(t, resp.Fields, "customerName")
	assert.Contains(t, resp.Fields, "items")
	assert.Zero(t, env.store.saveCalls)
}

func TestItems(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)
	base := "/api/v1/drafts/" + draft.ID + "/items"

	w := env.do(t, http.MethodPost, base, gin.H{"name": "Rice", "quantity": 2, "unitRate": "100", "taxRatePercent": "5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, view := decodeDraft(t, w)
	assert.Equal(t, "210", view.Bill.Tax.RoundedTotal.String())

	w = env.do(t, http.MethodPut, base+"/0", gin.H{"name": "Rice", "quantity": 1, "unitRate": "100", "taxRatePercent": "5"})
	require.Equal(t, http.StatusOK, w.Code)
	_, view = decodeDraft(t, w)
	assert.Equal(t, "105", view.Bill.Tax.RoundedTotal.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, base+"/4", gin.H{"name": "X", "quantity": 1, "unitRate": "1"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, base+"/abc", nil).Code)

	w = env.do(t, http.MethodDelete, base+"/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, view = decodeDraft(t, w)
	assert.Empty(t, view.Bill.Items)
}

func TestUnknownDraft(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/drafts/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/v1/drafts/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/bills/B-404/open", nil).Code)
}

func TestListAndDeleteDrafts(t *testing.T) {
	env := newTestEnv(t)
	first := env.createDraft(t)
	env.createDraft(t)

	w := env.do(t, http.MethodGet, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []draftView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/drafts/"+first.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/drafts/"+first.ID, nil).Code)
}

func TestCandidates_LiveSearch(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)

	w := env.do(t, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/customer", gin.H{"name": "Ash"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/drafts/"+draft.ID+"/candidates?wait=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data CandidatesResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "Ash", data.Query)
	assert.True(t, data.Current)
	assert.Len(t, data.Candidates, 2)
	assert.NotZero(t, data.Generation)
}

func TestCandidates_NeverPairedWithNewerName(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)
	candidates := func(query string) CandidatesResponse {
		t.Helper()
		w := env.do(t, http.MethodGet, "/api/v1/drafts/"+draft.ID+"/candidates"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var data CandidatesResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
		return data
	}

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/customer", gin.H{"name": "Ash"}).Code)
	require.Len(t, candidates("?wait=true").Candidates, 2)

	// the search for the new name is still debouncing
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/customer", gin.H{"name": "Ashok"}).Code)
	data := candidates("")
	assert.False(t, data.Current)
	assert.Empty(t, data.Candidates)

	data = candidates("?wait=true")
	assert.True(t, data.Current)
	assert.Equal(t, "Ashok", data.Query)
	require.Len(t, data.Candidates, 1)

	// picking a candidate changes the draft name away from the searched query
	w := env.do(t, http.MethodPut, "/api/v1/drafts/"+draft.ID+"/customer", gin.H{"customerId": data.Candidates[0].ID, "name": data.Candidates[0].Name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = candidates("")
	assert.False(t, data.Current)
	assert.Empty(t, data.Candidates)
}

func TestComposeDocument_Sinks(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)
	base := "/api/v1/drafts/" + draft.ID + "/document"

	w := env.do(t, http.MethodPost, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "CashBill_DRAFT.pdf")

	w = env.do(t, http.MethodPost, base+"?sink=preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = env.do(t, http.MethodPost, base+"?sink=download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var file FileResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &file))
	assert.Equal(t, "/tmp/docs/CashBill_DRAFT.pdf", file.Path)

	w = env.do(t, http.MethodPost, base+"?sink=attachment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var att AttachmentResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &att))
	assert.NotEmpty(t, att.PDFBase64)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, base+"?sink=fax", nil).Code)

	w = env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/workbook", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &file))
	assert.Equal(t, "CashBill_DRAFT.xlsx", file.FileName)
}

func TestComposeDocument_Timeout(t *testing.T) {
	env := newTestEnv(t)
	env.documents.composeErr = &port.TimeoutError{Op: "compose document"}
	draft := env.createDraft(t)

	w := env.do(t, http.MethodPost, "/api/v1/drafts/"+draft.ID+"/document", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestSendEmail(t *testing.T) {
	env := newTestEnv(t)
	draft := env.createDraft(t)
	path := "/api/v1/drafts/" + draft.ID + "/email"

	w := env.do(t, http.MethodPost, path, gin.H{"to": "asha@example.com", "subject": "Bill"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", env.mailer.sent[0].To)

	env.mailer.err = &port.TimeoutError{Op: "send email"}
	w = env.do(t, http.MethodPost, path, gin.H{"to": "asha@example.com"})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	env.mailer.err = &port.NetworkError{Op: "send email", StatusCode: 500}
	w = env.do(t, http.MethodPost, path, gin.H{"to": "asha@example.com"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/preferences/company", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"company":""}`, string(decode(t, w).Data))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/v1/preferences/company", gin.H{"company": "Nobody"}).Code)

	w = env.do(t, http.MethodPut, "/api/v1/preferences/company", gin.H{"company": "sunrise traders"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sunrise Traders", env.prefs.values[port.PrefLastCompany])

	w = env.do(t, http.MethodPut, "/api/v1/preferences/token", gin.H{"token": "secret-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret-token", env.token.token)
	assert.Equal(t, "secret-token", env.prefs.values[port.PrefAuthToken])
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.notifications.list = []*entity.Notification{{ID: 3, Kind: entity.NotificationBillSaved, Title: "Saved"}}

	w := env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []entity.Notification
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Saved", list[0].Title)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/notifications/3/read", nil).Code)
	assert.Equal(t, []int64{3}, env.notifications.read)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/notifications/x/read", nil).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{port.NewValidationError("f", "bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", &port.DuplicateNumberError{InvoiceNumber: "A-1"}), http.StatusConflict},
		{&port.NetworkError{Op: "x"}, http.StatusBadGateway},
		{&port.TimeoutError{Op: "x"}, http.StatusGatewayTimeout},
		{&port.PermissionError{Action: "edit"}, http.StatusForbidden},
		{billing.ErrSessionNotFound, http.StatusNotFound},
		{billing.ErrSaveInProgress, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
