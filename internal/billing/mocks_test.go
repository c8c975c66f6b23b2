package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/internal/numbering"
)

type mockStore struct {
	mu        sync.Mutex
	saved     []*entity.Bill
	cancelled []string

	saveBillFunc   func(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error)
	getBillFunc    func(ctx context.Context, storedID string) (*entity.Bill, error)
	cancelBillFunc func(ctx context.Context, storedID string) error
}

func (m *mockStore) SaveBill(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error) {
	m.mu.Lock()
	m.saved = append(m.saved, bill.Clone())
	n := len(m.saved)
	m.mu.Unlock()

	if m.saveBillFunc != nil {
		return m.saveBillFunc(ctx, bill)
	}
	return &entity.SaveResult{StoredID: fmt.Sprintf("B-%d", n), InvoiceNumber: bill.InvoiceNumber}, nil
}

func (m *mockStore) GetBill(ctx context.Context, storedID string) (*entity.Bill, error) {
	if m.getBillFunc != nil {
		return m.getBillFunc(ctx, storedID)
	}
	return nil, fmt.Errorf("bill %s not stubbed", storedID)
}

func (m *mockStore) CancelBill(ctx context.Context, storedID string) error {
	m.mu.Lock()
	m.cancelled = append(m.cancelled, storedID)
	m.mu.Unlock()

	if m.cancelBillFunc != nil {
		return m.cancelBillFunc(ctx, storedID)
	}
	return nil
}

func (m *mockStore) savedNumbers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.saved))
	for _, b := range m.saved {
		out = append(out, b.InvoiceNumber)
	}
	return out
}

// mockAllocator hands out prefix-<next> with next starting at start
type mockAllocator struct {
	mu       sync.Mutex
	next     int64
	warning  string
	calls    int
	allocErr error
}

func (m *mockAllocator) Allocate(ctx context.Context, companyName, prefix string) (numbering.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.allocErr != nil {
		return numbering.Allocation{}, m.allocErr
	}
	n := m.next
	m.next++
	return numbering.Allocation{InvoiceNumber: numbering.Format(prefix, n), Sequence: n, Warning: m.warning}, nil
}

type mockResolver struct {
	mu          sync.Mutex
	calls       int
	resolveFunc func(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error)
}

func (m *mockResolver) Resolve(ctx context.Context, name string, hints entity.Contact) (*entity.Customer, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, name, hints)
	}
	return &entity.Customer{ID: "CUST-9", Name: name}, nil
}

func (m *mockResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (m *mockNotifier) Publish(ctx context.Context, n entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, n := range m.sent {
		out = append(out, n.Kind)
	}
	return out
}
