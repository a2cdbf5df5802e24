package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

type invoiceRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Invoice
}

// NewInvoiceRepository seeds the mock revenue dataset.
func NewInvoiceRepository() repository.InvoiceRepository {
	repo := &invoiceRepository{items: make(map[string]domain.Invoice)}
	for _, inv := range seedInvoices() {
		repo.items[inv.ID] = inv
	}
	return repo
}

func (r *invoiceRepository) List(ctx context.Context) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Invoice, 0, len(r.items))
	for _, inv := range r.items {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (r *invoiceRepository) Summary(ctx context.Context) (*domain.RevenueSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &domain.RevenueSummary{}
	for _, inv := range r.items {
		summary.InvoiceCount++
		summary.TotalInvoiced += inv.Amount
		if inv.Status == domain.InvoiceStatusPaid {
			summary.PaidCount++
			summary.TotalPaid += inv.Amount
		} else {
			summary.TotalOutstanding += inv.Amount
		}
	}
	return summary, nil
}

func seedInvoices() []domain.Invoice {
	return []domain.Invoice{
		{
			ID: "INV-2026-001", CustomerID: 1, CustomerName: "Acme Corporation",
			Amount: 12500, Currency: "USD",
			IssueDate: "2026-01-01", DueDate: "2026-01-31", PaidDate: "2026-01-15",
			Status:      domain.InvoiceStatusPaid,
			Description: "Monthly subscription - January 2026",
			Items: []domain.InvoiceItem{
				{Description: "Enterprise Plan", Quantity: 1, UnitPrice: 10000, Total: 10000},
				{Description: "Additional Users (5)", Quantity: 5, UnitPrice: 500, Total: 2500},
			},
		},
		{
			ID: "INV-2026-002", CustomerID: 2, CustomerName: "TechStart Inc",
			Amount: 4500, Currency: "USD",
			IssueDate: "2026-01-01", DueDate: "2026-01-31",
			Status:      domain.InvoiceStatusSent,
			Description: "Monthly subscription - January 2026",
			Items: []domain.InvoiceItem{
				{Description: "Startup Plan", Quantity: 1, UnitPrice: 4500, Total: 4500},
			},
		},
		{
			ID: "INV-2026-003", CustomerID: 3, CustomerName: "Global Solutions Ltd",
			Amount: 8900, Currency: "USD",
			IssueDate: "2026-01-01", DueDate: "2026-01-31", PaidDate: "2026-01-10",
			Status:      domain.InvoiceStatusPaid,
			Description: "Monthly subscription - January 2026",
			Items: []domain.InvoiceItem{
				{Description: "Professional Plan", Quantity: 1, UnitPrice: 7500, Total: 7500},
				{Description: "API Access", Quantity: 1, UnitPrice: 1400, Total: 1400},
			},
		},
		{
			ID: "INV-2025-118", CustomerID: 4, CustomerName: "Local Business Co",
			Amount: 1200, Currency: "USD",
			IssueDate: "2025-11-01", DueDate: "2025-12-01",
			Status:      domain.InvoiceStatusOverdue,
			Description: "Onboarding package",
			Items: []domain.InvoiceItem{
				{Description: "Starter Plan", Quantity: 1, UnitPrice: 1200, Total: 1200},
			},
		},
	}
}
