package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hybridui/suite/domain"
	"github.com/hybridui/suite/repository"
)

type customerRepository struct {
	mu     sync.RWMutex
	nextID int
	items  map[int]domain.Customer
}

// NewCustomerRepository seeds the mock CRM dataset. Constructed once at
// startup and injected; nothing else holds the data.
func NewCustomerRepository() repository.CustomerRepository {
	repo := &customerRepository{items: make(map[int]domain.Customer)}
	for _, c := range seedCustomers() {
		repo.items[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Customer, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer == nil || customer.Name == "" {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	customer.ID = r.nextID
	r.nextID++
	r.items[customer.ID] = *customer
	return customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	if customer == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	r.items[customer.ID] = *customer
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.items, id)
	return nil
}

func seedCustomers() []domain.Customer {
	return []domain.Customer{
		{
			ID: 1, Name: "Acme Corporation", ContactPerson: "John Smith",
			Email: "john.smith@acme.com", Phone: "+1 (555) 123-4567",
			Company: "Acme Corporation", Status: "active", Value: 125000,
			LastContact: "2026-01-02",
			Notes:       "Key enterprise client. Monthly check-ins scheduled.",
			Tags:        []string{"enterprise", "vip"},
		},
		{
			ID: 2, Name: "TechStart Inc", ContactPerson: "Sarah Johnson",
			Email: "sarah@techstart.io", Phone: "+1 (555) 234-5678",
			Company: "TechStart Inc", Status: "active", Value: 45000,
			LastContact: "2025-12-28",
			Notes:       "Growing startup, potential for expansion.",
			Tags:        []string{"startup", "tech"},
		},
		{
			ID: 3, Name: "Global Solutions Ltd", ContactPerson: "Michael Chen",
			Email: "mchen@globalsolutions.com", Phone: "+1 (555) 345-6789",
			Company: "Global Solutions Ltd", Status: "active", Value: 89000,
			LastContact: "2026-01-01",
			Notes:       "International client, timezone considerations needed.",
			Tags:        []string{"international", "medium"},
		},
		{
			ID: 4, Name: "Local Business Co", ContactPerson: "Emily Rodriguez",
			Email: "emily@localbiz.com", Phone: "+1 (555) 456-7890",
			Company: "Local Business Co", Status: "lead", Value: 12000,
			LastContact: "2025-12-20",
			Notes:       "New lead from referral. Follow up needed.",
			Tags:        []string{"lead", "small"},
		},
	}
}
