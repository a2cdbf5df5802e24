package repository

import (
	"context"

	"github.com/hybridui/suite/domain"
)

type InvoiceRepository interface {
	List(ctx context.Context) ([]domain.Invoice, error)
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	Summary(ctx context.Context) (*domain.RevenueSummary, error)
}
