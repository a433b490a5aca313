package serviceRepo

import (
	"context"
	"errors"

	"slotbook/models"
)

var ErrNotFound = errors.New("service not found")

// ServiceRepository is the read-only view of the provider catalog the booking
// engine prices requests from. Catalog writes live elsewhere.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*models.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Service, error)
}
