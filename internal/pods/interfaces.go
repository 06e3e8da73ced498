package pods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
)

// Repository defines persistence operations for proof-of-delivery records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pod *models.ProofOfDelivery) (*models.ProofOfDelivery, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProofOfDelivery, error)
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*models.ProofOfDelivery, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.ProofOfDelivery, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
