package salesorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
)

// Repository defines persistence operations for sales orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.SalesOrder) (*models.SalesOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.SalesOrder, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
