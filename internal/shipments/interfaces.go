package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/inventoryapi"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/salesorderapi"
)

// Repository defines persistence operations for shipments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	// LockByID loads the shipment row FOR UPDATE so that status aggregation
	// is serialized per shipment.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) ([]models.Shipment, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Shipment, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindItemByID(ctx context.Context, id uuid.UUID) (*models.ShipmentItem, error)
	FindItemsByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentItem, error)
	// FindStaleReservations returns items whose reservation intent was
	// written before the cutoff but never finalized.
	FindStaleReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.ShipmentItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateItemsStatus(ctx context.Context, shipmentID uuid.UUID, status enums.ShipmentItemStatus) error
}

// SalesOrderGateway is the narrow surface of the sales order service the
// orchestrator needs.
type SalesOrderGateway interface {
	GetByID(ctx context.Context, id uuid.UUID) (*salesorderapi.SalesOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error
}

// InventoryGateway is the narrow surface of the inventory service used for
// stock reservations.
type InventoryGateway interface {
	GetByID(ctx context.Context, id uuid.UUID) (*inventoryapi.Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) error
}
