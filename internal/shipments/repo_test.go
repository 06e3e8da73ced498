package shipments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
)

func setupShipmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:shipments_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	shipments := `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  shipment_number TEXT NOT NULL UNIQUE,
  sales_order_id TEXT NOT NULL,
  sales_order_number TEXT NOT NULL,
  account_id TEXT NOT NULL,
  site_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT NOT NULL DEFAULT 'standard',
  ship_date DATETIME,
  expected_delivery_date DATETIME,
  actual_delivery_date DATETIME,
  carrier TEXT,
  tracking_number TEXT,
  service_type TEXT,
  shipping_address TEXT,
  requires_cold_chain INTEGER NOT NULL DEFAULT 0,
  temperature_range TEXT,
  cancelled_at DATETIME,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	shipmentItems := `
CREATE TABLE IF NOT EXISTS shipment_items (
  id TEXT PRIMARY KEY,
  shipment_id TEXT NOT NULL,
  sales_order_item_id TEXT NOT NULL,
  drug_id TEXT NOT NULL,
  drug_name TEXT NOT NULL,
  batch_number TEXT,
  quantity INTEGER NOT NULL,
  picked_quantity INTEGER NOT NULL DEFAULT 0,
  packed_quantity INTEGER NOT NULL DEFAULT 0,
  location TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  picked_by TEXT,
  picked_at DATETIME,
  packed_by TEXT,
  packed_at DATETIME,
  inventory_item_id TEXT,
  reservation_state TEXT NOT NULL DEFAULT 'none',
  reserved_quantity INTEGER NOT NULL DEFAULT 0,
  reservation_requested_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(shipments).Error)
	require.NoError(t, db.Exec(shipmentItems).Error)
	return db
}

func buildShipment(number string, status enums.ShipmentStatus) *models.Shipment {
	return &models.Shipment{
		ID:               uuid.New(),
		ShipmentNumber:   number,
		SalesOrderID:     uuid.New(),
		SalesOrderNumber: "SO-2024-000099",
		AccountID:        uuid.New(),
		SiteID:           uuid.New(),
		Status:           status,
		Priority:         enums.PriorityStandard,
		CreatedBy:        uuid.New(),
		Items: []models.ShipmentItem{
			{
				ID:               uuid.New(),
				SalesOrderItemID: uuid.New(),
				DrugID:           uuid.New(),
				DrugName:         "Omeprazole 20mg",
				Quantity:         12,
				Status:           enums.ShipmentItemStatusPending,
				ReservationState: enums.ReservationStateNone,
			},
		},
	}
}

func TestShipmentRepoCreateAndFind(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildShipment("SH-2024-000001", enums.ShipmentStatusPending))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "SH-2024-000001", found.ShipmentNumber)
	require.Len(t, found.Items, 1)
	require.Equal(t, enums.ReservationStateNone, found.Items[0].ReservationState)
}

func TestShipmentRepoFindBySalesOrder(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := buildShipment("SH-2024-000010", enums.ShipmentStatusPending)
	second := buildShipment("SH-2024-000011", enums.ShipmentStatusPending)
	second.SalesOrderID = first.SalesOrderID
	other := buildShipment("SH-2024-000012", enums.ShipmentStatusPending)
	for _, shipment := range []*models.Shipment{first, second, other} {
		_, err := repo.Create(ctx, shipment)
		require.NoError(t, err)
	}

	found, err := repo.FindBySalesOrder(ctx, first.SalesOrderID)
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestShipmentRepoListFilters(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := buildShipment("SH-2024-000020", enums.ShipmentStatusPending)
	shipped := buildShipment("SH-2024-000021", enums.ShipmentStatusShipped)
	tracking := "TRACK-555"
	shipped.TrackingNumber = &tracking
	for _, shipment := range []*models.Shipment{pending, shipped} {
		_, err := repo.Create(ctx, shipment)
		require.NoError(t, err)
	}

	status := enums.ShipmentStatusShipped
	found, total, err := repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, Filters{Status: &status})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "SH-2024-000021", found[0].ShipmentNumber)

	found, total, err = repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, Filters{Search: "TRACK-555"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, found, 1)

	found, total, err = repo.List(ctx, pagination.Params{Page: 1, Limit: 10}, Filters{AccountID: &pending.AccountID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "SH-2024-000020", found[0].ShipmentNumber)
}

func TestShipmentRepoUpdateItemAndBulkStatus(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildShipment("SH-2024-000030", enums.ShipmentStatusPending))
	require.NoError(t, err)
	itemID := created.Items[0].ID
	inventoryID := uuid.New()

	require.NoError(t, repo.UpdateItem(ctx, itemID, map[string]any{
		"reservation_state": enums.ReservationStateReserving,
		"inventory_item_id": inventoryID,
		"reserved_quantity": 12,
	}))

	item, err := repo.FindItemByID(ctx, itemID)
	require.NoError(t, err)
	require.Equal(t, enums.ReservationStateReserving, item.ReservationState)
	require.NotNil(t, item.InventoryItemID)
	require.Equal(t, inventoryID, *item.InventoryItemID)
	require.Equal(t, 12, item.ReservedQuantity)

	require.NoError(t, repo.UpdateItemsStatus(ctx, created.ID, enums.ShipmentItemStatusShipped))
	items, err := repo.FindItemsByShipment(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, enums.ShipmentItemStatusShipped, items[0].Status)
}

func TestShipmentRepoDeleteRemovesItems(t *testing.T) {
	db := setupShipmentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, buildShipment("SH-2024-000040", enums.ShipmentStatusPending))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.ShipmentItem{}).Where("shipment_id = ?", created.ID).Count(&count).Error)
	require.Zero(t, count)
}
