package shipments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/inventoryapi"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/salesorderapi"
)

type stubShipmentRepo struct {
	shipments map[uuid.UUID]*models.Shipment
	items     map[uuid.UUID]*models.ShipmentItem
	lockCalls int
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{
		shipments: map[uuid.UUID]*models.Shipment{},
		items:     map[uuid.UUID]*models.ShipmentItem{},
	}
}

func (s *stubShipmentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubShipmentRepo) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	for i := range shipment.Items {
		if shipment.Items[i].ID == uuid.Nil {
			shipment.Items[i].ID = uuid.New()
		}
		shipment.Items[i].ShipmentID = shipment.ID
		item := shipment.Items[i]
		s.items[item.ID] = &item
	}
	s.shipments[shipment.ID] = shipment
	return shipment, nil
}

func (s *stubShipmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shipment
	copied.Items = nil
	for _, item := range s.items {
		if item.ShipmentID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	return &copied, nil
}

func (s *stubShipmentRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	s.lockCalls++
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shipment
	return &copied, nil
}

func (s *stubShipmentRepo) FindBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		if shipment.SalesOrderID == salesOrderID {
			out = append(out, *shipment)
		}
	}
	return out, nil
}

func (s *stubShipmentRepo) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Shipment, int64, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		out = append(out, *shipment)
	}
	return out, int64(len(out)), nil
}

func (s *stubShipmentRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	shipment, ok := s.shipments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.ShipmentStatus); ok {
		shipment.Status = status
	}
	if shipDate, ok := updates["ship_date"].(time.Time); ok {
		shipment.ShipDate = &shipDate
	}
	if cancelledAt, ok := updates["cancelled_at"].(time.Time); ok {
		shipment.CancelledAt = &cancelledAt
	}
	if tracking, ok := updates["tracking_number"].(string); ok {
		shipment.TrackingNumber = &tracking
	}
	if carrier, ok := updates["carrier"].(string); ok {
		shipment.Carrier = &carrier
	}
	if serviceType, ok := updates["service_type"].(string); ok {
		shipment.ServiceType = &serviceType
	}
	if priority, ok := updates["priority"].(enums.Priority); ok {
		shipment.Priority = priority
	}
	if actual, ok := updates["actual_delivery_date"].(time.Time); ok {
		shipment.ActualDeliveryDate = &actual
	}
	return nil
}

func (s *stubShipmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.shipments, id)
	for itemID, item := range s.items {
		if item.ShipmentID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *stubShipmentRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*models.ShipmentItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubShipmentRepo) FindItemsByShipment(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentItem, error) {
	var out []models.ShipmentItem
	for _, item := range s.items {
		if item.ShipmentID == shipmentID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubShipmentRepo) FindStaleReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.ShipmentItem, error) {
	var out []models.ShipmentItem
	for _, item := range s.items {
		if item.ReservationState != enums.ReservationStateReserving {
			continue
		}
		if item.ReservationRequestedAt == nil || item.ReservationRequestedAt.Before(cutoff) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubShipmentRepo) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	item, ok := s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.ShipmentItemStatus); ok {
		item.Status = status
	}
	if state, ok := updates["reservation_state"].(enums.ReservationState); ok {
		item.ReservationState = state
	}
	if raw, exists := updates["inventory_item_id"]; exists {
		if id, ok := raw.(uuid.UUID); ok {
			item.InventoryItemID = &id
		} else {
			item.InventoryItemID = nil
		}
	}
	if qty, ok := updates["reserved_quantity"].(int); ok {
		item.ReservedQuantity = qty
	}
	if raw, exists := updates["reservation_requested_at"]; exists {
		if at, ok := raw.(time.Time); ok {
			item.ReservationRequestedAt = &at
		} else {
			item.ReservationRequestedAt = nil
		}
	}
	if qty, ok := updates["picked_quantity"].(int); ok {
		item.PickedQuantity = qty
	}
	if by, ok := updates["picked_by"].(uuid.UUID); ok {
		item.PickedBy = &by
	}
	if at, ok := updates["picked_at"].(time.Time); ok {
		item.PickedAt = &at
	}
	if qty, ok := updates["packed_quantity"].(int); ok {
		item.PackedQuantity = qty
	}
	if by, ok := updates["packed_by"].(uuid.UUID); ok {
		item.PackedBy = &by
	}
	if at, ok := updates["packed_at"].(time.Time); ok {
		item.PackedAt = &at
	}
	if location, ok := updates["location"].(string); ok {
		item.Location = &location
	}
	if batch, ok := updates["batch_number"].(string); ok {
		item.BatchNumber = &batch
	}
	return nil
}

func (s *stubShipmentRepo) UpdateItemsStatus(ctx context.Context, shipmentID uuid.UUID, status enums.ShipmentItemStatus) error {
	for _, item := range s.items {
		if item.ShipmentID == shipmentID {
			item.Status = status
		}
	}
	return nil
}

type stubOrderGateway struct {
	order           *salesorderapi.SalesOrder
	getErr          error
	updateErr       error
	updatedStatuses []enums.SalesOrderStatus
}

func (g *stubOrderGateway) GetByID(ctx context.Context, id uuid.UUID) (*salesorderapi.SalesOrder, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	if g.order == nil || g.order.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
	}
	return g.order, nil
}

func (g *stubOrderGateway) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) error {
	g.updatedStatuses = append(g.updatedStatuses, status)
	return g.updateErr
}

type stubInventoryGateway struct {
	items      map[uuid.UUID]*inventoryapi.Item
	updateErr  error
	statusSets []enums.InventoryStatus
}

func (g *stubInventoryGateway) GetByID(ctx context.Context, id uuid.UUID) (*inventoryapi.Item, error) {
	item, ok := g.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return item, nil
}

func (g *stubInventoryGateway) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.InventoryStatus) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	g.statusSets = append(g.statusSets, status)
	if item, ok := g.items[id]; ok {
		item.Status = status
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "shipments-test", Output: io.Discard})
}

func newTestService(repo Repository, orders SalesOrderGateway, inventory InventoryGateway) *service {
	return &service{
		repo:      repo,
		tx:        stubTx{},
		orders:    orders,
		inventory: inventory,
		logg:      testLogger(),
		now:       func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		nextNumber: func(ctx context.Context, tx *gorm.DB, entity string, at time.Time) (string, error) {
			return entity + "-2024-000001", nil
		},
	}
}

func approvedOrder() *salesorderapi.SalesOrder {
	return &salesorderapi.SalesOrder{
		ID:          uuid.New(),
		OrderNumber: "SO-2024-000007",
		Status:      enums.SalesOrderStatusApproved,
		AccountID:   uuid.New(),
		SiteID:      uuid.New(),
		Items: []salesorderapi.SalesOrderItem{
			{ID: uuid.New(), DrugID: uuid.New(), DrugName: "Atorvastatin 20mg", Quantity: 50},
		},
	}
}

func seedShipment(repo *stubShipmentRepo, status enums.ShipmentStatus, itemStatus enums.ShipmentItemStatus, qty int) (*models.Shipment, *models.ShipmentItem) {
	shipment := &models.Shipment{
		ID:               uuid.New(),
		ShipmentNumber:   "SH-2024-000042",
		SalesOrderID:     uuid.New(),
		SalesOrderNumber: "SO-2024-000007",
		AccountID:        uuid.New(),
		SiteID:           uuid.New(),
		Status:           status,
		Priority:         enums.PriorityStandard,
	}
	item := &models.ShipmentItem{
		ID:               uuid.New(),
		ShipmentID:       shipment.ID,
		SalesOrderItemID: uuid.New(),
		DrugID:           uuid.New(),
		DrugName:         "Atorvastatin 20mg",
		Quantity:         qty,
		Status:           itemStatus,
		ReservationState: enums.ReservationStateNone,
	}
	repo.shipments[shipment.ID] = shipment
	repo.items[item.ID] = item
	return shipment, item
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func TestCreateBuildsPendingShipment(t *testing.T) {
	repo := newStubShipmentRepo()
	order := approvedOrder()
	gateway := &stubOrderGateway{order: order}
	svc := newTestService(repo, gateway, &stubInventoryGateway{})

	shipment, err := svc.Create(context.Background(), CreateInput{
		SalesOrderID: order.ID,
		CreatedBy:    uuid.New(),
		Items: []CreateItemInput{
			{SalesOrderItemID: order.Items[0].ID, Quantity: 30},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if shipment.ShipmentNumber != "SH-2024-000001" {
		t.Fatalf("unexpected shipment number %s", shipment.ShipmentNumber)
	}
	if shipment.Status != enums.ShipmentStatusPending {
		t.Fatalf("expected pending, got %s", shipment.Status)
	}
	if shipment.SalesOrderNumber != order.OrderNumber || shipment.AccountID != order.AccountID {
		t.Fatalf("order fields not denormalized")
	}
	if len(shipment.Items) != 1 || shipment.Items[0].Status != enums.ShipmentItemStatusPending {
		t.Fatalf("items not initialized")
	}
	if shipment.Items[0].DrugName != "Atorvastatin 20mg" {
		t.Fatalf("drug name not copied from order")
	}
}

func TestCreateRequiresApprovedOrder(t *testing.T) {
	repo := newStubShipmentRepo()
	order := approvedOrder()
	order.Status = enums.SalesOrderStatusDraft
	svc := newTestService(repo, &stubOrderGateway{order: order}, &stubInventoryGateway{})

	_, err := svc.Create(context.Background(), CreateInput{
		SalesOrderID: order.ID,
		CreatedBy:    uuid.New(),
		Items:        []CreateItemInput{{SalesOrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateMissingOrderPropagatesNotFound(t *testing.T) {
	svc := newTestService(newStubShipmentRepo(), &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.Create(context.Background(), CreateInput{
		SalesOrderID: uuid.New(),
		CreatedBy:    uuid.New(),
		Items:        []CreateItemInput{{SalesOrderItemID: uuid.New(), Quantity: 1}},
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateRejectsForeignAndOversizedItems(t *testing.T) {
	order := approvedOrder()
	svc := newTestService(newStubShipmentRepo(), &stubOrderGateway{order: order}, &stubInventoryGateway{})

	_, err := svc.Create(context.Background(), CreateInput{
		SalesOrderID: order.ID,
		CreatedBy:    uuid.New(),
		Items:        []CreateItemInput{{SalesOrderItemID: uuid.New(), Quantity: 1}},
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(context.Background(), CreateInput{
		SalesOrderID: order.ID,
		CreatedBy:    uuid.New(),
		Items:        []CreateItemInput{{SalesOrderItemID: order.Items[0].ID, Quantity: 51}},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestAllocateStockHappyPathRunsSaga(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	inventoryID := uuid.New()
	locationID := uuid.New()
	batch := "LOT-9"
	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		inventoryID: {ID: inventoryID, Status: enums.InventoryStatusAvailable, Quantity: 100, LocationID: &locationID, BatchNumber: &batch},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	updated, err := svc.AllocateStock(context.Background(), item.ID, inventoryID, 20)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if updated.Status != enums.ShipmentItemStatusAllocated {
		t.Fatalf("expected allocated, got %s", updated.Status)
	}
	if updated.ReservationState != enums.ReservationStateReserved {
		t.Fatalf("expected reserved intent, got %s", updated.ReservationState)
	}
	if updated.InventoryItemID == nil || *updated.InventoryItemID != inventoryID {
		t.Fatalf("inventory id not recorded")
	}
	if updated.Location == nil || *updated.Location != locationID.String() {
		t.Fatalf("location not resolved")
	}
	if updated.BatchNumber == nil || *updated.BatchNumber != "LOT-9" {
		t.Fatalf("batch not resolved")
	}
	if len(inventory.statusSets) != 1 || inventory.statusSets[0] != enums.InventoryStatusReserved {
		t.Fatalf("remote reservation not issued")
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusAllocated {
		t.Fatalf("shipment not aggregated to allocated, is %s", repo.shipments[shipment.ID].Status)
	}
}

func TestAllocateStockDuplicateReportsConflict(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusAllocated, enums.ShipmentItemStatusAllocated, 20)
	inventoryID := uuid.New()
	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		inventoryID: {ID: inventoryID, Status: enums.InventoryStatusReserved, Quantity: 100},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	// A second allocate sees the reserved inventory before the shipment
	// status gate, so the caller gets CONFLICT rather than STATE_CONFLICT.
	_, err := svc.AllocateStock(context.Background(), item.ID, inventoryID, 20)
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestAllocateStockInsufficientStock(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	inventoryID := uuid.New()
	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		inventoryID: {ID: inventoryID, Status: enums.InventoryStatusAvailable, Quantity: 5},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	_, err := svc.AllocateStock(context.Background(), item.ID, inventoryID, 20)
	expectCode(t, err, pkgerrors.CodeInsufficientStock)
	appErr := pkgerrors.As(err)
	details, ok := appErr.Details().(map[string]int)
	if !ok || details["available"] != 5 || details["requested"] != 20 {
		t.Fatalf("expected stock bounds in details, got %v", appErr.Details())
	}
	if repo.items[item.ID].Status != enums.ShipmentItemStatusPending {
		t.Fatalf("item must stay pending")
	}
}

func TestAllocateStockMissingItem(t *testing.T) {
	svc := newTestService(newStubShipmentRepo(), &stubOrderGateway{}, &stubInventoryGateway{})
	_, err := svc.AllocateStock(context.Background(), uuid.New(), uuid.New(), 1)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestAllocateStockRemoteFailureRevertsIntent(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	inventoryID := uuid.New()
	inventory := &stubInventoryGateway{
		items: map[uuid.UUID]*inventoryapi.Item{
			inventoryID: {ID: inventoryID, Status: enums.InventoryStatusAvailable, Quantity: 100},
		},
		updateErr: pkgerrors.New(pkgerrors.CodeDependency, "inventory timeout"),
	}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	_, err := svc.AllocateStock(context.Background(), item.ID, inventoryID, 20)
	expectCode(t, err, pkgerrors.CodeDependency)

	stored := repo.items[item.ID]
	if stored.Status != enums.ShipmentItemStatusPending {
		t.Fatalf("item must stay pending, is %s", stored.Status)
	}
	if stored.ReservationState != enums.ReservationStateNone {
		t.Fatalf("intent must be reverted, is %s", stored.ReservationState)
	}
	if stored.InventoryItemID != nil || stored.ReservedQuantity != 0 {
		t.Fatalf("intent fields must be cleared")
	}
}

func TestAllocateStockRejectsClosedShipment(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusShipped, enums.ShipmentItemStatusPending, 20)
	inventoryID := uuid.New()
	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		inventoryID: {ID: inventoryID, Status: enums.InventoryStatusAvailable, Quantity: 100},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	_, err := svc.AllocateStock(context.Background(), item.ID, inventoryID, 20)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPickItemFullQuantityPromotes(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusAllocated, enums.ShipmentItemStatusAllocated, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	updated, err := svc.PickItem(context.Background(), item.ID, 20, uuid.New())
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if updated.Status != enums.ShipmentItemStatusPicked || updated.PickedQuantity != 20 {
		t.Fatalf("item not promoted: %s qty %d", updated.Status, updated.PickedQuantity)
	}
	if updated.PickedBy == nil || updated.PickedAt == nil {
		t.Fatalf("picker not recorded")
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusPicked {
		t.Fatalf("shipment not aggregated to picked")
	}
}

func TestPickItemPartialKeepsAllocated(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusAllocated, enums.ShipmentItemStatusAllocated, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	updated, err := svc.PickItem(context.Background(), item.ID, 10, uuid.New())
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if updated.Status != enums.ShipmentItemStatusAllocated || updated.PickedQuantity != 10 {
		t.Fatalf("partial pick must not promote")
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusAllocated {
		t.Fatalf("shipment must not advance on partial pick")
	}
}

func TestPickItemBounds(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusAllocated, enums.ShipmentItemStatusAllocated, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.PickItem(context.Background(), item.ID, 21, uuid.New())
	expectCode(t, err, pkgerrors.CodeValidation)
	appErr := pkgerrors.As(err)
	details, ok := appErr.Details().(map[string]int)
	if !ok || details["max"] != 20 {
		t.Fatalf("expected bounds in details, got %v", appErr.Details())
	}

	_, err = svc.PickItem(context.Background(), item.ID, 0, uuid.New())
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestPickItemGateRequiresAllocated(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.PickItem(context.Background(), item.ID, 20, uuid.New())
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPackItemBoundedByPickedQuantity(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPicked, enums.ShipmentItemStatusPicked, 20)
	repo.items[item.ID].PickedQuantity = 15
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.PackItem(context.Background(), item.ID, 16, uuid.New())
	expectCode(t, err, pkgerrors.CodeValidation)

	updated, err := svc.PackItem(context.Background(), item.ID, 15, uuid.New())
	if err != nil {
		t.Fatalf("pack failed: %v", err)
	}
	if updated.Status != enums.ShipmentItemStatusPacked || updated.PackedQuantity != 15 {
		t.Fatalf("item not promoted on exact pack")
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusPacked {
		t.Fatalf("shipment not aggregated to packed")
	}
}

func TestShipOrderHappyPath(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPacked, enums.ShipmentItemStatusPacked, 20)
	gateway := &stubOrderGateway{}
	svc := newTestService(repo, gateway, &stubInventoryGateway{})

	tracking := "1Z999AA10123456784"
	shipped, err := svc.ShipOrder(context.Background(), shipment.ID, ShipInput{TrackingNumber: &tracking})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != enums.ShipmentStatusShipped || shipped.ShipDate == nil {
		t.Fatalf("shipment not marked shipped")
	}
	if shipped.TrackingNumber == nil || *shipped.TrackingNumber != tracking {
		t.Fatalf("tracking not recorded")
	}
	if repo.items[item.ID].Status != enums.ShipmentItemStatusShipped {
		t.Fatalf("items not forced to shipped")
	}
	if len(gateway.updatedStatuses) != 1 || gateway.updatedStatuses[0] != enums.SalesOrderStatusShipped {
		t.Fatalf("order echo not issued")
	}
}

func TestShipOrderEchoFailureStillSucceeds(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusPacked, enums.ShipmentItemStatusPacked, 20)
	gateway := &stubOrderGateway{updateErr: pkgerrors.New(pkgerrors.CodeDependency, "order service down")}
	svc := newTestService(repo, gateway, &stubInventoryGateway{})

	shipped, err := svc.ShipOrder(context.Background(), shipment.ID, ShipInput{})
	if err != nil {
		t.Fatalf("ship must succeed despite echo failure: %v", err)
	}
	if shipped.Status != enums.ShipmentStatusShipped {
		t.Fatalf("shipment not shipped")
	}
}

func TestShipOrderRejectsUnpackedItems(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPicked, enums.ShipmentItemStatusPicked, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.ShipOrder(context.Background(), shipment.ID, ShipInput{})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusPicked {
		t.Fatalf("shipment must be unchanged")
	}
	if repo.items[item.ID].Status != enums.ShipmentItemStatusPicked {
		t.Fatalf("items must be unchanged")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	cancelled, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("not cancelled")
	}

	again, err := svc.Cancel(context.Background(), shipment.ID)
	if err != nil {
		t.Fatalf("second cancel must be a no-op success: %v", err)
	}
	if again.Status != enums.ShipmentStatusCancelled {
		t.Fatalf("status changed on repeat cancel")
	}
}

func TestCancelRejectedAfterShip(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusShipped, enums.ShipmentItemStatusShipped, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_, err := svc.Cancel(context.Background(), shipment.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDeleteOnlyEarlyLifecycle(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	if err := svc.Delete(context.Background(), shipment.ID); err != nil {
		t.Fatalf("delete pending failed: %v", err)
	}

	allocated, _ := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusAllocated, 20)
	err := svc.Delete(context.Background(), allocated.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateCarrierScanMovesToInTransit(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusShipped, enums.ShipmentItemStatusShipped, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	status := enums.ShipmentStatusInTransit
	updated, err := svc.Update(context.Background(), shipment.ID, UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("expected in_transit, got %s", updated.Status)
	}
}

func TestUpdateRejectsArbitraryStatusMove(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, _ := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	status := enums.ShipmentStatusDelivered
	_, err := svc.Update(context.Background(), shipment.ID, UpdateInput{Status: &status})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAggregationNeverDemotes(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPicked, enums.ShipmentItemStatusAllocated, 20)
	// A second item still allocated should not pull a picked shipment back.
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	_ = item
	if err := svc.aggregateStatus(context.Background(), repo, shipment.ID); err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusPicked {
		t.Fatalf("aggregation demoted the shipment")
	}
}

func TestReconcileFinalizesConfirmedReservation(t *testing.T) {
	repo := newStubShipmentRepo()
	shipment, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	invID := uuid.New()
	location := uuid.New()
	batch := "LOT-77"
	requestedAt := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	item.ReservationState = enums.ReservationStateReserving
	item.InventoryItemID = &invID
	item.ReservedQuantity = 20
	item.ReservationRequestedAt = &requestedAt

	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		invID: {ID: invID, Status: enums.InventoryStatusReserved, Quantity: 20, LocationID: &location, BatchNumber: &batch},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	outcome, err := svc.ReconcileReservation(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if outcome != ReconcileFinalized {
		t.Fatalf("expected finalized, got %s", outcome)
	}
	got := repo.items[item.ID]
	if got.Status != enums.ShipmentItemStatusAllocated {
		t.Fatalf("expected allocated item, got %s", got.Status)
	}
	if got.ReservationState != enums.ReservationStateReserved {
		t.Fatalf("expected reserved state, got %s", got.ReservationState)
	}
	if repo.shipments[shipment.ID].Status != enums.ShipmentStatusAllocated {
		t.Fatalf("expected shipment re-aggregated to allocated, got %s", repo.shipments[shipment.ID].Status)
	}
}

func TestReconcileReleasesUnconfirmedReservation(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	invID := uuid.New()
	requestedAt := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	item.ReservationState = enums.ReservationStateReserving
	item.InventoryItemID = &invID
	item.ReservedQuantity = 20
	item.ReservationRequestedAt = &requestedAt

	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		invID: {ID: invID, Status: enums.InventoryStatusAvailable, Quantity: 20},
	}}
	svc := newTestService(repo, &stubOrderGateway{}, inventory)

	outcome, err := svc.ReconcileReservation(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if outcome != ReconcileReleased {
		t.Fatalf("expected released, got %s", outcome)
	}
	got := repo.items[item.ID]
	if got.ReservationState != enums.ReservationStateNone {
		t.Fatalf("expected cleared intent, got %s", got.ReservationState)
	}
	if got.InventoryItemID != nil {
		t.Fatalf("expected inventory reference cleared")
	}
	if got.Status != enums.ShipmentItemStatusPending {
		t.Fatalf("release must not change item status, got %s", got.Status)
	}
}

func TestReconcileReleasesWhenInventoryVanished(t *testing.T) {
	repo := newStubShipmentRepo()
	_, item := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	invID := uuid.New()
	item.ReservationState = enums.ReservationStateReserving
	item.InventoryItemID = &invID

	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	outcome, err := svc.ReconcileReservation(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if outcome != ReconcileReleased {
		t.Fatalf("expected released, got %s", outcome)
	}
}

func TestReconcileSkipsResolvedAndQuarantinedItems(t *testing.T) {
	repo := newStubShipmentRepo()
	_, resolved := seedShipment(repo, enums.ShipmentStatusAllocated, enums.ShipmentItemStatusAllocated, 20)
	resolved.ReservationState = enums.ReservationStateReserved
	svc := newTestService(repo, &stubOrderGateway{}, &stubInventoryGateway{})

	outcome, err := svc.ReconcileReservation(context.Background(), resolved.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if outcome != ReconcileSkipped {
		t.Fatalf("expected skipped, got %s", outcome)
	}

	_, stuck := seedShipment(repo, enums.ShipmentStatusPending, enums.ShipmentItemStatusPending, 20)
	invID := uuid.New()
	stuck.ReservationState = enums.ReservationStateReserving
	stuck.InventoryItemID = &invID
	inventory := &stubInventoryGateway{items: map[uuid.UUID]*inventoryapi.Item{
		invID: {ID: invID, Status: enums.InventoryStatusQuarantine, Quantity: 20},
	}}
	svc = newTestService(repo, &stubOrderGateway{}, inventory)

	outcome, err = svc.ReconcileReservation(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if outcome != ReconcileSkipped {
		t.Fatalf("expected skipped, got %s", outcome)
	}
	if stuck.ReservationState != enums.ReservationStateReserving {
		t.Fatalf("skip must not mutate the item")
	}
}
