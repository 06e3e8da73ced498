package shipments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/salesorderapi"
	"github.com/dmrozas/pharmaflow-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the shipment orchestration operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Shipment, error)
	AllocateStock(ctx context.Context, shipmentItemID, inventoryID uuid.UUID, quantity int) (*models.ShipmentItem, error)
	PickItem(ctx context.Context, shipmentItemID uuid.UUID, quantity int, pickedBy uuid.UUID) (*models.ShipmentItem, error)
	PackItem(ctx context.Context, shipmentItemID uuid.UUID, quantity int, packedBy uuid.UUID) (*models.ShipmentItem, error)
	ShipOrder(ctx context.Context, shipmentID uuid.UUID, input ShipInput) (*models.Shipment, error)
	Cancel(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	Delete(ctx context.Context, shipmentID uuid.UUID) error
	Update(ctx context.Context, shipmentID uuid.UUID, input UpdateInput) (*models.Shipment, error)
	GetByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	GetBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) ([]models.Shipment, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	ReconcileReservation(ctx context.Context, shipmentItemID uuid.UUID) (ReconcileOutcome, error)
}

// ReconcileOutcome reports how a stale reservation intent was resolved.
type ReconcileOutcome string

const (
	// ReconcileFinalized means the remote store had the stock reserved and
	// the allocation was completed.
	ReconcileFinalized ReconcileOutcome = "finalized"
	// ReconcileReleased means the intent was cleared because the remote
	// reservation never landed.
	ReconcileReleased ReconcileOutcome = "released"
	// ReconcileSkipped means the item no longer needs reconciling.
	ReconcileSkipped ReconcileOutcome = "skipped"
)

type service struct {
	repo       Repository
	tx         txRunner
	orders     SalesOrderGateway
	inventory  InventoryGateway
	logg       *logger.Logger
	now        func() time.Time
	nextNumber func(ctx context.Context, tx *gorm.DB, entity string, at time.Time) (string, error)
}

// NewService builds a shipment service with the required dependencies.
func NewService(repo Repository, tx txRunner, orders SalesOrderGateway, inventory InventoryGateway, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("sales order gateway required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		orders:     orders,
		inventory:  inventory,
		logg:       logg,
		now:        time.Now,
		nextNumber: sequence.NextNumber,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Shipment, error) {
	if input.SalesOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order id required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.PriorityStandard
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	if input.ShippingAddress != nil {
		if !input.ShippingAddress.Validate() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address")
		}
	}

	order, err := s.orders.GetByID(ctx, input.SalesOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.SalesOrderStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("sales order must be approved to ship, is %s", order.Status))
	}

	orderItems := make(map[uuid.UUID]salesorderapi.SalesOrderItem, len(order.Items))
	for _, item := range order.Items {
		orderItems[item.ID] = item
	}

	items := make([]models.ShipmentItem, 0, len(input.Items))
	for _, item := range input.Items {
		ordered, ok := orderItems[item.SalesOrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to the sales order")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Quantity > ordered.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("requested quantity %d exceeds ordered quantity %d", item.Quantity, ordered.Quantity))
		}
		items = append(items, models.ShipmentItem{
			SalesOrderItemID: item.SalesOrderItemID,
			DrugID:           ordered.DrugID,
			DrugName:         ordered.DrugName,
			Quantity:         item.Quantity,
			Status:           enums.ShipmentItemStatusPending,
			ReservationState: enums.ReservationStateNone,
		})
	}

	var created *models.Shipment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextNumber(ctx, tx, sequence.EntityShipment, s.now())
		if err != nil {
			return err
		}
		shipment := &models.Shipment{
			ShipmentNumber:       number,
			SalesOrderID:         order.ID,
			SalesOrderNumber:     order.OrderNumber,
			AccountID:            order.AccountID,
			SiteID:               order.SiteID,
			Status:               enums.ShipmentStatusPending,
			Priority:             priority,
			ExpectedDeliveryDate: input.ExpectedDeliveryDate,
			Carrier:              input.Carrier,
			ServiceType:          input.ServiceType,
			ShippingAddress:      input.ShippingAddress,
			RequiresColdChain:    input.RequiresColdChain,
			TemperatureRange:     input.TemperatureRange,
			CreatedBy:            input.CreatedBy,
			Items:                items,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, shipment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist shipment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AllocateStock reserves inventory for one shipment item. The reservation is
// a saga: the intent is persisted before the remote call and finalized after
// the inventory store confirms, so a crash in between leaves a "reserving"
// marker the reconciler can resolve.
func (s *service) AllocateStock(ctx context.Context, shipmentItemID, inventoryID uuid.UUID, quantity int) (*models.ShipmentItem, error) {
	if shipmentItemID == uuid.Nil || inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment item id and inventory id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.repo.FindItemByID(ctx, shipmentItemID)
	if err != nil {
		return nil, mapItemFindErr(err)
	}
	shipment, err := s.repo.FindByID(ctx, item.ShipmentID)
	if err != nil {
		return nil, mapShipmentFindErr(err)
	}

	stock, err := s.inventory.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if stock.Status != enums.InventoryStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("inventory item is %s, not available", stock.Status))
	}
	if stock.Quantity < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for allocation").
			WithDetails(map[string]int{"available": stock.Quantity, "requested": quantity})
	}
	if shipment.Status != enums.ShipmentStatusDraft && shipment.Status != enums.ShipmentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot allocate against a %s shipment", shipment.Status))
	}
	if item.Status != enums.ShipmentItemStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "shipment item already allocated")
	}
	if quantity > item.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cannot reserve %d for an item of %d", quantity, item.Quantity))
	}

	// Step 1: persist the reservation intent before touching the remote store.
	intent := map[string]any{
		"reservation_state":        enums.ReservationStateReserving,
		"inventory_item_id":        inventoryID,
		"reserved_quantity":        quantity,
		"reservation_requested_at": s.now().UTC(),
	}
	if err := s.repo.UpdateItem(ctx, item.ID, intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist reservation intent")
	}

	// Step 2: reserve remotely. Inventory is the critical path, so a failure
	// aborts the allocation and reverts the intent.
	if err := s.inventory.UpdateStatus(ctx, inventoryID, enums.InventoryStatusReserved); err != nil {
		revert := map[string]any{
			"reservation_state":        enums.ReservationStateNone,
			"inventory_item_id":        nil,
			"reserved_quantity":        0,
			"reservation_requested_at": nil,
		}
		if revertErr := s.repo.UpdateItem(ctx, item.ID, revert); revertErr != nil {
			itemCtx := s.logg.WithShipmentItemID(ctx, item.ID.String())
			s.logg.Error(itemCtx, "failed to revert reservation intent, reconciler will resolve", revertErr)
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve inventory")
	}

	// Steps 3 and 4: finalize the item and re-aggregate under the row lock.
	var updated *models.ShipmentItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		finalize := map[string]any{
			"status":            enums.ShipmentItemStatusAllocated,
			"reservation_state": enums.ReservationStateReserved,
		}
		if stock.LocationID != nil {
			finalize["location"] = stock.LocationID.String()
		}
		if stock.BatchNumber != nil {
			finalize["batch_number"] = *stock.BatchNumber
		}
		if err := repo.UpdateItem(ctx, item.ID, finalize); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize allocation")
		}
		if err := s.aggregateStatus(ctx, repo, item.ShipmentID); err != nil {
			return err
		}
		var err error
		updated, err = repo.FindItemByID(ctx, item.ID)
		if err != nil {
			return mapItemFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) PickItem(ctx context.Context, shipmentItemID uuid.UUID, quantity int, pickedBy uuid.UUID) (*models.ShipmentItem, error) {
	if pickedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "picker id required")
	}
	return s.itemStep(ctx, shipmentItemID, func(item *models.ShipmentItem) (map[string]any, error) {
		if item.Status != enums.ShipmentItemStatusAllocated {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item must be allocated before picking")
		}
		if quantity <= 0 || quantity > item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "picked quantity out of bounds").
				WithDetails(map[string]int{"min": 1, "max": item.Quantity, "requested": quantity})
		}
		updates := map[string]any{
			"picked_quantity": quantity,
			"picked_by":       pickedBy,
			"picked_at":       s.now().UTC(),
		}
		if quantity == item.Quantity {
			updates["status"] = enums.ShipmentItemStatusPicked
		}
		return updates, nil
	})
}

func (s *service) PackItem(ctx context.Context, shipmentItemID uuid.UUID, quantity int, packedBy uuid.UUID) (*models.ShipmentItem, error) {
	if packedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "packer id required")
	}
	return s.itemStep(ctx, shipmentItemID, func(item *models.ShipmentItem) (map[string]any, error) {
		if item.Status != enums.ShipmentItemStatusPicked {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item must be picked before packing")
		}
		if quantity <= 0 || quantity > item.PickedQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "packed quantity out of bounds").
				WithDetails(map[string]int{"min": 1, "max": item.PickedQuantity, "requested": quantity})
		}
		updates := map[string]any{
			"packed_quantity": quantity,
			"packed_by":       packedBy,
			"packed_at":       s.now().UTC(),
		}
		if quantity == item.PickedQuantity {
			updates["status"] = enums.ShipmentItemStatusPacked
		}
		return updates, nil
	})
}

// itemStep runs a pick/pack style mutation and re-aggregates the parent
// shipment in the same transaction.
func (s *service) itemStep(ctx context.Context, shipmentItemID uuid.UUID, decide func(*models.ShipmentItem) (map[string]any, error)) (*models.ShipmentItem, error) {
	if shipmentItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment item id required")
	}
	var updated *models.ShipmentItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItemByID(ctx, shipmentItemID)
		if err != nil {
			return mapItemFindErr(err)
		}
		updates, err := decide(item)
		if err != nil {
			return err
		}
		if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shipment item")
		}
		if err := s.aggregateStatus(ctx, repo, item.ShipmentID); err != nil {
			return err
		}
		updated, err = repo.FindItemByID(ctx, item.ID)
		if err != nil {
			return mapItemFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ShipOrder(ctx context.Context, shipmentID uuid.UUID, input ShipInput) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var shipped *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.LockByID(ctx, shipmentID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		switch shipment.Status {
		case enums.ShipmentStatusShipped, enums.ShipmentStatusInTransit, enums.ShipmentStatusDelivered:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment already shipped")
		case enums.ShipmentStatusCancelled, enums.ShipmentStatusReturned:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment is closed")
		}

		items, err := repo.FindItemsByShipment(ctx, shipment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment has no items")
		}
		for _, item := range items {
			if item.Status != enums.ShipmentItemStatusPacked {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("all items must be packed to ship, item %s is %s", item.ID, item.Status))
			}
		}

		updates := map[string]any{
			"status":    enums.ShipmentStatusShipped,
			"ship_date": s.now().UTC(),
		}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
		}
		if input.Carrier != nil {
			updates["carrier"] = *input.Carrier
		}
		if input.ServiceType != nil {
			updates["service_type"] = *input.ServiceType
		}
		if err := repo.Update(ctx, shipment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark shipment shipped")
		}
		if err := repo.UpdateItemsStatus(ctx, shipment.ID, enums.ShipmentItemStatusShipped); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark items shipped")
		}
		shipped, err = repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Echo progress onto the sales order. The order service is not on the
	// critical path; the shipment stays shipped even if the echo fails.
	if err := s.orders.UpdateStatus(ctx, shipped.SalesOrderID, enums.SalesOrderStatusShipped); err != nil {
		orderCtx := s.logg.WithSalesOrderID(s.logg.WithShipmentID(ctx, shipped.ID.String()), shipped.SalesOrderID.String())
		s.logg.Warn(orderCtx, "failed to echo shipped status to sales order: "+err.Error())
	}
	return shipped, nil
}

func (s *service) Cancel(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	var cancelled *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.LockByID(ctx, shipmentID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		switch shipment.Status {
		case enums.ShipmentStatusCancelled:
			cancelled = shipment
			return nil
		case enums.ShipmentStatusShipped, enums.ShipmentStatusInTransit, enums.ShipmentStatusDelivered:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipped shipments cannot be cancelled")
		}
		updates := map[string]any{
			"status":       enums.ShipmentStatusCancelled,
			"cancelled_at": s.now().UTC(),
		}
		if err := repo.Update(ctx, shipment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel shipment")
		}
		cancelled, err = repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) Delete(ctx context.Context, shipmentID uuid.UUID) error {
	if shipmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		if shipment.Status != enums.ShipmentStatusDraft && shipment.Status != enums.ShipmentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or pending shipments can be deleted")
		}
		for _, item := range shipment.Items {
			if item.Status != enums.ShipmentItemStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "shipments with allocated items cannot be deleted")
			}
		}
		if err := repo.Delete(ctx, shipment.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete shipment")
		}
		return nil
	})
}

func (s *service) Update(ctx context.Context, shipmentID uuid.UUID, input UpdateInput) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	if input.ShippingAddress != nil {
		if !input.ShippingAddress.Validate() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address")
		}
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.LockByID(ctx, shipmentID)
		if err != nil {
			return mapShipmentFindErr(err)
		}

		updates := map[string]any{}
		if input.Priority != nil {
			updates["priority"] = *input.Priority
		}
		if input.ShipDate != nil {
			updates["ship_date"] = *input.ShipDate
		}
		if input.ExpectedDeliveryDate != nil {
			updates["expected_delivery_date"] = *input.ExpectedDeliveryDate
		}
		if input.Carrier != nil {
			updates["carrier"] = *input.Carrier
		}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
		}
		if input.ServiceType != nil {
			updates["service_type"] = *input.ServiceType
		}
		if input.ShippingAddress != nil {
			updates["shipping_address"] = input.ShippingAddress
		}
		if input.TemperatureRange != nil {
			updates["temperature_range"] = *input.TemperatureRange
		}
		if input.Status != nil {
			// The only status move allowed here is the carrier scan.
			if *input.Status != enums.ShipmentStatusInTransit || shipment.Status != enums.ShipmentStatusShipped {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot move shipment from %s to %s here", shipment.Status, *input.Status))
			}
			updates["status"] = enums.ShipmentStatusInTransit
		}
		if len(updates) == 0 {
			updated = shipment
			return nil
		}
		if err := repo.Update(ctx, shipment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shipment")
		}
		updated, err = repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return mapShipmentFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) GetByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, mapShipmentFindErr(err)
	}
	return shipment, nil
}

func (s *service) GetBySalesOrder(ctx context.Context, salesOrderID uuid.UUID) ([]models.Shipment, error) {
	if salesOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order id required")
	}
	shipments, err := s.repo.FindBySalesOrder(ctx, salesOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipments for order")
	}
	return shipments, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	params = pagination.Normalize(params)
	shipments, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shipments")
	}
	return &List{Shipments: shipments, Meta: pagination.MetaFor(params, total)}, nil
}

// aggregateStatus promotes the shipment to the highest stage every item has
// reached. The caller must run inside a transaction; the row lock taken here
// serializes concurrent aggregations of the same shipment. Statuses never
// demote.
// ReconcileReservation resolves a reservation intent that was persisted but
// never finalized, typically after a crash between the intent write and the
// remote inventory call. The remote store is the source of truth: a reserved
// stock item finalizes the allocation, an available one releases the intent.
func (s *service) ReconcileReservation(ctx context.Context, shipmentItemID uuid.UUID) (ReconcileOutcome, error) {
	if shipmentItemID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipment item id required")
	}
	item, err := s.repo.FindItemByID(ctx, shipmentItemID)
	if err != nil {
		return "", mapItemFindErr(err)
	}
	if item.ReservationState != enums.ReservationStateReserving {
		return ReconcileSkipped, nil
	}

	release := func() (ReconcileOutcome, error) {
		clear := map[string]any{
			"reservation_state":        enums.ReservationStateNone,
			"inventory_item_id":        nil,
			"reserved_quantity":        0,
			"reservation_requested_at": nil,
		}
		if err := s.repo.UpdateItem(ctx, item.ID, clear); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release reservation intent")
		}
		return ReconcileReleased, nil
	}

	if item.InventoryItemID == nil {
		return release()
	}

	stock, err := s.inventory.GetByID(ctx, *item.InventoryItemID)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return release()
		}
		return "", err
	}

	switch stock.Status {
	case enums.InventoryStatusReserved:
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			finalize := map[string]any{
				"status":            enums.ShipmentItemStatusAllocated,
				"reservation_state": enums.ReservationStateReserved,
			}
			if stock.LocationID != nil {
				finalize["location"] = stock.LocationID.String()
			}
			if stock.BatchNumber != nil {
				finalize["batch_number"] = *stock.BatchNumber
			}
			if err := repo.UpdateItem(ctx, item.ID, finalize); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize allocation")
			}
			return s.aggregateStatus(ctx, repo, item.ShipmentID)
		})
		if err != nil {
			return "", err
		}
		return ReconcileFinalized, nil
	case enums.InventoryStatusAvailable:
		return release()
	default:
		// Quarantined or otherwise side-tracked stock needs an operator.
		return ReconcileSkipped, nil
	}
}

func (s *service) aggregateStatus(ctx context.Context, repo Repository, shipmentID uuid.UUID) error {
	shipment, err := repo.LockByID(ctx, shipmentID)
	if err != nil {
		return mapShipmentFindErr(err)
	}
	currentRank := shipment.Status.StageRank()
	if currentRank < 0 || currentRank >= enums.ShipmentStatusShipped.StageRank() {
		return nil
	}

	items, err := repo.FindItemsByShipment(ctx, shipmentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment items")
	}
	if len(items) == 0 {
		return nil
	}

	allAt := func(stage enums.ShipmentItemStatus) bool {
		for _, item := range items {
			if !item.Status.AtLeast(stage) {
				return false
			}
		}
		return true
	}

	var target enums.ShipmentStatus
	switch {
	case allAt(enums.ShipmentItemStatusPacked):
		target = enums.ShipmentStatusPacked
	case allAt(enums.ShipmentItemStatusPicked):
		target = enums.ShipmentStatusPicked
	case allAt(enums.ShipmentItemStatusAllocated):
		target = enums.ShipmentStatusAllocated
	default:
		return nil
	}

	if target.StageRank() <= currentRank {
		return nil
	}
	if err := repo.Update(ctx, shipmentID, map[string]any{"status": target}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate shipment status")
	}
	return nil
}

func mapShipmentFindErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment")
}

func mapItemFindErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipment item not found")
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment item")
}
