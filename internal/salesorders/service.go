package salesorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the sales order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.SalesOrder, error)
	Submit(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	Approve(ctx context.Context, id, approvedBy uuid.UUID) (*models.SalesOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) (*models.SalesOrder, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	now        func() time.Time
	nextNumber func(ctx context.Context, tx *gorm.DB, entity string, at time.Time) (string, error)
}

// NewService builds a sales order service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		now:        time.Now,
		nextNumber: sequence.NextNumber,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.SalesOrder, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.SiteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "site id required")
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
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	if input.ShippingAddress != nil {
		if !input.ShippingAddress.Validate() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address")
		}
	}
	if input.BillingAddress != nil {
		if !input.BillingAddress.Validate() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing address")
		}
	}

	total := decimal.Zero
	items := make([]models.SalesOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.DrugID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "drug id required on every item")
		}
		if item.DrugName == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "drug name required on every item")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item unit price cannot be negative")
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, models.SalesOrderItem{
			DrugID:    item.DrugID,
			DrugName:  item.DrugName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Status:    enums.SalesOrderItemStatusPending,
		})
	}

	var created *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextNumber(ctx, tx, sequence.EntitySalesOrder, s.now())
		if err != nil {
			return err
		}
		order := &models.SalesOrder{
			OrderNumber:       number,
			AccountID:         input.AccountID,
			SiteID:            input.SiteID,
			Status:            enums.SalesOrderStatusDraft,
			Priority:          priority,
			TotalAmount:       total,
			Currency:          currency,
			RequestedShipDate: input.RequestedShipDate,
			ShippingAddress:   input.ShippingAddress,
			BillingAddress:    input.BillingAddress,
			Notes:             input.Notes,
			CreatedBy:         input.CreatedBy,
			Items:             items,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist sales order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Submit(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error) {
	return s.transition(ctx, id, func(order *models.SalesOrder) (map[string]any, error) {
		if order.Status != enums.SalesOrderStatusDraft {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft orders can be submitted")
		}
		return map[string]any{"status": enums.SalesOrderStatusPendingApproval}, nil
	})
}

func (s *service) Approve(ctx context.Context, id, approvedBy uuid.UUID) (*models.SalesOrder, error) {
	if approvedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver id required")
	}
	return s.transition(ctx, id, func(order *models.SalesOrder) (map[string]any, error) {
		if order.Status != enums.SalesOrderStatusDraft && order.Status != enums.SalesOrderStatusPendingApproval {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be approved in current state")
		}
		return map[string]any{
			"status":      enums.SalesOrderStatusApproved,
			"approved_by": approvedBy,
			"approved_at": s.now().UTC(),
		}, nil
	})
}

// UpdateStatus applies a whitelisted status move. A target further along the
// fulfillment chain is reached by stepping through every intermediate edge
// inside the same transaction; each step is a legal single transition.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.SalesOrderStatus) (*models.SalesOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sales order status")
	}

	var updated *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err)
		}
		if order.Status == status {
			updated = order
			return nil
		}

		var steps []enums.SalesOrderStatus
		switch {
		case order.Status.CanTransition(status):
			steps = []enums.SalesOrderStatus{status}
		default:
			path, ok := enums.FulfillmentPath(order.Status, status)
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
			}
			steps = path
		}

		for _, step := range steps {
			if err := repo.UpdateStatus(ctx, order.ID, step); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
			}
		}
		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error) {
	return s.transition(ctx, id, func(order *models.SalesOrder) (map[string]any, error) {
		switch order.Status {
		case enums.SalesOrderStatusCancelled:
			return nil, nil
		case enums.SalesOrderStatusShipped, enums.SalesOrderStatusDelivered, enums.SalesOrderStatusReturned:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped and cannot be cancelled")
		}
		return map[string]any{
			"status":       enums.SalesOrderStatusCancelled,
			"cancelled_at": s.now().UTC(),
		}, nil
	})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err)
		}
		if order.Status != enums.SalesOrderStatusDraft && order.Status != enums.SalesOrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or cancelled orders can be deleted")
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete sales order")
		}
		return nil
	})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.SalesOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	params = pagination.Normalize(params)
	orders, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales orders")
	}
	return &List{Orders: orders, Meta: pagination.MetaFor(params, total)}, nil
}

// transition loads the order, asks decide for the updates and applies them in
// one transaction. A nil update map with nil error is a no-op success.
func (s *service) transition(ctx context.Context, id uuid.UUID, decide func(*models.SalesOrder) (map[string]any, error)) (*models.SalesOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	var updated *models.SalesOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err)
		}
		updates, err := decide(order)
		if err != nil {
			return err
		}
		if updates == nil {
			updated = order
			return nil
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update sales order")
		}
		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return mapFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func mapFindErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sales order not found")
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sales order")
}
