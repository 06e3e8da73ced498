package pods

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
	"github.com/dmrozas/pharmaflow-backend/pkg/sequence"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the proof-of-delivery operations. Completing a POD is the
// only path that marks a shipment delivered.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ProofOfDelivery, error)
	Complete(ctx context.Context, podID, completedBy uuid.UUID) (*models.ProofOfDelivery, error)
	Reject(ctx context.Context, podID uuid.UUID, reason string) (*models.ProofOfDelivery, error)
	GetByID(ctx context.Context, podID uuid.UUID) (*models.ProofOfDelivery, error)
	GetByShipment(ctx context.Context, shipmentID uuid.UUID) (*models.ProofOfDelivery, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
}

type service struct {
	repo       Repository
	shipments  shipments.Repository
	tx         txRunner
	now        func() time.Time
	nextNumber func(ctx context.Context, tx *gorm.DB, entity string, at time.Time) (string, error)
}

// NewService builds a POD service with the required dependencies.
func NewService(repo Repository, shipmentRepo shipments.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pod repository required")
	}
	if shipmentRepo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		shipments:  shipmentRepo,
		tx:         tx,
		now:        time.Now,
		nextNumber: sequence.NextNumber,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ProofOfDelivery, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.DeliveredBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivered_by required")
	}
	if input.ReceivedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "received_by required")
	}

	var created *models.ProofOfDelivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipmentRepo := s.shipments.WithTx(tx)
		shipment, err := shipmentRepo.FindByID(ctx, input.ShipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment")
		}
		if shipment.Status != enums.ShipmentStatusShipped && shipment.Status != enums.ShipmentStatusInTransit {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("proof of delivery requires a shipped shipment, is %s", shipment.Status))
		}

		number, err := s.nextNumber(ctx, tx, sequence.EntityPOD, s.now())
		if err != nil {
			return err
		}
		deliveryDate := s.now().UTC()
		if input.DeliveryDate != nil {
			deliveryDate = *input.DeliveryDate
		}
		pod := &models.ProofOfDelivery{
			PODNumber:      number,
			ShipmentID:     shipment.ID,
			DeliveryDate:   deliveryDate,
			DeliveredBy:    input.DeliveredBy,
			ReceivedBy:     input.ReceivedBy,
			SignatureURL:   input.SignatureURL,
			ConditionNotes: input.ConditionNotes,
			Status:         enums.PODStatusPending,
		}
		created, err = s.repo.WithTx(tx).Create(ctx, pod)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist proof of delivery")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Complete(ctx context.Context, podID, completedBy uuid.UUID) (*models.ProofOfDelivery, error) {
	if podID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pod id required")
	}
	if completedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "completer id required")
	}

	var completed *models.ProofOfDelivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pod, err := repo.FindByID(ctx, podID)
		if err != nil {
			return mapPODFindErr(err)
		}
		if pod.Status != enums.PODStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("only pending proofs can be completed, is %s", pod.Status))
		}

		shipmentRepo := s.shipments.WithTx(tx)
		shipment, err := shipmentRepo.LockByID(ctx, pod.ShipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock shipment")
		}
		if shipment.Status != enums.ShipmentStatusShipped && shipment.Status != enums.ShipmentStatusInTransit {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("shipment is %s and cannot be delivered", shipment.Status))
		}

		if err := repo.Update(ctx, pod.ID, map[string]any{
			"status":       enums.PODStatusCompleted,
			"completed_by": completedBy,
			"completed_at": s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete proof of delivery")
		}
		if err := shipmentRepo.Update(ctx, shipment.ID, map[string]any{
			"status":               enums.ShipmentStatusDelivered,
			"actual_delivery_date": pod.DeliveryDate,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark shipment delivered")
		}
		completed, err = repo.FindByID(ctx, pod.ID)
		if err != nil {
			return mapPODFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *service) Reject(ctx context.Context, podID uuid.UUID, reason string) (*models.ProofOfDelivery, error) {
	if podID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pod id required")
	}
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reject reason required")
	}

	var rejected *models.ProofOfDelivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pod, err := repo.FindByID(ctx, podID)
		if err != nil {
			return mapPODFindErr(err)
		}
		if pod.Status != enums.PODStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending proofs can be rejected")
		}
		if err := repo.Update(ctx, pod.ID, map[string]any{
			"status":        enums.PODStatusRejected,
			"reject_reason": reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject proof of delivery")
		}
		rejected, err = repo.FindByID(ctx, pod.ID)
		if err != nil {
			return mapPODFindErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *service) GetByID(ctx context.Context, podID uuid.UUID) (*models.ProofOfDelivery, error) {
	if podID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pod id required")
	}
	pod, err := s.repo.FindByID(ctx, podID)
	if err != nil {
		return nil, mapPODFindErr(err)
	}
	return pod, nil
}

func (s *service) GetByShipment(ctx context.Context, shipmentID uuid.UUID) (*models.ProofOfDelivery, error) {
	if shipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	pod, err := s.repo.FindByShipment(ctx, shipmentID)
	if err != nil {
		return nil, mapPODFindErr(err)
	}
	return pod, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	params = pagination.Normalize(params)
	pods, total, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list proofs of delivery")
	}
	return &List{PODs: pods, Meta: pagination.MetaFor(params, total)}, nil
}

func mapPODFindErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "proof of delivery not found")
	}
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load proof of delivery")
}
