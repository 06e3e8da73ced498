package pods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a POD repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pod *models.ProofOfDelivery) (*models.ProofOfDelivery, error) {
	if err := r.db.WithContext(ctx).Create(pod).Error; err != nil {
		return nil, err
	}
	return pod, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProofOfDelivery, error) {
	var pod models.ProofOfDelivery
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pod).Error
	if err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *repository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*models.ProofOfDelivery, error) {
	var pod models.ProofOfDelivery
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at DESC").
		First(&pod).Error
	if err != nil {
		return nil, err
	}
	return &pod, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.ProofOfDelivery, int64, error) {
	params = pagination.Normalize(params)

	query := r.db.WithContext(ctx).Model(&models.ProofOfDelivery{})
	if filters.ShipmentID != nil {
		query = query.Where("shipment_id = ?", *filters.ShipmentID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var pods []models.ProofOfDelivery
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&pods).Error
	if err != nil {
		return nil, 0, err
	}
	return pods, total, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ProofOfDelivery{}).
		Where("id = ?", id).
		Updates(updates).Error
}
