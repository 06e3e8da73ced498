package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	"github.com/dmrozas/pharmaflow-backend/pkg/metrics"
)

const reservationJobName = "reservation_reconciler"

type staleReservationReader interface {
	FindStaleReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.ShipmentItem, error)
}

type reservationResolver interface {
	ReconcileReservation(ctx context.Context, shipmentItemID uuid.UUID) (shipments.ReconcileOutcome, error)
}

// ReservationJobParams configure the stale reservation job.
type ReservationJobParams struct {
	Logger     *logger.Logger
	Reader     staleReservationReader
	Resolver   reservationResolver
	Metrics    *metrics.JobMetrics
	StaleAfter time.Duration
	BatchSize  int
}

// NewReservationJob builds the job that resolves reservation intents left
// behind by crashed allocations.
func NewReservationJob(params ReservationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("stale reservation reader required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("reservation resolver required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &reservationJob{
		logg:       params.Logger,
		reader:     params.Reader,
		resolver:   params.Resolver,
		metrics:    params.Metrics,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

type reservationJob struct {
	logg       *logger.Logger
	reader     staleReservationReader
	resolver   reservationResolver
	metrics    *metrics.JobMetrics
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
}

func (j *reservationJob) Name() string { return reservationJobName }

func (j *reservationJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	items, err := j.reader.FindStaleReservations(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query stale reservations: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	counts := map[shipments.ReconcileOutcome]int{}
	var errs []error
	for _, item := range items {
		itemCtx := j.logg.WithShipmentItemID(ctx, item.ID.String())
		outcome, err := j.resolver.ReconcileReservation(itemCtx, item.ID)
		if err != nil {
			j.logg.Error(itemCtx, "failed to reconcile reservation", err)
			errs = append(errs, fmt.Errorf("item %s: %w", item.ID, err))
			continue
		}
		counts[outcome]++
		j.logg.Info(itemCtx, "reservation reconciled as "+string(outcome))
	}
	for outcome, count := range counts {
		j.metrics.AddProcessed(reservationJobName, string(outcome), count)
	}
	return multierr.Combine(errs...)
}
