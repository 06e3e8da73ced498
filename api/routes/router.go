package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmrozas/pharmaflow-backend/api/controllers"
	"github.com/dmrozas/pharmaflow-backend/api/middleware"
	"github.com/dmrozas/pharmaflow-backend/internal/pods"
	"github.com/dmrozas/pharmaflow-backend/internal/salesorders"
	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/config"
	"github.com/dmrozas/pharmaflow-backend/pkg/db"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
	pkgredis "github.com/dmrozas/pharmaflow-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	salesOrderService salesorders.Service,
	shipmentService shipments.Service,
	podService pods.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		var idempotencyStore pkgredis.IdempotencyStore
		if redisClient != nil {
			idempotencyStore = redisClient
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/sales-orders", func(r chi.Router) {
			r.Post("/", controllers.SalesOrderCreate(salesOrderService, logg))
			r.Get("/", controllers.SalesOrderList(salesOrderService, logg))
			r.Get("/{orderId}", controllers.SalesOrderGet(salesOrderService, logg))
			r.Delete("/{orderId}", controllers.SalesOrderDelete(salesOrderService, logg))
			r.Post("/{orderId}/submit", controllers.SalesOrderSubmit(salesOrderService, logg))
			r.Post("/{orderId}/approve", controllers.SalesOrderApprove(salesOrderService, logg))
			r.Patch("/{orderId}/status", controllers.SalesOrderUpdateStatus(salesOrderService, logg))
			r.Post("/{orderId}/cancel", controllers.SalesOrderCancel(salesOrderService, logg))
			r.Get("/{orderId}/shipments", controllers.ShipmentsBySalesOrder(shipmentService, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.ShipmentCreate(shipmentService, logg))
			r.Get("/", controllers.ShipmentList(shipmentService, logg))
			r.Get("/{shipmentId}", controllers.ShipmentGet(shipmentService, logg))
			r.Patch("/{shipmentId}", controllers.ShipmentUpdate(shipmentService, logg))
			r.Delete("/{shipmentId}", controllers.ShipmentDelete(shipmentService, logg))
			r.Post("/{shipmentId}/ship", controllers.ShipmentShip(shipmentService, logg))
			r.Post("/{shipmentId}/cancel", controllers.ShipmentCancel(shipmentService, logg))
			r.Get("/{shipmentId}/pod", controllers.PODByShipment(podService, logg))

			r.Route("/items/{itemId}", func(r chi.Router) {
				r.Post("/allocate", controllers.ShipmentAllocate(shipmentService, logg))
				r.Post("/pick", controllers.ShipmentPick(shipmentService, logg))
				r.Post("/pack", controllers.ShipmentPack(shipmentService, logg))
			})
		})

		r.Route("/pods", func(r chi.Router) {
			r.Post("/", controllers.PODCreate(podService, logg))
			r.Get("/", controllers.PODList(podService, logg))
			r.Get("/{podId}", controllers.PODGet(podService, logg))
			r.Post("/{podId}/complete", controllers.PODComplete(podService, logg))
			r.Post("/{podId}/reject", controllers.PODReject(podService, logg))
		})
	})

	return r
}
