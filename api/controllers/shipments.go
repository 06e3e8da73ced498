package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/api/responses"
	"github.com/dmrozas/pharmaflow-backend/api/validators"
	"github.com/dmrozas/pharmaflow-backend/internal/shipments"
	"github.com/dmrozas/pharmaflow-backend/pkg/db/models"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
)

func ShipmentCreate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input shipments.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

func ShipmentGet(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.GetByID(r.Context(), shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ShipmentList(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := shipments.Filters{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if filters.AccountID, err = validators.ParseQueryUUID(r, "account_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.SalesOrderID, err = validators.ParseQueryUUID(r, "sales_order_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.ShipmentStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment status").WithDetails(map[string]any{"status": raw}))
				return
			}
			filters.Status = &status
		}
		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ShipmentsBySalesOrder(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.GetBySalesOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ShipmentUpdate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input shipments.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Update(r.Context(), shipmentID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type allocateRequest struct {
	InventoryItemID string `json:"inventory_item_id" validate:"required,uuid"`
	Quantity        int    `json:"quantity" validate:"required,gt=0"`
}

func ShipmentAllocate(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "shipment item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req allocateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inventoryID, err := uuid.Parse(req.InventoryItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory item id"))
			return
		}
		item, err := svc.AllocateStock(r.Context(), itemID, inventoryID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

type itemStepRequest struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	By       string `json:"by" validate:"required,uuid"`
}

func ShipmentPick(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return itemStepHandler(svc.PickItem, logg)
}

func ShipmentPack(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return itemStepHandler(svc.PackItem, logg)
}

type itemStepFunc func(ctx context.Context, shipmentItemID uuid.UUID, quantity int, by uuid.UUID) (*models.ShipmentItem, error)

func itemStepHandler(step itemStepFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "shipment item id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req itemStepRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		by, err := uuid.Parse(req.By)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operator id"))
			return
		}
		item, err := step(r.Context(), itemID, req.Quantity, by)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ShipmentShip(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input shipments.ShipInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.ShipOrder(r.Context(), shipmentID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ShipmentCancel(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.Cancel(r.Context(), shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ShipmentDelete(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), shipmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
