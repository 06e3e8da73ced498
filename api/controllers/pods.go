package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmrozas/pharmaflow-backend/api/responses"
	"github.com/dmrozas/pharmaflow-backend/api/validators"
	"github.com/dmrozas/pharmaflow-backend/internal/pods"
	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
	"github.com/dmrozas/pharmaflow-backend/pkg/logger"
)

func PODCreate(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input pods.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pod, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pod)
	}
}

func PODGet(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		podID, err := validators.ParsePathUUID(chi.URLParam(r, "podId"), "pod id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pod, err := svc.GetByID(r.Context(), podID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pod)
	}
}

func PODByShipment(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipmentID, err := validators.ParsePathUUID(chi.URLParam(r, "shipmentId"), "shipment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pod, err := svc.GetByShipment(r.Context(), shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pod)
	}
}

func PODList(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := pods.Filters{}
		if filters.ShipmentID, err = validators.ParseQueryUUID(r, "shipment_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status := enums.PODStatus(raw)
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown pod status").WithDetails(map[string]any{"status": raw}))
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

type completePODRequest struct {
	CompletedBy string `json:"completed_by" validate:"required,uuid"`
}

func PODComplete(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		podID, err := validators.ParsePathUUID(chi.URLParam(r, "podId"), "pod id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req completePODRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		completedBy, err := uuid.Parse(req.CompletedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid completer id"))
			return
		}
		pod, err := svc.Complete(r.Context(), podID, completedBy)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pod)
	}
}

type rejectPODRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func PODReject(svc pods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		podID, err := validators.ParsePathUUID(chi.URLParam(r, "podId"), "pod id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectPODRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pod, err := svc.Reject(r.Context(), podID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pod)
	}
}
