package inventoryapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmrozas/pharmaflow-backend/pkg/enums"
	pkgerrors "github.com/dmrozas/pharmaflow-backend/pkg/errors"
)

func TestGetByIDReturnsItem(t *testing.T) {
	itemID := uuid.New()
	batch := "LOT-77"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/inventory/"+itemID.String(), r.URL.Path)
		_ = json.NewEncoder(w).Encode(Item{
			ID:          itemID,
			DrugID:      uuid.New(),
			Status:      enums.InventoryStatusAvailable,
			Quantity:    120,
			BatchNumber: &batch,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	item, err := client.GetByID(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, itemID, item.ID)
	require.Equal(t, enums.InventoryStatusAvailable, item.Status)
	require.Equal(t, 120, item.Quantity)
	require.NotNil(t, item.BatchNumber)
	require.Equal(t, "LOT-77", *item.BatchNumber)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such item", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestGetByIDMapsServerErrorToDependency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestGetByIDMapsTimeoutToDependency(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client, err := NewClient(server.URL, WithTimeout(25*time.Millisecond))
	require.NoError(t, err)

	_, err = client.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestUpdateStatusSendsPatch(t *testing.T) {
	itemID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/inventory/"+itemID.String()+"/status", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "reserved", body["status"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	require.NoError(t, client.UpdateStatus(context.Background(), itemID, enums.InventoryStatusReserved))
}

func TestUpdateStatusRejectsInvalidStatus(t *testing.T) {
	client, err := NewClient("http://localhost:0")
	require.NoError(t, err)

	err = client.UpdateStatus(context.Background(), uuid.New(), enums.InventoryStatus("melted"))
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
