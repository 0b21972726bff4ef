package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/dispense"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 5},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"message": message,
		"success": success,
		"data":    data,
	})
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(config.BackendConfig{BaseURL: ""}, slog.Default())
	if err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestFetchCurrentOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", map[string]any{
			"prescriptionNo": "RX-100",
			"orders": []map[string]any{
				{"id": "i1", "status": "pickup"},
			},
		})
	})

	p, err := c.FetchCurrentOrder(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentOrder failed: %v", err)
	}
	if p.PrescriptionNo != "RX-100" {
		t.Errorf("got prescription %q, want RX-100", p.PrescriptionNo)
	}
	if len(p.Items) != 1 || p.Items[0].Status != dispense.StatusPickup {
		t.Errorf("line items not decoded from the orders field: %+v", p.Items)
	}
}

func TestFetchCurrentOrder_NotFoundMapsToNoActiveOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, "no order for machine", nil)
	})

	_, err := c.FetchCurrentOrder(context.Background())
	if !errors.Is(err, dispense.ErrNoActiveOrder) {
		t.Fatalf("got %v, want ErrNoActiveOrder", err)
	}
}

func TestFetchCurrentOrder_NullDataMapsToNoActiveOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// An idle station expressed as 200 with a null payload.
		writeEnvelope(w, http.StatusOK, true, "ok", nil)
	})

	p, err := c.FetchCurrentOrder(context.Background())
	if !errors.Is(err, dispense.ErrNoActiveOrder) {
		t.Fatalf("got %v, want ErrNoActiveOrder", err)
	}
	if p != nil {
		t.Errorf("got prescription %+v, want nil", p)
	}
}

func TestStartDispensing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/dispense/RX-100" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["machineId"] != "machine-7" || body["socketId"] != "sock-1" {
			t.Errorf("unexpected body: %v", body)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", map[string]any{
			"prescriptionNo": "RX-100",
		})
	})

	p, err := c.StartDispensing(context.Background(), "RX-100", "machine-7", "sock-1")
	if err != nil {
		t.Fatalf("StartDispensing failed: %v", err)
	}
	if p.PrescriptionNo != "RX-100" {
		t.Errorf("got %q, want RX-100", p.PrescriptionNo)
	}
}

func TestStartDispensing_RejectedEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 with success=false still counts as a failure.
		writeEnvelope(w, http.StatusOK, false, "unknown prescription", nil)
	})

	_, err := c.StartDispensing(context.Background(), "bogus", "machine-7", "sock-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Message != "unknown prescription" {
		t.Errorf("got message %q, want the backend's message", apiErr.Message)
	}
}

func TestStartDispensing_NullDataIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "ok", nil)
	})

	p, err := c.StartDispensing(context.Background(), "RX-100", "machine-7", "sock-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if p != nil {
		t.Errorf("got prescription %+v, want nil", p)
	}
}

func TestPickupItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/pickup/RX-100/D-55" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["socketId"] != "sock-1" {
			t.Errorf("unexpected body: %v", body)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", nil)
	})

	if err := c.PickupItem(context.Background(), "RX-100", "D-55", "sock-1"); err != nil {
		t.Fatalf("PickupItem failed: %v", err)
	}
}

func TestResetOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders/order" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, true, "reset", "done")
	})

	if err := c.ResetOrder(context.Background(), "machine-7", "sock-1"); err != nil {
		t.Fatalf("ResetOrder failed: %v", err)
	}
}

func TestFetchDrug(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drugs/D-55" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", map[string]any{
			"drugCode": "D-55",
			"drugName": "Paracetamol 500mg",
		})
	})

	d, err := c.FetchDrug(context.Background(), "D-55")
	if err != nil {
		t.Fatalf("FetchDrug failed: %v", err)
	}
	if d.DrugName != "Paracetamol 500mg" {
		t.Errorf("got %q", d.DrugName)
	}
}

func TestDoJSON_ServerErrorWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})

	_, err := c.FetchCurrentOrder(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("got status %d, want 502", apiErr.Status)
	}
	if apiErr.Message == "" {
		t.Error("message should fall back to the HTTP status text")
	}
}
