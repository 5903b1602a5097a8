package openhours

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	c := NewClient(baseURL + "/")

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != baseURL {
		t.Errorf("expected baseURL %q, got %q", baseURL, c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
}

func TestClientStatus(t *testing.T) {
	var gotPath, gotAt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAt = r.URL.Query().Get("at")
		json.NewEncoder(w).Encode(StatusResponse{
			Facility: "museum",
			Status:   "OPENING_SOON",
			Weekday:  "TUESDAY",
			OpensAt:  "2014-05-06T14:00:00+02:00",
			Text:     "Today, 06.05.2014 at 14:00",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	at := time.Date(2014, 5, 6, 10, 1, 0, 0, time.FixedZone("", 2*3600))
	got, err := c.Status(context.Background(), "museum", at)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gotPath != "/api/facilities/museum/status" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAt != "2014-05-06T10:01:00+02:00" {
		t.Errorf("at = %q", gotAt)
	}
	if got.Status != "OPENING_SOON" || got.Weekday != "TUESDAY" {
		t.Errorf("Status() = %+v", got)
	}
}

func TestClientPutAndDeleteRule(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			var rule Rule
			if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(rule)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()
	rule := Rule{ID: "r1", ValidFrom: "2014-05-01 00:00:00 +0200", Start: "10:00", End: "18:00", Weekdays: []string{"MONDAY"}}
	got, err := c.PutRule(ctx, "museum", rule)
	if err != nil {
		t.Fatalf("PutRule: %v", err)
	}
	if got.ID != "r1" || got.Start != "10:00" {
		t.Errorf("PutRule() = %+v", got)
	}
	if err := c.DeleteRule(ctx, "museum", "r1"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	want := []string{"PUT /api/facilities/museum/rules/r1", "DELETE /api/facilities/museum/rules/r1"}
	if len(methods) != 2 || methods[0] != want[0] || methods[1] != want[1] {
		t.Errorf("requests = %v, want %v", methods, want)
	}

	if _, err := c.PutRule(ctx, "museum", Rule{}); err == nil {
		t.Error("expected error for empty rule id")
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "facility not found: zoo"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Rules(context.Background(), "zoo")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "facility not found: zoo" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
