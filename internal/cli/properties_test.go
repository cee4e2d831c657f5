package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/estate-bot/internal/property"
)

// propertyServer serves one property (#3) owned by user 7.
func propertyServer(t *testing.T) *[]string {
	t.Helper()
	var calls []string

	p := property.Property{ID: 3, OwnerID: 7, Title: "Sea view flat", Type: property.TypeApartment, City: "Lisbon", Area: 80, Price: 250000}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/properties", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		_ = json.NewEncoder(w).Encode([]property.Property{p})
	})
	mux.HandleFunc("GET /api/properties/stats", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		_ = json.NewEncoder(w).Encode(property.Stats{Count: 1, AveragePrice: 250000, ByCity: map[string]int{"Lisbon": 1}})
	})
	mux.HandleFunc("/api/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		if r.PathValue("id") != "3" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"property not found"}`))
			return
		}
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("EB_SERVER_URL", srv.URL)
	t.Setenv("EB_API_KEY", "eb_test")
	t.Setenv("EB_USER_ID", "7")
	return &calls
}

func TestListCommand(t *testing.T) {
	calls := propertyServer(t)

	out, err := executeCommand("list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Sea view flat") || !strings.Contains(out, "Total: 1 properties") {
		t.Errorf("output = %q", out)
	}
	if len(*calls) != 1 || (*calls)[0] != "GET /api/properties?user_id=7" {
		t.Errorf("calls = %v", *calls)
	}
}

func TestListStats(t *testing.T) {
	calls := propertyServer(t)

	out, err := executeCommand("list", "--stats")
	if err != nil {
		t.Fatalf("list --stats: %v", err)
	}
	if !strings.Contains(out, "Average price:  $250,000") {
		t.Errorf("output = %q", out)
	}
	if (*calls)[0] != "GET /api/properties/stats?user_id=7" {
		t.Errorf("calls = %v", *calls)
	}
}

func TestShowCommand(t *testing.T) {
	propertyServer(t)

	out, err := executeCommand("show", "3")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Property #3") || !strings.Contains(out, "Lisbon") {
		t.Errorf("output = %q", out)
	}

	_, err = executeCommand("show", "9")
	if err == nil || err.Error() != "property not found" {
		t.Errorf("show missing err = %v", err)
	}
}

func TestRemoveCommand(t *testing.T) {
	calls := propertyServer(t)

	out, err := executeCommand("remove", "3", "--user", "7")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out != "Property #3 removed.\n" {
		t.Errorf("output = %q", out)
	}
	if (*calls)[0] != "DELETE /api/properties/3?user_id=7" {
		t.Errorf("calls = %v", *calls)
	}
}
