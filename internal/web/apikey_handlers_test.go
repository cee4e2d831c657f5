package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestAPIKeysCreateListDelete(t *testing.T) {
	ts := newTestServer(t)

	w := apiRequest(t, ts.srv, "POST", "/api/keys", ts.service, map[string]any{"name": "bot", "owner_id": 12})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var created apiKeyCreateResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(created.Key, "eb_") {
		t.Errorf("key = %q, want eb_ prefix", created.Key)
	}
	if created.APIKeyResponse.OwnerID != 12 {
		t.Errorf("owner = %d, want 12", created.APIKeyResponse.OwnerID)
	}

	w = apiRequest(t, ts.srv, "GET", "/api/keys", ts.service, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", w.Code, http.StatusOK)
	}
	var keys []apiKeyResponse
	if err := json.NewDecoder(w.Body).Decode(&keys); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}

	w = apiRequest(t, ts.srv, "DELETE", "/api/keys/"+itoa(created.APIKeyResponse.ID), ts.service, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = apiRequest(t, ts.srv, "POST", "/api/chat", created.Key, ChatRequest{Text: "hi"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked key status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAPIKeysDefaultName(t *testing.T) {
	ts := newTestServer(t)

	w := apiRequest(t, ts.srv, "POST", "/api/keys", ts.service, map[string]any{})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var created apiKeyCreateResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.APIKeyResponse.Name != "API Key" {
		t.Errorf("name = %q, want %q", created.APIKeyResponse.Name, "API Key")
	}
}

func TestAPIKeysRequireServiceKey(t *testing.T) {
	ts := newTestServer(t)
	scoped := ts.scopedKey(t, 3)

	w := apiRequest(t, ts.srv, "GET", "/api/keys", scoped, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAPIKeysDeleteErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "unknown id", path: "/api/keys/999", want: http.StatusNotFound},
		{name: "bad id", path: "/api/keys/abc", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			w := apiRequest(t, ts.srv, "DELETE", tt.path, ts.service, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAPIKeysRejectNegativeOwner(t *testing.T) {
	ts := newTestServer(t)

	w := apiRequest(t, ts.srv, "POST", "/api/keys", ts.service, map[string]any{"owner_id": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
