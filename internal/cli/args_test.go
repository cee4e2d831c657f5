package cli

import (
	"strings"
	"testing"
)

func TestListAcceptsNoArgs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EB_SERVER_URL", "http://127.0.0.1:1")

	// No server is listening, so a connection error is expected, not an args error.
	_, err := executeCommand("list")
	if err != nil && strings.Contains(err.Error(), "arg(s)") {
		t.Fatalf("list should accept zero args: %v", err)
	}

	if _, err := executeCommand("list", "extra"); err == nil {
		t.Fatal("expected error for extra args")
	}
}

func TestShowRequiresID(t *testing.T) {
	_, err := executeCommand("show")
	if err == nil {
		t.Fatal("expected error when no ID provided")
	}
}

func TestShowRejectsNonNumericID(t *testing.T) {
	_, err := executeCommand("show", "abc")
	if err == nil || !strings.Contains(err.Error(), "invalid property ID") {
		t.Fatalf("expected invalid ID error, got %v", err)
	}
}

func TestRemoveRequiresID(t *testing.T) {
	_, err := executeCommand("remove")
	if err == nil {
		t.Fatal("expected error when no ID provided")
	}
}

func TestRemoveRejectsNonNumericID(t *testing.T) {
	_, err := executeCommand("remove", "first")
	if err == nil || !strings.Contains(err.Error(), "invalid property ID") {
		t.Fatalf("expected invalid ID error, got %v", err)
	}
}

func TestKeysArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"create without name", []string{"keys", "create"}},
		{"create with two names", []string{"keys", "create", "a", "b"}},
		{"delete without id", []string{"keys", "delete"}},
		{"list with args", []string{"keys", "list", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestServeAcceptsNoArgs(t *testing.T) {
	_, err := executeCommand("serve", "extra")
	if err == nil {
		t.Fatal("expected error for extra args")
	}
}
