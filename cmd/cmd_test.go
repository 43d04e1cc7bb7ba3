package cmd

import (
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"ingest":    false,
		"ask":       false,
		"documents": false,
		"history":   false,
		"serve":     false,
		"version":   false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestDocumentsDeleteRegistered(t *testing.T) {
	for _, c := range documentsCmd.Commands() {
		if c.Name() == "delete" {
			return
		}
	}
	t.Error("documents delete subcommand not registered")
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/page", true},
		{"./docs", false},
		{"/tmp/report.pdf", false},
		{"ftp://example.com", false},
	}
	for _, tt := range tests {
		if got := isURL(tt.arg); got != tt.want {
			t.Errorf("isURL(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestResolveUser(t *testing.T) {
	t.Setenv("RAGNOVA_USER", "")

	flagUser = ""
	if got := resolveUser(); got != "default" {
		t.Errorf("resolveUser() = %q, want default", got)
	}

	t.Setenv("RAGNOVA_USER", "envuser")
	if got := resolveUser(); got != "envuser" {
		t.Errorf("resolveUser() = %q, want envuser", got)
	}

	flagUser = "flaguser"
	defer func() { flagUser = "" }()
	if got := resolveUser(); got != "flaguser" {
		t.Errorf("resolveUser() = %q, want flaguser", got)
	}
}
