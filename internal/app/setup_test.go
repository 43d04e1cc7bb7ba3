package app

import (
	"testing"

	"github.com/ragnova/ragnova/internal/config"
)

func TestModelRef(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini unqualified", config.ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"ollama unqualified", config.ProviderOllama, "llama3", "ollama/llama3"},
		{"already qualified", config.ProviderGemini, "googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Provider: tt.provider, ModelName: tt.model}
			if got := modelRef(cfg); got != tt.want {
				t.Errorf("modelRef() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClose_Empty(t *testing.T) {
	a := &App{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on empty app = %v", err)
	}
}
