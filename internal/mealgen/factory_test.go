package mealgen

import (
	"testing"

	"github.com/daiet-app/daiet-server/internal/config"
)

func TestNewGeneratorModes(t *testing.T) {
	cases := []struct {
		mode       string
		wantGemini bool
	}{
		{"", false},
		{"mock", false},
		{"  MOCK  ", false},
		{"gemini", true},
		{"Gemini", true},
		{"unknown", false},
	}

	for _, tc := range cases {
		cfg := &config.Config{AIMode: tc.mode, GeminiAPIKey: "k", GeminiModel: "m"}
		gen := NewGenerator(cfg)
		_, isGemini := gen.(*GeminiGenerator)
		if isGemini != tc.wantGemini {
			t.Errorf("mode %q: gemini=%v, want %v", tc.mode, isGemini, tc.wantGemini)
		}
	}
}
