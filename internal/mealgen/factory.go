package mealgen

import (
	"strings"

	"github.com/daiet-app/daiet-server/internal/config"
)

const (
	ModeMock   = "mock"
	ModeGemini = "gemini"
)

func NewGenerator(cfg *config.Config) Generator {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))
	if mode == "" {
		mode = ModeMock
	}

	switch mode {
	case ModeGemini:
		return NewGeminiGenerator(cfg)
	default:
		return NewMockGenerator()
	}
}
