package mealgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daiet-app/daiet-server/internal/config"
	"github.com/daiet-app/daiet-server/internal/storage"
)

// GeminiGenerator calls the Google Generative Language API over plain HTTP.
type GeminiGenerator struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func NewGeminiGenerator(cfg *config.Config) *GeminiGenerator {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 25
	}

	return &GeminiGenerator{
		apiKey:      cfg.GeminiAPIKey,
		model:       cfg.GeminiModel,
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		temperature: cfg.AITemperature,
		maxTokens:   cfg.AIMaxOutputTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, profile Profile) (storage.Meals, error) {
	text, err := g.prompt(ctx, g.buildMealPlanPrompt(profile))
	if err != nil {
		return storage.Meals{}, err
	}

	var raw rawMealSet
	if err := json.Unmarshal([]byte(cleanModelResponse(text)), &raw); err != nil {
		return storage.Meals{}, fmt.Errorf("parse meal plan response: %w", err)
	}

	meals, err := normalizeMeals(raw)
	if err != nil {
		return storage.Meals{}, fmt.Errorf("normalize meal plan: %w", err)
	}

	return meals, nil
}

func (g *GeminiGenerator) AnalyzeFood(ctx context.Context, description string) (FoodEstimate, error) {
	text, err := g.prompt(ctx, buildAnalyzeFoodPrompt(description))
	if err != nil {
		return FoodEstimate{}, err
	}

	var raw struct {
		Name     string     `json:"name"`
		Portion  string     `json:"portion"`
		Calories flexNumber `json:"calories"`
		ProteinG flexNumber `json:"protein_g"`
		CarbsG   flexNumber `json:"carb_g"`
		FatG     flexNumber `json:"fat_g"`
	}
	if err := json.Unmarshal([]byte(cleanModelResponse(text)), &raw); err != nil {
		return FoodEstimate{}, fmt.Errorf("parse food analysis response: %w", err)
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = strings.TrimSpace(description)
	}

	return FoodEstimate{
		Name:     name,
		Portion:  strings.TrimSpace(raw.Portion),
		Calories: nonNegative(float64(raw.Calories)),
		ProteinG: nonNegative(float64(raw.ProteinG)),
		CarbsG:   nonNegative(float64(raw.CarbsG)),
		FatG:     nonNegative(float64(raw.FatG)),
	}, nil
}

// prompt sends one text prompt and returns the first candidate's text.
func (g *GeminiGenerator) prompt(ctx context.Context, prompt string) (string, error) {
	requestPayload := generateContentRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		},
	}

	body, err := json.Marshal(requestPayload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini request failed with status %d", resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response does not contain text")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("gemini response does not contain text")
	}

	return text, nil
}

func (g *GeminiGenerator) buildMealPlanPrompt(profile Profile) string {
	allergies := strings.Join(profile.Allergies, ", ")
	if allergies == "" {
		allergies = "none"
	}
	preferences := strings.Join(profile.Preferences, ", ")
	if preferences == "" {
		preferences = "none"
	}

	return fmt.Sprintf(
		"Generate a personalized daily meal plan for a person with the following profile:\n"+
			"- Sex: %s\n"+
			"- Goal: %s\n"+
			"- Daily calories: %d\n"+
			"- Preferences: %s\n"+
			"- Allergies: %s\n\n"+
			"The plan must include 4 meals: breakfast, lunch, snack and dinner.\n\n"+
			"Return ONLY a JSON object with the following structure, no markdown and no extra explanations:\n"+
			"{\n"+
			"  \"breakfast\": [ { \"name\": \"...\", \"portion\": \"...\", \"calories\": 123, \"protein_g\": 10, \"carb_g\": 20, \"fat_g\": 5 } ],\n"+
			"  \"lunch\": [ ... ],\n"+
			"  \"snack\": [ ... ],\n"+
			"  \"dinner\": [ ... ]\n"+
			"}\n\n"+
			"Make sure the total calories are close to %d.\n"+
			"All fields must be numeric except name and portion.",
		profile.Sex,
		profile.Goal,
		profile.DailyCalories,
		preferences,
		allergies,
		profile.DailyCalories,
	)
}

func buildAnalyzeFoodPrompt(description string) string {
	return fmt.Sprintf(
		"Analyze the following food and return ONLY a valid JSON object (no markdown, no code blocks) with this exact structure:\n"+
			"{\n"+
			"  \"name\": \"descriptive name of the food\",\n"+
			"  \"portion\": \"estimated portion size\",\n"+
			"  \"calories\": integer,\n"+
			"  \"protein_g\": integer,\n"+
			"  \"carb_g\": integer,\n"+
			"  \"fat_g\": integer\n"+
			"}\n\n"+
			"Food described by the user: %q\n\n"+
			"Respond ONLY with the JSON, no additional explanations.",
		description,
	)
}

type generateContentRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
