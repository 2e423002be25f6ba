package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	testDate   string
	createdIDs = make(map[string]string) // track created resources for cleanup
	foodID     string
	logID      string
)

func main() {
	fmt.Println("=== Daiet E2E Smoke Test ===")
	fmt.Println()

	// Load config from env
	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	// Test date (today)
	testDate = time.Now().UTC().Format("2006-01-02")

	// Run smoke tests
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Onboarding Activity", testOnboardingActivity},
		{"Onboarding Goal", testOnboardingGoal},
		{"Onboarding Foods", testOnboardingFoods},
		{"Onboarding Complete", testOnboardingComplete},
		{"Get Profile", testGetProfile},
		{"Patch Profile", testPatchProfile},
		{"Daily Log Today", testDailyLogToday},
		{"Toggle Consumed", testToggleConsumed},
		{"Add Food", testAddFood},
		{"Analyze Food", testAnalyzeFood},
		{"Create Report (CSV)", testCreateReportCSV},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := doJSON("GET", "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testOnboardingActivity() error {
	resp, err := doJSON("POST", "/v1/onboarding/activity", map[string]interface{}{
		"sex":       "male",
		"birthdate": "1996-01-10",
		"height_cm": 175,
		"weight_kg": 75,
		"activity":  "moderate",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testOnboardingGoal() error {
	resp, err := doJSON("POST", "/v1/onboarding/goal", map[string]interface{}{
		"goal": "lose_fat",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testOnboardingFoods() error {
	resp, err := doJSON("POST", "/v1/onboarding/foods", map[string]interface{}{
		"allergies":   []string{"peanuts"},
		"preferences": []string{"chicken", "rice"},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testOnboardingComplete() error {
	resp, err := doJSON("POST", "/v1/onboarding/complete", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the profile already exists from a previous run; acceptable.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	return expectStatus(resp, http.StatusCreated)
}

func testGetProfile() error {
	resp, err := doJSON("GET", "/v1/profile", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var profile struct {
		DailyCalories int `json:"daily_calories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if profile.DailyCalories <= 0 {
		return fmt.Errorf("daily_calories=%d, expected positive target", profile.DailyCalories)
	}
	return nil
}

func testPatchProfile() error {
	resp, err := doJSON("PATCH", "/v1/profile", map[string]interface{}{
		"preferences": []string{"chicken", "rice", "oats"},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testDailyLogToday() error {
	resp, err := doJSON("GET", "/v1/daily-log/today?date="+testDate, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var log struct {
		ID    string `json:"id"`
		Meals struct {
			Breakfast []struct {
				ID string `json:"id"`
			} `json:"breakfast"`
		} `json:"meals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&log); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	logID = log.ID
	if len(log.Meals.Breakfast) > 0 {
		foodID = log.Meals.Breakfast[0].ID
	}
	return nil
}

func testToggleConsumed() error {
	if logID == "" || foodID == "" {
		return fmt.Errorf("no generated breakfast item to toggle")
	}

	resp, err := doJSON("POST", "/v1/daily-log/consume", map[string]interface{}{
		"log_id":    logID,
		"date":      testDate,
		"meal_slot": "breakfast",
		"food_id":   foodID,
		"consumed":  true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var log struct {
		Totals struct {
			Calories float64 `json:"calories"`
		} `json:"totals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&log); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if log.Totals.Calories <= 0 {
		return fmt.Errorf("totals.calories=%v after consuming an item", log.Totals.Calories)
	}
	return nil
}

func testAddFood() error {
	resp, err := doJSON("POST", "/v1/daily-log/food", map[string]interface{}{
		"date":      testDate,
		"meal_slot": "snack",
		"item": map[string]interface{}{
			"name":      "Protein bar",
			"portion":   "1 bar",
			"calories":  210,
			"protein_g": 20,
			"carb_g":    18,
			"fat_g":     7,
		},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

func testAnalyzeFood() error {
	resp, err := doJSON("POST", "/v1/foods/analyze", map[string]interface{}{
		"description": "grilled chicken breast with rice",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var estimate struct {
		Calories float64 `json:"calories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&estimate); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if estimate.Calories <= 0 {
		return fmt.Errorf("calories=%v, expected positive estimate", estimate.Calories)
	}
	return nil
}

func testCreateReportCSV() error {
	resp, err := doJSON("POST", "/v1/reports", map[string]interface{}{
		"date":   testDate,
		"format": "csv",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return err
	}

	var report struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if report.ID == "" {
		return fmt.Errorf("empty report id")
	}
	createdIDs["report"] = report.ID
	return nil
}

func testListReports() error {
	resp, err := doJSON("GET", "/v1/reports", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var result struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Reports) == 0 {
		return fmt.Errorf("no reports listed")
	}
	return nil
}

func testDownloadReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to download")
	}

	req, err := http.NewRequest("GET", apiBase+"/v1/reports/"+reportID+"/download", nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Local mode serves the file, S3 mode redirects.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	if resp.StatusCode == http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if !strings.Contains(string(data), "totals") {
			return fmt.Errorf("csv missing totals row")
		}
	}
	return nil
}

func testDeleteReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to delete")
	}

	req, err := http.NewRequest("DELETE", apiBase+"/v1/reports/"+reportID, nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// Helper functions

func doJSON(method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	return client.Do(req)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode != want {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
