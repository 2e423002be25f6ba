package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/jung-kurt/gofpdf"
)

// Generator renders a single day's nutrition log as PDF or CSV.
type Generator struct {
	logs     storage.DailyLogsStorage
	profiles storage.ProfilesStorage
}

// NewGenerator creates a new report generator
func NewGenerator(logs storage.DailyLogsStorage, profiles storage.ProfilesStorage) *Generator {
	return &Generator{logs: logs, profiles: profiles}
}

// GenerateReport renders the log for (owner, date) and returns the bytes.
func (g *Generator) GenerateReport(ctx context.Context, ownerUserID string, date string, format string) ([]byte, error) {
	dayLog, err := g.logs.GetDailyLog(ctx, ownerUserID, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to fetch daily log: %w", err)
	}

	// targets are optional: a log can exist before the profile does
	profile, err := g.profiles.GetProfile(ctx, ownerUserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	switch format {
	case FormatPDF:
		return g.generatePDF(dayLog, profile)
	case FormatCSV:
		return g.generateCSV(dayLog)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

var slotOrder = []struct {
	name  string
	items func(m storage.Meals) []storage.FoodItem
}{
	{"breakfast", func(m storage.Meals) []storage.FoodItem { return m.Breakfast }},
	{"lunch", func(m storage.Meals) []storage.FoodItem { return m.Lunch }},
	{"snack", func(m storage.Meals) []storage.FoodItem { return m.Snack }},
	{"dinner", func(m storage.Meals) []storage.FoodItem { return m.Dinner }},
}

// generateCSV generates a CSV export of the day's items plus a totals row.
func (g *Generator) generateCSV(dayLog *storage.DailyLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "meal_slot", "name", "portion", "calories", "protein_g", "carb_g", "fat_g", "is_recommendation", "consumed", "consumed_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, slot := range slotOrder {
		for _, item := range slot.items(dayLog.Meals) {
			consumedAt := ""
			if item.ConsumedAt != nil {
				consumedAt = item.ConsumedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
			row := []string{
				dayLog.Date,
				slot.name,
				item.Name,
				item.Portion,
				formatMacro(item.Calories),
				formatMacro(item.ProteinG),
				formatMacro(item.CarbsG),
				formatMacro(item.FatG),
				strconv.FormatBool(item.IsRecommendation),
				strconv.FormatBool(item.Consumed),
				consumedAt,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	totalsRow := []string{
		dayLog.Date,
		"totals",
		"", "",
		formatMacro(dayLog.Totals.Calories),
		formatMacro(dayLog.Totals.ProteinG),
		formatMacro(dayLog.Totals.CarbsG),
		formatMacro(dayLog.Totals.FatG),
		"", "", "",
	}
	if err := w.Write(totalsRow); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// generatePDF generates a one-page day summary.
func (g *Generator) generatePDF(dayLog *storage.DailyLog, profile *storage.Profile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Daily Nutrition Report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", dayLog.Date))
	pdf.Ln(12)

	for _, slot := range slotOrder {
		items := slot.items(dayLog.Meals)

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, title(slot.name))
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 9)
		if len(items) == 0 {
			pdf.Cell(0, 6, "  (no items)")
			pdf.Ln(6)
			continue
		}

		pdf.CellFormat(8, 6, "", "1", 0, "C", false, 0, "")
		pdf.CellFormat(62, 6, "Item", "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, "Portion", "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, "Kcal", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Protein", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Carbs", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Fat", "1", 1, "C", false, 0, "")

		for _, item := range items {
			mark := ""
			if item.Consumed {
				mark = "x"
			}
			pdf.CellFormat(8, 6, mark, "1", 0, "C", false, 0, "")
			pdf.CellFormat(62, 6, item.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, item.Portion, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 6, formatMacro(item.Calories), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, formatMacro(item.ProteinG), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, formatMacro(item.CarbsG), "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 6, formatMacro(item.FatG), "1", 1, "C", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Consumed totals")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Calories: %s kcal", formatMacro(dayLog.Totals.Calories)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Protein: %s g   Carbs: %s g   Fat: %s g",
		formatMacro(dayLog.Totals.ProteinG), formatMacro(dayLog.Totals.CarbsG), formatMacro(dayLog.Totals.FatG)))
	pdf.Ln(10)

	if profile != nil {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Daily targets")
		pdf.Ln(7)

		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Calories: %d kcal (%s consumed)", profile.DailyCalories, formatMacro(dayLog.Totals.Calories)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Protein: %d g   Carbs: %d g   Fat: %d g", profile.ProteinG, profile.CarbsG, profile.FatG))
		pdf.Ln(5)

		remaining := float64(profile.DailyCalories) - dayLog.Totals.Calories
		if remaining < 0 {
			pdf.Cell(0, 6, fmt.Sprintf("Over target by %s kcal", formatMacro(-remaining)))
		} else {
			pdf.Cell(0, 6, fmt.Sprintf("Remaining: %s kcal", formatMacro(remaining)))
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func formatMacro(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
