package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an insert violates a uniqueness
	// constraint (one daily log per user per date). Callers treat it as
	// "row already exists, re-fetch".
	ErrConflict = errors.New("record already exists")
)

// Profile — биометрический профиль пользователя с дневной целью по калориям
type Profile struct {
	ID            uuid.UUID
	OwnerUserID   string
	Name          string
	Sex           string // "male" or "female"
	Birthdate     time.Time
	HeightCM      float64
	WeightKG      float64
	Activity      string // sedentary, light, moderate, high
	Goal          string // lose_fat, maintain, gain_muscle
	Allergies     []string
	Preferences   []string
	DailyCalories int // derived from the fields above, denormalized
	ProteinG      int
	FatG          int
	CarbsG        int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfilesStorage — интерфейс для работы с профилями
type ProfilesStorage interface {
	// GetProfile returns the profile for a user. ErrNotFound if absent.
	GetProfile(ctx context.Context, ownerUserID string) (*Profile, error)

	// CreateProfile inserts a new profile. ErrConflict if one already exists
	// for the owner.
	CreateProfile(ctx context.Context, profile *Profile) error

	// UpdateProfile overwrites the profile for profile.OwnerUserID.
	UpdateProfile(ctx context.Context, profile *Profile) error

	// DeleteProfile removes the profile for a user.
	DeleteProfile(ctx context.Context, ownerUserID string) error

	// Close закрывает соединение (для Postgres)
	Close() error
}

// FoodItem — один элемент дневного лога (сгенерированный или добавленный вручную)
type FoodItem struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Portion          string     `json:"portion,omitempty"`
	Calories         float64    `json:"calories"`
	ProteinG         float64    `json:"protein_g"`
	CarbsG           float64    `json:"carb_g"`
	FatG             float64    `json:"fat_g"`
	IsRecommendation bool       `json:"is_recommendation"`
	Consumed         bool       `json:"consumed"`
	ConsumedAt       *time.Time `json:"consumed_at,omitempty"`
}

// Meals groups the four fixed meal slots of a day.
type Meals struct {
	Breakfast []FoodItem `json:"breakfast"`
	Lunch     []FoodItem `json:"lunch"`
	Snack     []FoodItem `json:"snack"`
	Dinner    []FoodItem `json:"dinner"`
}

// Totals — агрегаты по потреблённым (consumed) элементам за день
type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carb_g"`
	FatG     float64 `json:"fat_g"`
}

// DailyLog — лог питания за один календарный день. Уникален по (owner, date).
type DailyLog struct {
	ID          uuid.UUID
	OwnerUserID string
	Date        string // YYYY-MM-DD
	Meals       Meals
	Totals      Totals
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DailyLogsStorage — интерфейс для работы с дневными логами питания
type DailyLogsStorage interface {
	// GetDailyLog returns the log for (owner, date). ErrNotFound if absent.
	GetDailyLog(ctx context.Context, ownerUserID string, date string) (*DailyLog, error)

	// CreateDailyLog inserts a new log. Returns ErrConflict when a log for
	// (owner, date) already exists, per the unique constraint.
	CreateDailyLog(ctx context.Context, log *DailyLog) error

	// UpdateDailyLog overwrites meals and totals of an existing log.
	UpdateDailyLog(ctx context.Context, log *DailyLog) error
}

// ReportsStorage — интерфейс для работы с экспортами дневного лога
type ReportsStorage interface {
	// CreateReport создаёт новый отчёт (metadata + optional data for memory mode)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает список отчётов пользователя с пагинацией
	ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// ReportMeta — метаданные отчёта
type ReportMeta struct {
	ID          uuid.UUID
	OwnerUserID string
	Format      string  // "pdf" or "csv"
	Date        string  // YYYY-MM-DD of the exported log
	ObjectKey   *string // S3 object key (NULL for memory mode)
	SizeBytes   int64
	Status      string // "ready" or "failed"
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Data        []byte // Only used in memory mode (not stored in DB)
}
