package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация ProfilesStorage
type PostgresStorage struct {
	pool      *pgxpool.Pool
	dailyLogs *PostgresDailyLogsStorage
	reports   *PostgresReportsStorage
}

// New создаёт PostgresStorage и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{
		pool:      pool,
		dailyLogs: NewPostgresDailyLogsStorage(pool),
		reports:   NewPostgresReportsStorage(pool),
	}, nil
}

func (p *PostgresStorage) GetProfile(ctx context.Context, ownerUserID string) (*storage.Profile, error) {
	query := `
		SELECT id, owner_user_id, name, sex, birthdate, height_cm, weight_kg,
		       activity, goal, allergies, preferences,
		       daily_calories, protein_g, fat_g, carbs_g,
		       created_at, updated_at
		FROM profiles
		WHERE owner_user_id = $1
	`

	var prof storage.Profile
	err := p.pool.QueryRow(ctx, query, ownerUserID).Scan(
		&prof.ID,
		&prof.OwnerUserID,
		&prof.Name,
		&prof.Sex,
		&prof.Birthdate,
		&prof.HeightCM,
		&prof.WeightKG,
		&prof.Activity,
		&prof.Goal,
		&prof.Allergies,
		&prof.Preferences,
		&prof.DailyCalories,
		&prof.ProteinG,
		&prof.FatG,
		&prof.CarbsG,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &prof, nil
}

func (p *PostgresStorage) CreateProfile(ctx context.Context, profile *storage.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO profiles (id, owner_user_id, name, sex, birthdate, height_cm, weight_kg,
		                      activity, goal, allergies, preferences,
		                      daily_calories, protein_g, fat_g, carbs_g,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := p.pool.Exec(ctx, query,
		profile.ID,
		profile.OwnerUserID,
		profile.Name,
		profile.Sex,
		profile.Birthdate,
		profile.HeightCM,
		profile.WeightKG,
		profile.Activity,
		profile.Goal,
		profile.Allergies,
		profile.Preferences,
		profile.DailyCalories,
		profile.ProteinG,
		profile.FatG,
		profile.CarbsG,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return storage.ErrConflict
	}

	return err
}

func (p *PostgresStorage) UpdateProfile(ctx context.Context, profile *storage.Profile) error {
	profile.UpdatedAt = time.Now()

	query := `
		UPDATE profiles
		SET name = $2, sex = $3, birthdate = $4, height_cm = $5, weight_kg = $6,
		    activity = $7, goal = $8, allergies = $9, preferences = $10,
		    daily_calories = $11, protein_g = $12, fat_g = $13, carbs_g = $14,
		    updated_at = $15
		WHERE owner_user_id = $1
	`

	result, err := p.pool.Exec(ctx, query,
		profile.OwnerUserID,
		profile.Name,
		profile.Sex,
		profile.Birthdate,
		profile.HeightCM,
		profile.WeightKG,
		profile.Activity,
		profile.Goal,
		profile.Allergies,
		profile.Preferences,
		profile.DailyCalories,
		profile.ProteinG,
		profile.FatG,
		profile.CarbsG,
		profile.UpdatedAt,
	)

	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) DeleteProfile(ctx context.Context, ownerUserID string) error {
	query := `DELETE FROM profiles WHERE owner_user_id = $1`

	result, err := p.pool.Exec(ctx, query, ownerUserID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// DailyLogsStorage methods - делегируем к встроенному daily logs storage

func (p *PostgresStorage) GetDailyLog(ctx context.Context, ownerUserID string, date string) (*storage.DailyLog, error) {
	return p.dailyLogs.GetDailyLog(ctx, ownerUserID, date)
}

func (p *PostgresStorage) CreateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	return p.dailyLogs.CreateDailyLog(ctx, log)
}

func (p *PostgresStorage) UpdateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	return p.dailyLogs.UpdateDailyLog(ctx, log)
}

// GetDailyLogsStorage returns the daily logs storage
func (p *PostgresStorage) GetDailyLogsStorage() *PostgresDailyLogsStorage {
	return p.dailyLogs
}

// GetReportsStorage returns the reports storage
func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
