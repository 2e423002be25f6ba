package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDailyLogsStorage — Postgres storage для дневных логов питания.
// meals и totals хранятся как jsonb; уникальный индекс на (owner_user_id, log_date)
// гарантирует один лог на пользователя в день.
type PostgresDailyLogsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresDailyLogsStorage создаёт новое хранилище
func NewPostgresDailyLogsStorage(pool *pgxpool.Pool) *PostgresDailyLogsStorage {
	return &PostgresDailyLogsStorage{pool: pool}
}

// GetDailyLog возвращает лог по (owner, date)
func (s *PostgresDailyLogsStorage) GetDailyLog(ctx context.Context, ownerUserID string, date string) (*storage.DailyLog, error) {
	query := `
		SELECT id, owner_user_id, log_date, meals, totals, created_at, updated_at
		FROM daily_logs
		WHERE owner_user_id = $1 AND log_date = $2
	`

	var (
		log        storage.DailyLog
		logDate    time.Time
		mealsJSON  []byte
		totalsJSON []byte
	)
	// log_date is a DATE column; pgx returns it in binary format, so it has
	// to land in a time.Time, not a string.
	err := s.pool.QueryRow(ctx, query, ownerUserID, date).Scan(
		&log.ID,
		&log.OwnerUserID,
		&logDate,
		&mealsJSON,
		&totalsJSON,
		&log.CreatedAt,
		&log.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	log.Date = logDate.Format("2006-01-02")

	if err := json.Unmarshal(mealsJSON, &log.Meals); err != nil {
		return nil, fmt.Errorf("unmarshal meals: %w", err)
	}
	if err := json.Unmarshal(totalsJSON, &log.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}

	return &log, nil
}

// CreateDailyLog создаёт новый лог. ErrConflict при нарушении unique(owner, date).
func (s *PostgresDailyLogsStorage) CreateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now

	mealsJSON, err := json.Marshal(log.Meals)
	if err != nil {
		return fmt.Errorf("marshal meals: %w", err)
	}
	totalsJSON, err := json.Marshal(log.Totals)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}

	query := `
		INSERT INTO daily_logs (id, owner_user_id, log_date, meals, totals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, query,
		log.ID,
		log.OwnerUserID,
		log.Date,
		mealsJSON,
		totalsJSON,
		log.CreatedAt,
		log.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return storage.ErrConflict
	}

	return err
}

// UpdateDailyLog перезаписывает meals и totals существующего лога
func (s *PostgresDailyLogsStorage) UpdateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	log.UpdatedAt = time.Now()

	mealsJSON, err := json.Marshal(log.Meals)
	if err != nil {
		return fmt.Errorf("marshal meals: %w", err)
	}
	totalsJSON, err := json.Marshal(log.Totals)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}

	query := `
		UPDATE daily_logs
		SET meals = $3, totals = $4, updated_at = $5
		WHERE owner_user_id = $1 AND log_date = $2
	`

	result, err := s.pool.Exec(ctx, query,
		log.OwnerUserID,
		log.Date,
		mealsJSON,
		totalsJSON,
		log.UpdatedAt,
	)

	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
