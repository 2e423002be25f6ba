package memory

import (
	"context"
	"sync"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
)

// DailyLogsMemoryStorage — in-memory storage для дневных логов питания.
// Один лог на (owner, date), как и уникальный индекс в Postgres.
type DailyLogsMemoryStorage struct {
	mu   sync.RWMutex
	logs map[logKey]*storage.DailyLog
}

type logKey struct {
	ownerUserID string
	date        string
}

// NewDailyLogsMemoryStorage создаёт новое in-memory хранилище
func NewDailyLogsMemoryStorage() *DailyLogsMemoryStorage {
	return &DailyLogsMemoryStorage{
		logs: make(map[logKey]*storage.DailyLog),
	}
}

// GetDailyLog возвращает лог по (owner, date)
func (s *DailyLogsMemoryStorage) GetDailyLog(ctx context.Context, ownerUserID string, date string) (*storage.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[logKey{ownerUserID, date}]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := cloneDailyLog(log)
	return cp, nil
}

// CreateDailyLog создаёт новый лог. ErrConflict если (owner, date) уже занят.
func (s *DailyLogsMemoryStorage) CreateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{log.OwnerUserID, log.Date}
	if _, ok := s.logs[key]; ok {
		return storage.ErrConflict
	}

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now

	s.logs[key] = cloneDailyLog(log)
	return nil
}

// UpdateDailyLog перезаписывает meals и totals существующего лога
func (s *DailyLogsMemoryStorage) UpdateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{log.OwnerUserID, log.Date}
	existing, ok := s.logs[key]
	if !ok {
		return storage.ErrNotFound
	}

	log.ID = existing.ID
	log.CreatedAt = existing.CreatedAt
	log.UpdatedAt = time.Now()

	s.logs[key] = cloneDailyLog(log)
	return nil
}

// cloneDailyLog делает глубокую копию, чтобы вызывающий код не мутировал хранилище
func cloneDailyLog(log *storage.DailyLog) *storage.DailyLog {
	cp := *log
	cp.Meals = storage.Meals{
		Breakfast: cloneItems(log.Meals.Breakfast),
		Lunch:     cloneItems(log.Meals.Lunch),
		Snack:     cloneItems(log.Meals.Snack),
		Dinner:    cloneItems(log.Meals.Dinner),
	}
	return &cp
}

func cloneItems(items []storage.FoodItem) []storage.FoodItem {
	if items == nil {
		return []storage.FoodItem{}
	}
	out := make([]storage.FoodItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.ConsumedAt != nil {
			t := *it.ConsumedAt
			out[i].ConsumedAt = &t
		}
	}
	return out
}
