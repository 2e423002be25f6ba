package memory

import (
	"context"
	"sync"
	"time"

	"github.com/daiet-app/daiet-server/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage — in-memory реализация ProfilesStorage для dev/test режима
type MemoryStorage struct {
	mu        sync.RWMutex
	profiles  map[string]storage.Profile // keyed by owner_user_id
	dailyLogs *DailyLogsMemoryStorage
	reports   *ReportsMemoryStorage
}

// New создаёт новый пустой MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		profiles:  make(map[string]storage.Profile),
		dailyLogs: NewDailyLogsMemoryStorage(),
		reports:   NewReportsMemoryStorage(),
	}
}

func (m *MemoryStorage) GetProfile(ctx context.Context, ownerUserID string) (*storage.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[ownerUserID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	cp := cloneProfile(p)
	return &cp, nil
}

func (m *MemoryStorage) CreateProfile(ctx context.Context, profile *storage.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[profile.OwnerUserID]; ok {
		return storage.ErrConflict
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()

	m.profiles[profile.OwnerUserID] = cloneProfile(*profile)

	return nil
}

func (m *MemoryStorage) UpdateProfile(ctx context.Context, profile *storage.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.profiles[profile.OwnerUserID]
	if !ok {
		return storage.ErrNotFound
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = time.Now()

	m.profiles[profile.OwnerUserID] = cloneProfile(*profile)

	return nil
}

func (m *MemoryStorage) DeleteProfile(ctx context.Context, ownerUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[ownerUserID]; !ok {
		return storage.ErrNotFound
	}

	delete(m.profiles, ownerUserID)

	return nil
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// DailyLogsStorage methods - делегируем к встроенному daily logs storage

func (m *MemoryStorage) GetDailyLog(ctx context.Context, ownerUserID string, date string) (*storage.DailyLog, error) {
	return m.dailyLogs.GetDailyLog(ctx, ownerUserID, date)
}

func (m *MemoryStorage) CreateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	return m.dailyLogs.CreateDailyLog(ctx, log)
}

func (m *MemoryStorage) UpdateDailyLog(ctx context.Context, log *storage.DailyLog) error {
	return m.dailyLogs.UpdateDailyLog(ctx, log)
}

// GetDailyLogsStorage returns the daily logs storage
func (m *MemoryStorage) GetDailyLogsStorage() *DailyLogsMemoryStorage {
	return m.dailyLogs
}

// GetReportsStorage returns the reports storage
func (m *MemoryStorage) GetReportsStorage() *ReportsMemoryStorage {
	return m.reports
}

func cloneProfile(p storage.Profile) storage.Profile {
	cp := p
	cp.Allergies = append([]string(nil), p.Allergies...)
	cp.Preferences = append([]string(nil), p.Preferences...)
	return cp
}
