package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/codec"
	"github.com/mmeshcher/shortlink/internal/models"
)

// MemoryRepository keeps records in process memory. When storagePath is set every
// mutation rewrites a JSON snapshot of the whole table, which is loaded back on start.
type MemoryRepository struct {
	mu          sync.RWMutex
	saveMu      sync.Mutex
	records     map[int64]models.URLRecord
	byURL       map[string]int64
	lastID      int64
	storagePath string
	logger      *zap.Logger
}

type snapshot struct {
	LastID  int64            `json:"last_id"`
	Records []snapshotRecord `json:"records"`
}

type snapshotRecord struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

func NewMemoryRepository(storagePath string, logger *zap.Logger) (*MemoryRepository, error) {
	repo := &MemoryRepository{
		records:     make(map[int64]models.URLRecord),
		byURL:       make(map[string]int64),
		storagePath: storagePath,
		logger:      logger.With(zap.String("component", "memory_store")),
	}

	if storagePath != "" {
		if err := repo.loadFromFile(); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (m *MemoryRepository) Get(_ context.Context, id int64) (models.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		return models.URLRecord{}, ErrNotFound
	}
	return record, nil
}

func (m *MemoryRepository) GetByURL(_ context.Context, url string) (models.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byURL[url]
	if !ok {
		return models.URLRecord{}, ErrNotFound
	}
	return m.records[id], nil
}

func (m *MemoryRepository) List(_ context.Context) ([]models.URLRecord, error) {
	m.mu.RLock()
	records := make([]models.URLRecord, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, record)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (m *MemoryRepository) Add(_ context.Context, url string) (models.URLRecord, error) {
	m.mu.Lock()
	if _, exists := m.byURL[url]; exists {
		m.mu.Unlock()
		return models.URLRecord{}, ErrDuplicate
	}

	id := m.lastID + 1
	code, err := codec.Encode(id)
	if err != nil {
		m.mu.Unlock()
		return models.URLRecord{}, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	record := models.URLRecord{ID: id, Code: code, URL: url, Active: true}
	m.lastID = id
	m.records[id] = record
	m.byURL[url] = id
	m.mu.Unlock()

	m.saveToFile()
	return record, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id int64) (models.URLRecord, error) {
	m.mu.Lock()
	record, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return models.URLRecord{}, ErrNotFound
	}
	delete(m.records, id)
	delete(m.byURL, record.URL)
	m.mu.Unlock()

	m.saveToFile()
	return record, nil
}

func (m *MemoryRepository) Update(_ context.Context, id int64, patch models.URLPatch) (models.URLRecord, error) {
	m.mu.Lock()
	record, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return models.URLRecord{}, ErrNotFound
	}
	if patch.IsEmpty() {
		m.mu.Unlock()
		return record, nil
	}

	updated := patch.Apply(record)
	if updated.URL != record.URL {
		if _, taken := m.byURL[updated.URL]; taken {
			m.mu.Unlock()
			return models.URLRecord{}, ErrDuplicate
		}
		delete(m.byURL, record.URL)
		m.byURL[updated.URL] = id
	}
	m.records[id] = updated
	m.mu.Unlock()

	m.saveToFile()
	return updated, nil
}

func (m *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

func (m *MemoryRepository) saveToFile() {
	if m.storagePath == "" {
		return
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.RLock()
	snap := snapshot{
		LastID:  m.lastID,
		Records: make([]snapshotRecord, 0, len(m.records)),
	}
	for _, record := range m.records {
		snap.Records = append(snap.Records, snapshotRecord{ID: record.ID, URL: record.URL, Active: record.Active})
	}
	m.mu.RUnlock()

	sort.Slice(snap.Records, func(i, j int) bool { return snap.Records[i].ID < snap.Records[j].ID })

	jsonData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		m.logger.Error("Failed to encode storage snapshot", zap.Error(err))
		return
	}

	tmp := m.storagePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		m.logger.Error("Failed to write storage file", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, m.storagePath); err != nil {
		m.logger.Error("Failed to replace storage file", zap.Error(err))
	}
}

func (m *MemoryRepository) loadFromFile() error {
	data, err := os.ReadFile(m.storagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read storage file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse storage file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID = snap.LastID
	for _, r := range snap.Records {
		code, err := codec.Encode(r.ID)
		if err != nil {
			return fmt.Errorf("load record %d: %w", r.ID, err)
		}
		m.records[r.ID] = models.URLRecord{ID: r.ID, Code: code, URL: r.URL, Active: r.Active}
		m.byURL[r.URL] = r.ID
		if r.ID > m.lastID {
			m.lastID = r.ID
		}
	}

	m.logger.Info("Loaded storage snapshot",
		zap.String("path", m.storagePath),
		zap.Int("records", len(snap.Records)))

	return nil
}
