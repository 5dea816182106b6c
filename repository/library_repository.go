package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"RaspCD/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryRepository 光盘库数据访问接口
type LibraryRepository interface {
	// RecordPlay upserts the disc and bumps its play count.
	RecordPlay(ctx context.Context, d model.Disc) error
	GetByDiscID(ctx context.Context, discID string) (*model.LibraryEntry, error)
	// List returns entries, most recently played first.
	List(ctx context.Context, limit int) ([]model.LibraryEntry, error)
}

// gormLibraryRepository GORM 实现
type gormLibraryRepository struct {
	db *gorm.DB
}

// NewGormLibraryRepository 创建 GORM 光盘库仓库
func NewGormLibraryRepository(db *gorm.DB) LibraryRepository {
	return &gormLibraryRepository{db: db}
}

func (r *gormLibraryRepository) RecordPlay(ctx context.Context, d model.Disc) error {
	if d.ID == "" {
		return nil
	}
	entry := model.NewLibraryEntry(d)
	entry.PlayCount = 1
	entry.LastPlayedAt = time.Now()

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "disc_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"release_id":     entry.ReleaseID,
			"artist":         entry.Artist,
			"album":          entry.Album,
			"track_count":    entry.TrackCount,
			"tracks":         entry.Tracks,
			"play_count":     gorm.Expr("play_count + 1"),
			"last_played_at": entry.LastPlayedAt,
			"updated_at":     entry.LastPlayedAt,
		}),
	}).Create(entry).Error
}

func (r *gormLibraryRepository) GetByDiscID(ctx context.Context, discID string) (*model.LibraryEntry, error) {
	var entry model.LibraryEntry
	err := r.db.WithContext(ctx).Where("disc_id = ?", discID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *gormLibraryRepository) List(ctx context.Context, limit int) ([]model.LibraryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []model.LibraryEntry
	err := r.db.WithContext(ctx).
		Order("last_played_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// memoryLibraryRepository keeps the library in process when no database is
// configured; it is lost on restart.
type memoryLibraryRepository struct {
	mu      sync.Mutex
	entries map[string]*model.LibraryEntry
}

// NewMemoryLibraryRepository 创建内存光盘库
func NewMemoryLibraryRepository() LibraryRepository {
	return &memoryLibraryRepository{entries: make(map[string]*model.LibraryEntry)}
}

func (r *memoryLibraryRepository) RecordPlay(ctx context.Context, d model.Disc) error {
	if d.ID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.entries[d.ID]
	if !ok {
		entry = model.NewLibraryEntry(d)
		entry.CreatedAt = now
		r.entries[d.ID] = entry
	} else {
		fresh := model.NewLibraryEntry(d)
		fresh.ID, fresh.CreatedAt, fresh.PlayCount = entry.ID, entry.CreatedAt, entry.PlayCount
		*entry = *fresh
	}
	entry.PlayCount++
	entry.LastPlayedAt = now
	entry.UpdatedAt = now
	return nil
}

func (r *memoryLibraryRepository) GetByDiscID(ctx context.Context, discID string) (*model.LibraryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[discID]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (r *memoryLibraryRepository) List(ctx context.Context, limit int) ([]model.LibraryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]model.LibraryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastPlayedAt.After(entries[j].LastPlayedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
