// Package storage persists the processing manifest: which videos have been
// downloaded and which sampling intervals have completed deduplication runs.
// The manifest is the explicit "already processed" marker; the timestamp
// renames on disk remain as the compatible, directory-scan fallback.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/patarapolw/yt2pptx/pkg/models"
)

const DefaultDBFile = "yt2pptx.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Video struct {
	ID         string `gorm:"primaryKey;type:varchar(16)"`
	Title      string
	SourcePath string
	CreatedAt  time.Time
}

type Run struct {
	ID               string `gorm:"primaryKey;type:varchar(36)"`
	VideoID          string `gorm:"index:idx_video_interval,priority:1"`
	IntervalSeconds  int    `gorm:"index:idx_video_interval,priority:2"`
	Threshold        int
	ThresholdDerived bool
	KeptCount        int
	DroppedCount     int
	DeckPath         string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("YT2PPTX_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Video{}, &Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterVideo records a downloaded video, updating the title and source
// path if the video is already known.
func (c *DBClient) RegisterVideo(id, title, sourcePath string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	var video Video
	err := c.DB.Where("id = ?", id).First(&video).Error
	if err == nil {
		updates := map[string]any{"title": title, "source_path": sourcePath}
		if err := c.DB.Model(&video).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating video: %w", err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("querying existing video: %w", err)
	}

	video = Video{ID: id, Title: title, SourcePath: sourcePath}
	if err := c.DB.Create(&video).Error; err != nil {
		return fmt.Errorf("creating video: %w", err)
	}
	return nil
}

// BeginRun opens a run for a video at a sampling interval and returns its
// ID. The run stays incomplete until CompleteRun; aborted runs should be
// removed with AbortRun so they never masquerade as processed state.
func (c *DBClient) BeginRun(videoID string, intervalSeconds int) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	run := Run{
		ID:              uuid.NewString(),
		VideoID:         videoID,
		IntervalSeconds: intervalSeconds,
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// CompleteRun stamps a run with its outcome.
func (c *DBClient) CompleteRun(runID string, threshold int, derived bool, kept, dropped int, deckPath string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	now := time.Now()
	res := c.DB.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{
		"threshold":         threshold,
		"threshold_derived": derived,
		"kept_count":        kept,
		"dropped_count":     dropped,
		"deck_path":         deckPath,
		"completed_at":      &now,
	})
	if res.Error != nil {
		return fmt.Errorf("completing run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// AbortRun removes an incomplete run.
func (c *DBClient) AbortRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Where("id = ?", runID).Delete(&Run{}).Error
}

// FindCompletedRun returns the completed run for a (video, interval) pair,
// or nil when the pair has not been processed.
func (c *DBClient) FindCompletedRun(videoID string, intervalSeconds int) (*models.Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var run Run
	err := c.DB.
		Where("video_id = ? AND interval_seconds = ? AND completed_at IS NOT NULL", videoID, intervalSeconds).
		Order("completed_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying completed run: %w", err)
	}

	m := toModelRun(run)
	return &m, nil
}

func (c *DBClient) ListRuns() ([]models.Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []Run
	if err := c.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	out := make([]models.Run, 0, len(rows))
	for _, r := range rows {
		out = append(out, toModelRun(r))
	}
	return out, nil
}

func (c *DBClient) DeleteRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	res := c.DB.Where("id = ?", runID).Delete(&Run{})
	if res.Error != nil {
		return fmt.Errorf("deleting run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

func (c *DBClient) GetVideo(id string) (*models.Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var video Video
	if err := c.DB.Where("id = ?", id).First(&video).Error; err != nil {
		return nil, fmt.Errorf("querying video %s: %w", id, err)
	}
	return &models.Video{
		ID:         video.ID,
		Title:      video.Title,
		SourcePath: video.SourcePath,
		CreatedAt:  video.CreatedAt,
	}, nil
}

func toModelRun(r Run) models.Run {
	return models.Run{
		ID:               r.ID,
		VideoID:          r.VideoID,
		IntervalSeconds:  r.IntervalSeconds,
		Threshold:        r.Threshold,
		ThresholdDerived: r.ThresholdDerived,
		KeptCount:        r.KeptCount,
		DroppedCount:     r.DroppedCount,
		DeckPath:         r.DeckPath,
		CreatedAt:        r.CreatedAt,
		CompletedAt:      r.CompletedAt,
	}
}
