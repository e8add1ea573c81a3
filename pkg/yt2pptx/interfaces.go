package yt2pptx

import (
	"context"

	"github.com/patarapolw/yt2pptx/pkg/models"
)

type Service interface {
	Convert(ctx context.Context, urlOrID, baseName string) (*ConvertResult, error)
	ListRuns() ([]models.Run, error)
	DeleteRun(runID string) error
	Close() error
}

type Storage interface {
	RegisterVideo(id, title, sourcePath string) error
	BeginRun(videoID string, intervalSeconds int) (string, error)
	CompleteRun(runID string, threshold int, derived bool, kept, dropped int, deckPath string) error
	AbortRun(runID string) error
	FindCompletedRun(videoID string, intervalSeconds int) (*models.Run, error)
	ListRuns() ([]models.Run, error)
	DeleteRun(runID string) error
	GetVideo(id string) (*models.Video, error)
	Close() error
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
