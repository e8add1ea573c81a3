// Package yt2pptx converts a YouTube video into a slide deck: download,
// fixed-interval frame extraction, perceptual deduplication, and pptx
// assembly with per-slide deep links back to the source.
package yt2pptx

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/patarapolw/yt2pptx/pkg/logger"
	"github.com/patarapolw/yt2pptx/pkg/models"
	"github.com/patarapolw/yt2pptx/pkg/utils"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/deck"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/dedup"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/storage"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/video"
)

// converterService is the default implementation of the Service interface.
type converterService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.IntervalSeconds < 1 {
		return nil, fmt.Errorf("interval must be at least 1 second, got %d", cfg.IntervalSeconds)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = storage.NewDBClientWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &converterService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// Convert runs the full pipeline for one video. Re-runs at the same
// sampling interval are idempotent: a completed manifest run, or a frame
// directory already renamed to timestamp form, skips extraction and
// deduplication and only rebuilds the deck.
func (s *converterService) Convert(ctx context.Context, urlOrID, baseName string) (*ConvertResult, error) {
	videoID := utils.ExtractVideoID(urlOrID)
	if videoID == "" {
		return nil, fmt.Errorf("could not extract a video ID from %q", urlOrID)
	}

	s.log.Infof("Converting video %s (interval %ds)", videoID, s.config.IntervalSeconds)

	dl, err := video.Download(ctx, videoID, s.config.OutDir)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if dl.Cached {
		s.log.Infof("Using cached video %s (%s): %s", videoID, humanize.Bytes(uint64(dl.Size)), dl.Path)
	} else {
		s.log.Infof("Downloaded %s (%s) to %s", dl.Title, humanize.Bytes(uint64(dl.Size)), dl.Path)
	}

	if err := s.storage.RegisterVideo(videoID, dl.Title, dl.Path); err != nil {
		return nil, fmt.Errorf("recording video in manifest: %w", err)
	}

	base := baseName
	if base == "" {
		base = dl.Title
	}
	base = utils.SanitizeFilename(base)

	res := &ConvertResult{
		VideoID:   videoID,
		Title:     dl.Title,
		VideoPath: dl.Path,
		DeckPath:  filepath.Join(s.config.OutDir, base+".pptx"),
	}

	frameDir := filepath.Join(s.config.OutDir, videoID)
	slides, err := s.collectSlides(ctx, dl.Path, frameDir, res)
	if err != nil {
		return nil, err
	}

	s.log.Infof("Assembling deck with %d slides: %s", len(slides), res.DeckPath)
	if err := deck.Write(res.DeckPath, videoID, slides); err != nil {
		return nil, fmt.Errorf("assembling deck: %w", err)
	}

	return res, nil
}

// collectSlides returns the kept (frame, timestamp) sequence for the deck,
// either by reusing an already-deduplicated frame directory or by running
// extraction and deduplication now.
func (s *converterService) collectSlides(ctx context.Context, videoPath, frameDir string, res *ConvertResult) ([]deck.Slide, error) {
	processed, err := video.ListProcessedFrames(frameDir)
	if err != nil {
		return nil, fmt.Errorf("scanning frame directory: %w", err)
	}
	if len(processed) > 0 {
		res.Reused = true
		res.KeptCount = len(processed)
		if run, err := s.storage.FindCompletedRun(res.VideoID, s.config.IntervalSeconds); err != nil {
			return nil, fmt.Errorf("querying manifest: %w", err)
		} else if run != nil {
			res.Threshold = run.Threshold
			res.ThresholdDerived = run.ThresholdDerived
			res.DroppedCount = run.DroppedCount
		} else {
			s.log.Warnf("Frame directory %s is processed but has no manifest run; rebuilding deck from it anyway", frameDir)
		}
		s.log.Infof("Frames already deduplicated at this interval, reusing %d kept frames", len(processed))

		slides := make([]deck.Slide, 0, len(processed))
		for _, pf := range processed {
			slides = append(slides, deck.Slide{ImagePath: pf.Path, Seconds: pf.Seconds})
		}
		return slides, nil
	}

	s.log.Infof("Extracting frames every %d seconds", s.config.IntervalSeconds)
	frames, err := video.ExtractFrames(ctx, videoPath, frameDir, s.config.IntervalSeconds)
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}
	s.log.Infof("Extracted %d frames", len(frames))

	runID, err := s.storage.BeginRun(res.VideoID, s.config.IntervalSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening manifest run: %w", err)
	}

	d, err := dedup.New(dedup.Config{
		IntervalSeconds: s.config.IntervalSeconds,
		Threshold:       s.config.Threshold,
		Workers:         s.config.Workers,
		Log:             s.log,
	})
	if err != nil {
		s.abortRun(runID)
		return nil, err
	}

	result, err := d.Run(ctx, frames)
	if err != nil {
		s.abortRun(runID)
		return nil, fmt.Errorf("deduplication failed: %w", err)
	}

	for _, line := range dedup.FormatRuns(result.Runs, s.config.IntervalSeconds) {
		s.log.Infof("Removed duplicate frames: %s", line)
	}
	for _, p := range result.FailedRemovals {
		s.log.Warnf("Duplicate frame left on disk: %s", p)
	}

	res.KeptCount = len(result.Kept)
	res.DroppedCount = result.DroppedCount()
	res.Threshold = result.Threshold
	res.ThresholdDerived = result.ThresholdDerived
	res.FailedCleanups = len(result.FailedRemovals) + len(result.FailedRenames)

	if err := s.storage.CompleteRun(runID, result.Threshold, result.ThresholdDerived,
		res.KeptCount, res.DroppedCount, res.DeckPath); err != nil {
		return nil, fmt.Errorf("completing manifest run: %w", err)
	}

	slides := make([]deck.Slide, 0, len(result.Kept))
	for _, kf := range result.Kept {
		slides = append(slides, deck.Slide{ImagePath: kf.Path, Seconds: kf.Seconds})
	}
	return slides, nil
}

func (s *converterService) abortRun(runID string) {
	if err := s.storage.AbortRun(runID); err != nil {
		s.log.Warnf("Could not abort manifest run %s: %v", runID, err)
	}
}

func (s *converterService) ListRuns() ([]models.Run, error) {
	return s.storage.ListRuns()
}

func (s *converterService) DeleteRun(runID string) error {
	return s.storage.DeleteRun(runID)
}

func (s *converterService) Close() error {
	return s.storage.Close()
}
