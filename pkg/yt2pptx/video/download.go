package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/patarapolw/yt2pptx/pkg/utils"
)

const titleMarkerFile = ".title.txt"

// Metadata is the subset of yt-dlp's JSON dump the pipeline cares about.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
}

// DownloadResult describes a downloaded (or cache-hit) source video.
type DownloadResult struct {
	VideoID string
	Title   string
	Path    string
	Size    int64
	Cached  bool
}

// Download fetches a YouTube video as mp4 into outDir, caching by video ID:
// out/<id>.mp4 plus a sanitized title marker at out/<id>/.title.txt. When
// both already exist the download is skipped and the cached copy returned.
func Download(ctx context.Context, videoID, outDir string) (*DownloadResult, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 15*time.Minute)
		defer cancel()
	}

	videoDir := filepath.Join(outDir, videoID)
	if err := utils.MakeDir(videoDir); err != nil {
		return nil, fmt.Errorf("creating video directory: %w", err)
	}

	finalPath := filepath.Join(outDir, videoID+".mp4")
	titlePath := filepath.Join(videoDir, titleMarkerFile)

	if info, err := os.Stat(finalPath); err == nil {
		if raw, err := os.ReadFile(titlePath); err == nil {
			return &DownloadResult{
				VideoID: videoID,
				Title:   strings.TrimSpace(string(raw)),
				Path:    finalPath,
				Size:    info.Size(),
				Cached:  true,
			}, nil
		}
	}

	url := utils.WatchURL(videoID, 0)

	meta, err := FetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	dl := ytdlp.New().
		Format("bestvideo+bestaudio/best").
		MergeOutputFormat("mp4").
		NoPlaylist().
		NoWarnings().
		Quiet().
		Output(finalPath)

	if _, err := dl.Run(ctx, url); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("downloaded video not found at %s: %w", finalPath, err)
	}

	title := utils.SanitizeFilename(meta.Title)
	if err := os.WriteFile(titlePath, []byte(title), 0644); err != nil {
		return nil, fmt.Errorf("writing title marker: %w", err)
	}

	return &DownloadResult{
		VideoID: videoID,
		Title:   title,
		Path:    finalPath,
		Size:    info.Size(),
	}, nil
}

// FetchMetadata dumps the video's metadata through yt-dlp without
// downloading anything.
func FetchMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	probe := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		NoWarnings()

	res, err := probe.Run(ctx, utils.WatchURL(videoID, 0))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp metadata fetch failed: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(res.Stdout), &meta); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp JSON: %w", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return nil, fmt.Errorf("missing video ID in yt-dlp output")
	}
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = "video"
	}
	return &meta, nil
}
