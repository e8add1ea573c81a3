package yt2pptx

import "github.com/patarapolw/yt2pptx/pkg/yt2pptx/storage"

type Config struct {
	OutDir          string
	DBPath          string
	IntervalSeconds int
	Threshold       *int
	Workers         int
	Logger          Logger
	Storage         Storage
}

type Option func(*Config)

func WithOutDir(dir string) Option {
	return func(c *Config) {
		c.OutDir = dir
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithInterval sets the frame sampling interval in seconds.
func WithInterval(seconds int) Option {
	return func(c *Config) {
		c.IntervalSeconds = seconds
	}
}

// WithThreshold fixes the similarity threshold instead of deriving it from
// the frame distance distribution.
func WithThreshold(threshold int) Option {
	return func(c *Config) {
		c.Threshold = &threshold
	}
}

// WithWorkers bounds the fingerprinting worker pool.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(s Storage) Option {
	return func(c *Config) {
		c.Storage = s
	}
}

func defaultConfig() *Config {
	return &Config{
		OutDir:          "out",
		DBPath:          storage.DefaultDBFile,
		IntervalSeconds: 2,
	}
}
