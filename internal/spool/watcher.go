package spool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/raaihank/logscrub/internal/config"
	"github.com/raaihank/logscrub/internal/logger"
)

// Handler runs one anonymization request end to end.
type Handler func(ctx context.Context, req Request) error

// Watcher observes a spool directory for request files and hands each one to
// the handler. Requests run one at a time, in arrival order.
type Watcher struct {
	dir          string
	settle       time.Duration
	drainOnStart bool
	handler      Handler
	logger       *logger.Logger
}

// NewWatcher creates a spool watcher over cfg.Dir.
func NewWatcher(cfg config.SpoolConfig, handler Handler, log *logger.Logger) *Watcher {
	return &Watcher{
		dir:          cfg.Dir,
		settle:       cfg.SettleDelay,
		drainOnStart: cfg.DrainOnStart,
		handler:      handler,
		logger:       log.WithComponent("spool"),
	}
}

// Run blocks until ctx is cancelled, processing request files as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create spool watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory %s: %w", w.dir, err)
	}

	w.logger.Info("Watching spool directory", zap.String("dir", w.dir))

	if w.drainOnStart {
		if err := w.drain(ctx); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isRequestFile(event.Name) {
				continue
			}
			// Give the producer time to finish writing before decoding.
			if w.settle > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(w.settle):
				}
			}
			w.process(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Spool watcher error", zap.Error(err))
		}
	}
}

// drain processes request files already present in the spool directory,
// oldest name first.
func (w *Watcher) drain(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read spool directory %s: %w", w.dir, err)
	}

	var pending []string
	for _, entry := range entries {
		if entry.IsDir() || !isRequestFile(entry.Name()) {
			continue
		}
		pending = append(pending, filepath.Join(w.dir, entry.Name()))
	}
	sort.Strings(pending)

	for _, path := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.process(ctx, path)
	}
	return nil
}

// process decodes and handles one request file, then renames it so it is not
// picked up again. A second event for an already-handled file finds it gone
// and is ignored.
func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.logger.Error("Failed to read request file", zap.String("file", path), zap.Error(err))
		return
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		w.logger.Error("Malformed request file", zap.String("file", path), zap.Error(err))
		w.markHandled(path, FailedSuffix)
		return
	}
	if err := req.Validate(); err != nil {
		w.logger.Error("Invalid request", zap.String("file", path), zap.Error(err))
		w.markHandled(path, FailedSuffix)
		return
	}

	log := w.logger.WithRequest(filepath.Base(path))
	log.Info("Handling anonymization request",
		zap.String("username", req.User.Username),
		zap.Int("files", len(req.Files)),
	)

	if err := w.handler(ctx, req); err != nil {
		log.Error("Request failed", zap.Error(err))
		w.markHandled(path, FailedSuffix)
		return
	}

	log.Info("Request completed")
	w.markHandled(path, DoneSuffix)
}

func (w *Watcher) markHandled(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.Error("Failed to mark request handled", zap.String("file", path), zap.Error(err))
	}
}

func isRequestFile(name string) bool {
	return strings.HasSuffix(name, ".json")
}
