package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const localBlobFile = "saved_images.json"

type LocalOptions struct {
	Dir    string
	Logger *slog.Logger
}

// Local keeps every user's library in one JSON blob on disk, newest first.
// Read and write failures degrade to "no data" rather than erroring out.
type Local struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewLocal(opts LocalOptions) *Local {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	return &Local{
		path:   filepath.Join(dir, localBlobFile),
		logger: logger,
	}
}

func (l *Local) Save(_ context.Context, userID string, input SaveInput) (SavedImage, error) {
	if userID == "" {
		return SavedImage{}, ErrInvalidInput
	}

	record := SavedImage{
		ID:                uuid.New().String(),
		UserID:            userID,
		StyleName:         input.StyleName,
		GeneratedImageURL: input.GeneratedImageURL,
		PromptSummary:     input.PromptSummary,
		SavedAt:           time.Now().UTC().Format(time.RFC3339),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	blob := l.readBlob()
	blob[userID] = append([]SavedImage{record}, blob[userID]...)
	l.writeBlob(blob)

	return record, nil
}

func (l *Local) List(_ context.Context, userID string) ([]SavedImage, error) {
	if userID == "" {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.readBlob()[userID], nil
}

func (l *Local) readBlob() map[string][]SavedImage {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read local library", "path", l.path, "err", err)
		}
		return map[string][]SavedImage{}
	}

	var blob map[string][]SavedImage
	if err := json.Unmarshal(raw, &blob); err != nil {
		l.logger.Warn("local library is corrupt, starting empty", "path", l.path, "err", err)
		return map[string][]SavedImage{}
	}
	if blob == nil {
		blob = map[string][]SavedImage{}
	}
	return blob
}

func (l *Local) writeBlob(blob map[string][]SavedImage) {
	raw, err := json.Marshal(blob)
	if err != nil {
		l.logger.Warn("failed to encode local library", "err", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.logger.Warn("failed to create data dir", "err", err)
		return
	}
	if err := os.WriteFile(l.path, raw, 0o600); err != nil {
		l.logger.Warn("failed to persist local library", "path", l.path, "err", err)
	}
}
