package store

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"barbertry/internal/config"
)

const collectionSavedImages = "savedImages"

var ErrInvalidInput = errors.New("a valid userId is required")

// SavedImage is one persisted generation result. SavedAt is an ISO-8601
// timestamp string so both backends produce identical records.
type SavedImage struct {
	ID                string `json:"id"`
	UserID            string `json:"userId"`
	StyleName         string `json:"styleName"`
	GeneratedImageURL string `json:"generatedImageUrl"`
	PromptSummary     string `json:"promptSummary,omitempty"`
	SavedAt           string `json:"savedAt"`
}

type SaveInput struct {
	StyleName         string
	GeneratedImageURL string
	PromptSummary     string
}

// Gateway hides which backend holds a user's library. List returns records
// newest first.
type Gateway interface {
	Save(ctx context.Context, userID string, input SaveInput) (SavedImage, error)
	List(ctx context.Context, userID string) ([]SavedImage, error)
}

type Options struct {
	Storage    config.Storage
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// New picks the backend once from the startup storage selection.
func New(opts Options) (Gateway, error) {
	if opts.Storage.Remote != nil {
		return NewFirestore(FirestoreOptions{
			ProjectID:  opts.Storage.Remote.ProjectID,
			APIKey:     opts.Storage.Remote.APIKey,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	if opts.Storage.Local != nil {
		return NewLocal(LocalOptions{
			Dir:    opts.Storage.Local.Dir,
			Logger: opts.Logger,
		}), nil
	}
	return nil, errors.New("no storage backend selected")
}
