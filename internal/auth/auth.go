package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	profileFile = "last_profile.json"

	idPrefix     = "local-"
	fallbackName = "Guest Styler"
)

type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type Options struct {
	Dir    string
	Logger *slog.Logger
}

// Service is the stand-in auth layer: it mints a deterministic profile from
// an email address and never verifies credentials.
type Service struct {
	dir    string
	logger *slog.Logger
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	return &Service{dir: dir, logger: logger}
}

// SignIn normalizes the email and returns a profile whose id is stable across
// repeated sign-ins. An empty email is a silent no-op (nil profile, nil
// error). The password is accepted and discarded.
func (s *Service) SignIn(mode Mode, email, _ string, fullName string) *Profile {
	trimmed := strings.TrimSpace(email)
	normalized := strings.ToLower(trimmed)
	if normalized == "" {
		return nil
	}

	// The display name keeps the casing the user typed; only id and email
	// are normalized.
	displayName := deriveNameFromEmail(trimmed)
	if mode == ModeSignup {
		if trimmed := strings.TrimSpace(fullName); trimmed != "" {
			displayName = trimmed
		}
	}

	profile := &Profile{
		ID:          idPrefix + normalized,
		DisplayName: displayName,
		Email:       normalized,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	s.persist(profile)
	return profile
}

// LastProfile loads the most recently signed-in profile, or nil when none is
// stored or the slot is unreadable.
func (s *Service) LastProfile() *Profile {
	raw, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if err != nil {
		return nil
	}

	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		s.logger.Warn("stored profile is corrupt", "err", err)
		return nil
	}
	if profile.ID == "" {
		return nil
	}
	return &profile
}

func (s *Service) persist(profile *Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		s.logger.Warn("failed to encode profile", "err", err)
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("failed to create data dir", "err", err)
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, profileFile), raw, 0o600); err != nil {
		s.logger.Warn("failed to store profile", "err", err)
	}
}

func deriveNameFromEmail(email string) string {
	if !strings.Contains(email, "@") {
		return fallbackName
	}
	return strings.SplitN(email, "@", 2)[0]
}
