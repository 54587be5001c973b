package flow

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"barbertry/internal/auth"
	"barbertry/internal/catalog"
	"barbertry/internal/store"
)

const maxUploadBytes = 5 << 20

const (
	sessionTTL    = 24 * time.Hour
	sweepInterval = 10 * time.Minute
)

const (
	generateErrorMessage = "Sorry, we couldn't generate the haircut. The model might be busy or your photo could not be processed. Please try again with a different photo."
	libraryErrorMessage  = "Could not load your saved looks."
	saveErrorMessage     = "We could not save this look yet. Please try again."
	upscaleWarning       = "Upscaling failed, downloading original."
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrImageTooLarge  = errors.New("image size should not exceed 5MB")
	ErrMissingImage   = errors.New("please upload an image first")
	ErrUnknownStyle   = errors.New("unknown style")
	ErrBusy           = errors.New("a generation is already in flight")
	ErrNotReady       = errors.New("generation result is not ready")
)

// Generator is the remote image model boundary the controller drives.
type Generator interface {
	GenerateStyled(ctx context.Context, sourceDataURL, stylePrompt string) (string, error)
	Upscale(ctx context.Context, sourceDataURL string) (string, error)
}

type Options struct {
	Generator Generator
	Gateway   store.Gateway
	Auth      *auth.Service
	Logger    *slog.Logger
	Timeout   time.Duration
}

// Controller owns every session's screen/tab state machine and orchestrates
// the generate, save and sign-in journeys against the remote boundaries.
// Deferred work (the post-login save) runs on a single task worker so state
// transitions commit before the continuation fires.
type Controller struct {
	gen     Generator
	gateway store.Gateway
	auth    *auth.Service
	logger  *slog.Logger
	timeout time.Duration

	sessions *sessionStore

	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	c := &Controller{
		gen:      opts.Generator,
		gateway:  opts.Gateway,
		auth:     opts.Auth,
		logger:   logger,
		timeout:  timeout,
		sessions: newSessionStore(),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}

	c.wg.Add(2)
	go c.runTasks()
	go c.runJanitor()
	return c
}

func (c *Controller) Close() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *Controller) runTasks() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case task := <-c.tasks:
			task()
		}
	}
}

// runJanitor drops sessions no request has touched for sessionTTL. Clients
// are expected to bootstrap a fresh session after an expiry.
func (c *Controller) runJanitor() {
	defer c.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if n := c.sessions.prune(sessionTTL); n > 0 {
				c.logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}

func (c *Controller) enqueue(task func()) {
	select {
	case c.tasks <- task:
	case <-c.done:
	}
}

// NewSession starts a fresh client session at the onboarding gate.
func (c *Controller) NewSession() Session {
	return c.sessions.create(uuid.New().String())
}

func (c *Controller) Snapshot(sessionID string) (Session, error) {
	snap, ok := c.sessions.get(sessionID)
	if !ok {
		return Session{}, ErrUnknownSession
	}
	return snap, nil
}

// Consent dismisses the one-time onboarding gate.
func (c *Controller) Consent(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.Onboarding = false
	})
}

// UploadImage stores the source selfie. Oversized uploads leave the session
// untouched.
func (c *Controller) UploadImage(sessionID, imageDataURL string) (Session, error) {
	if decodedSize(imageDataURL) > maxUploadBytes {
		return Session{}, ErrImageTooLarge
	}
	return c.mutate(sessionID, func(st *sessionState) {
		st.SourceImage = imageDataURL
		st.Screen = ScreenGallery
	})
}

// Generate starts one styling request: the session moves to the preview
// screen in its loading state and the remote call settles asynchronously.
// Only one request per session may be in flight.
func (c *Controller) Generate(sessionID, styleID, modifications string) (Session, error) {
	style, ok := catalog.ByID(styleID)
	if !ok {
		return Session{}, ErrUnknownStyle
	}

	prompt := style.Prompt
	if trimmed := strings.TrimSpace(modifications); trimmed != "" {
		prompt += " with the following modifications: " + trimmed
	}

	var (
		source string
		epoch  uint64
		sem    *semaphore.Weighted
		mErr   error
	)

	snap, err := c.mutate(sessionID, func(st *sessionState) {
		if st.SourceImage == "" {
			mErr = ErrMissingImage
			return
		}
		if !st.generating.TryAcquire(1) {
			mErr = ErrBusy
			return
		}
		sem = st.generating

		st.SelectedStyle = &style
		st.Screen = ScreenPreview
		st.Loading = true
		st.Error = ""
		st.GeneratedImage = ""

		source = st.SourceImage
		epoch = st.epoch
	})
	if err != nil {
		return Session{}, err
	}
	if mErr != nil {
		return Session{}, mErr
	}

	go func() {
		defer sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		image, genErr := c.gen.GenerateStyled(ctx, source, prompt)
		c.sessions.update(sessionID, func(st *sessionState) {
			st.Loading = false
			if st.epoch != epoch {
				return
			}
			if genErr != nil {
				c.logger.Error("generation failed", "session", sessionID, "style", style.ID, "err", genErr)
				st.Error = generateErrorMessage
				return
			}
			st.GeneratedImage = image
		})
	}()

	return snap, nil
}

// ShowBarberCard requires a settled result; without both style and image it
// is a no-op.
func (c *Controller) ShowBarberCard(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		if st.SelectedStyle != nil && st.GeneratedImage != "" {
			st.Screen = ScreenBarberCard
		}
	})
}

func (c *Controller) BackToGallery(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.GeneratedImage = ""
		st.SelectedStyle = nil
		st.Error = ""
		st.Screen = ScreenGallery
	})
}

func (c *Controller) BackToPreview(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.Screen = ScreenPreview
	})
}

func (c *Controller) ChangePhoto(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.SourceImage = ""
		st.Screen = ScreenUpload
	})
}

// Restart clears the whole generate flow. The epoch moves so a late
// completion from the abandoned flow is discarded.
func (c *Controller) Restart(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.epoch++
		st.SourceImage = ""
		st.GeneratedImage = ""
		st.SelectedStyle = nil
		st.Loading = false
		st.Error = ""
		st.Screen = ScreenUpload
	})
}

// ChangeTab switches the active tab. The library is gated: signed-out access
// records a view-library intent and routes through the profile tab instead.
func (c *Controller) ChangeTab(sessionID string, tab Tab) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		if tab == TabLibrary && st.CurrentUser == nil {
			st.PendingIntent = IntentViewLibrary
			st.ActiveTab = TabProfile
			return
		}
		if tab != TabLibrary {
			st.SelectedSaved = nil
		}
		st.ActiveTab = tab
	})
}

// SaveToLibrary persists the current result for the signed-in user. Signed
// out, it records a save-image intent and routes to the profile tab; the save
// itself is re-issued after sign-in.
func (c *Controller) SaveToLibrary(sessionID string) (Session, error) {
	var user *auth.Profile
	snap, err := c.mutate(sessionID, func(st *sessionState) {
		if st.CurrentUser == nil {
			st.PendingIntent = IntentSaveImage
			st.ActiveTab = TabProfile
			return
		}
		user = st.CurrentUser
	})
	if err != nil {
		return Session{}, err
	}

	if user != nil {
		c.enqueue(func() { c.persistLook(sessionID, user) })
	}
	return snap, nil
}

// persistLook runs on the task worker. It re-reads the result fields under
// the session lock, calls the gateway, and merges the record replace-by-id so
// a retried save never duplicates.
func (c *Controller) persistLook(sessionID string, user *auth.Profile) {
	var (
		input store.SaveInput
		epoch uint64
		ready bool
	)
	c.sessions.update(sessionID, func(st *sessionState) {
		if st.GeneratedImage == "" || st.SelectedStyle == nil {
			return
		}
		input = store.SaveInput{
			StyleName:         st.SelectedStyle.Name,
			GeneratedImageURL: st.GeneratedImage,
			PromptSummary:     st.SelectedStyle.Prompt,
		}
		epoch = st.epoch
		ready = true
		st.Saving = true
		st.SaveError = ""
	})
	if !ready {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	record, err := c.gateway.Save(ctx, user.ID, input)
	// The saving flag always clears on settle, even when the epoch moved
	// while the gateway call was in flight. Only the outcome is epoch gated.
	c.sessions.update(sessionID, func(st *sessionState) {
		st.Saving = false
		if st.epoch != epoch {
			return
		}
		if err != nil {
			c.logger.Error("failed to save generated look", "session", sessionID, "user", user.ID, "err", err)
			st.SaveError = saveErrorMessage
			return
		}

		merged := make([]store.SavedImage, 0, len(st.SavedImages)+1)
		merged = append(merged, record)
		for _, img := range st.SavedImages {
			if img.ID == record.ID {
				continue
			}
			merged = append(merged, img)
		}
		st.SavedImages = merged
		st.ActiveTab = TabLibrary
	})
}

// SignIn authenticates through the stand-in, makes the fresh profile current
// and consumes the pending intent exactly once. The deferred save runs as a
// continuation on the task worker, after this state update has committed,
// and uses the just-returned profile rather than session state.
func (c *Controller) SignIn(sessionID string, mode auth.Mode, email, password, fullName string) (Session, error) {
	profile := c.auth.SignIn(mode, email, password, fullName)
	if profile == nil {
		// Empty email stays a silent no-op, like the auth screen itself.
		return c.Snapshot(sessionID)
	}

	var intent Intent
	snap, err := c.mutate(sessionID, func(st *sessionState) {
		st.epoch++
		st.CurrentUser = profile
		st.SavedImages = nil
		st.SelectedSaved = nil
		st.LibraryError = ""
		st.SaveError = ""

		intent = st.PendingIntent
		st.PendingIntent = IntentNone

		switch intent {
		case IntentViewLibrary:
			st.ActiveTab = TabLibrary
		case IntentSaveImage:
			st.ActiveTab = TabGenerate
		}
	})
	if err != nil {
		return Session{}, err
	}

	c.loadLibrary(sessionID, profile.ID)
	if intent == IntentSaveImage {
		c.enqueue(func() { c.persistLook(sessionID, profile) })
	}
	return snap, nil
}

// LastProfile exposes the locally remembered profile so the auth screen can
// prefill the last identity.
func (c *Controller) LastProfile() *auth.Profile {
	return c.auth.LastProfile()
}

func (c *Controller) Logout(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.epoch++
		st.CurrentUser = nil
		st.SavedImages = nil
		st.SelectedSaved = nil
		st.PendingIntent = IntentNone
		st.LibraryLoading = false
		st.LibraryError = ""
		st.SaveError = ""
		st.ActiveTab = TabHome
	})
}

// loadLibrary fetches the user's saved looks on the task worker, so a
// post-login save enqueued right after it can never be clobbered by the list
// result. A stale completion (user switched again) is discarded by the epoch
// check.
func (c *Controller) loadLibrary(sessionID, userID string) {
	var epoch uint64
	_, ok := c.sessions.update(sessionID, func(st *sessionState) {
		st.LibraryLoading = true
		st.LibraryError = ""
		epoch = st.epoch
	})
	if !ok {
		return
	}

	c.enqueue(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		records, err := c.gateway.List(ctx, userID)
		c.sessions.update(sessionID, func(st *sessionState) {
			st.LibraryLoading = false
			if st.epoch != epoch {
				return
			}
			if err != nil {
				c.logger.Error("failed to load saved looks", "session", sessionID, "user", userID, "err", err)
				st.LibraryError = libraryErrorMessage
				return
			}
			st.SavedImages = records
		})
	})
}

func (c *Controller) SelectSaved(sessionID, savedID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		for i := range st.SavedImages {
			if st.SavedImages[i].ID == savedID {
				img := st.SavedImages[i]
				st.SelectedSaved = &img
				return
			}
		}
	})
}

func (c *Controller) ClearSelected(sessionID string) (Session, error) {
	return c.mutate(sessionID, func(st *sessionState) {
		st.SelectedSaved = nil
	})
}

// ExportCard returns the barber-card image for download, upscaled when the
// model cooperates. On upscale failure the original is returned with a
// transient warning instead of an error.
func (c *Controller) ExportCard(ctx context.Context, sessionID string) (image, warning string, err error) {
	snap, err := c.Snapshot(sessionID)
	if err != nil {
		return "", "", err
	}
	if snap.GeneratedImage == "" {
		return "", "", ErrNotReady
	}

	upscaled, upErr := c.gen.Upscale(ctx, snap.GeneratedImage)
	if upErr != nil {
		c.logger.Error("upscaling failed", "session", sessionID, "err", upErr)
		return snap.GeneratedImage, upscaleWarning, nil
	}
	return upscaled, "", nil
}

func (c *Controller) mutate(sessionID string, fn func(*sessionState)) (Session, error) {
	snap, ok := c.sessions.update(sessionID, fn)
	if !ok {
		return Session{}, ErrUnknownSession
	}
	return snap, nil
}

// decodedSize estimates the decoded byte size of a data URL payload.
func decodedSize(dataURL string) int {
	payload := dataURL
	if idx := strings.IndexByte(dataURL, ','); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	return base64.StdEncoding.DecodedLen(len(payload))
}
