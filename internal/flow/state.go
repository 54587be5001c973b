package flow

import (
	"barbertry/internal/auth"
	"barbertry/internal/catalog"
	"barbertry/internal/store"
)

// Screen is the generate-flow position; it only matters while TabGenerate is
// active.
type Screen string

const (
	ScreenUpload     Screen = "upload"
	ScreenGallery    Screen = "gallery"
	ScreenPreview    Screen = "preview"
	ScreenBarberCard Screen = "barber_card"
)

type Tab string

const (
	TabHome          Tab = "home"
	TabGenerate      Tab = "generate"
	TabLibrary       Tab = "library"
	TabNotifications Tab = "notifications"
	TabProfile       Tab = "profile"
)

// Intent marks a gated action attempted while signed out. It is consumed
// exactly once, on the sign-in that follows.
type Intent string

const (
	IntentNone        Intent = ""
	IntentSaveImage   Intent = "save-image"
	IntentViewLibrary Intent = "view-library"
)

// Session is the ephemeral per-client state the controller owns. Snapshots of
// it are what the view renders.
type Session struct {
	ID         string `json:"id"`
	Onboarding bool   `json:"onboarding"`
	Screen     Screen `json:"screen"`
	ActiveTab  Tab    `json:"activeTab"`

	CurrentUser *auth.Profile `json:"currentUser,omitempty"`

	SavedImages    []store.SavedImage `json:"savedImages"`
	LibraryLoading bool               `json:"libraryLoading"`
	LibraryError   string             `json:"libraryError,omitempty"`
	SelectedSaved  *store.SavedImage  `json:"selectedSaved,omitempty"`

	PendingIntent Intent `json:"pendingIntent,omitempty"`

	SourceImage    string         `json:"sourceImage,omitempty"`
	GeneratedImage string         `json:"generatedImage,omitempty"`
	SelectedStyle  *catalog.Style `json:"selectedStyle,omitempty"`
	Loading        bool           `json:"loading"`
	Error          string         `json:"error,omitempty"`
	Saving         bool           `json:"saving"`
	SaveError      string         `json:"saveError,omitempty"`
}

// RedirectMessage explains to the auth screen why the user landed there.
func (s Session) RedirectMessage() string {
	switch s.PendingIntent {
	case IntentSaveImage:
		return "Please sign in so we can store this look in your library."
	case IntentViewLibrary:
		return "Sign in to access every look you have saved."
	default:
		return ""
	}
}

func newSession(id string) Session {
	return Session{
		ID:         id,
		Onboarding: true,
		Screen:     ScreenUpload,
		ActiveTab:  TabHome,
	}
}
