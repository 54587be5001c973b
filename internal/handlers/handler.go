package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"barbertry/internal/auth"
	"barbertry/internal/catalog"
	"barbertry/internal/flow"
)

// Handler is the view layer: every route decodes one user intent, hands it to
// the flow controller and renders the resulting session snapshot. No business
// rules live here.
type Handler struct {
	controller *flow.Controller
	logger     *slog.Logger
}

type Options struct {
	Controller *flow.Controller
	Logger     *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{controller: opts.Controller, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/session", h.post(h.handleNewSession))
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/styles", h.handleStyles)
	mux.HandleFunc("/api/consent", h.post(h.handleConsent))
	mux.HandleFunc("/api/upload", h.post(h.handleUpload))
	mux.HandleFunc("/api/generate", h.post(h.handleGenerate))
	mux.HandleFunc("/api/barber-card", h.post(h.handleBarberCard))
	mux.HandleFunc("/api/back-to-gallery", h.post(h.handleBackToGallery))
	mux.HandleFunc("/api/back-to-preview", h.post(h.handleBackToPreview))
	mux.HandleFunc("/api/change-photo", h.post(h.handleChangePhoto))
	mux.HandleFunc("/api/restart", h.post(h.handleRestart))
	mux.HandleFunc("/api/tab", h.post(h.handleTab))
	mux.HandleFunc("/api/save", h.post(h.handleSave))
	mux.HandleFunc("/api/signin", h.post(h.handleSignIn))
	mux.HandleFunc("/api/profile/last", h.handleLastProfile)
	mux.HandleFunc("/api/logout", h.post(h.handleLogout))
	mux.HandleFunc("/api/library/select", h.post(h.handleSelectSaved))
	mux.HandleFunc("/api/library/close", h.post(h.handleClearSelected))
	mux.HandleFunc("/api/export", h.post(h.handleExport))
}

type apiError struct {
	Error string `json:"error"`
}

type stateResponse struct {
	State           flow.Session `json:"state"`
	RedirectMessage string       `json:"redirectMessage,omitempty"`
}

type sessionRequest struct {
	Session       string `json:"session"`
	Image         string `json:"image,omitempty"`
	StyleID       string `json:"styleId,omitempty"`
	Modifications string `json:"modifications,omitempty"`
	Tab           string `json:"tab,omitempty"`
	Mode          string `json:"mode,omitempty"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"password,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	SavedID       string `json:"savedId,omitempty"`
}

type exportResponse struct {
	Image   string `json:"image"`
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) post(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
			return
		}
		fn(w, r)
	}
}

func (h *Handler) handleNewSession(w http.ResponseWriter, _ *http.Request) {
	h.writeState(w, h.controller.NewSession())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	snap, err := h.controller.Snapshot(r.URL.Query().Get("session"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeState(w, snap)
}

func (h *Handler) handleStyles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, catalog.Styles())
}

func (h *Handler) handleConsent(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.Consent(req.Session)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.UploadImage(req.Session, req.Image)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.Generate(req.Session, req.StyleID, req.Modifications)
	})
}

func (h *Handler) handleBarberCard(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.ShowBarberCard(req.Session)
	})
}

func (h *Handler) handleBackToGallery(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.BackToGallery(req.Session)
	})
}

func (h *Handler) handleBackToPreview(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.BackToPreview(req.Session)
	})
}

func (h *Handler) handleChangePhoto(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.ChangePhoto(req.Session)
	})
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.Restart(req.Session)
	})
}

func (h *Handler) handleTab(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.ChangeTab(req.Session, flow.Tab(req.Tab))
	})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.SaveToLibrary(req.Session)
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.SignIn(req.Session, auth.Mode(req.Mode), req.Email, req.Password, req.FullName)
	})
}

func (h *Handler) handleLastProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	profile := h.controller.LastProfile()
	if profile == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: "no stored profile"})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.Logout(req.Session)
	})
}

func (h *Handler) handleSelectSaved(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.SelectSaved(req.Session, req.SavedID)
	})
}

func (h *Handler) handleClearSelected(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, func(req sessionRequest) (flow.Session, error) {
		return h.controller.ClearSelected(req.Session)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	image, warning, err := h.controller.ExportCard(ctx, req.Session)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exportResponse{Image: image, Warning: warning})
}

func (h *Handler) intent(w http.ResponseWriter, r *http.Request, fn func(sessionRequest) (flow.Session, error)) {
	var req sessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	snap, err := fn(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeState(w, snap)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req *sessionRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) writeState(w http.ResponseWriter, snap flow.Session) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:           snap,
		RedirectMessage: snap.RedirectMessage(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, flow.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, flow.ErrBusy):
		status = http.StatusConflict
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
