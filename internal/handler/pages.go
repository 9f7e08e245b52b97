package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/linkpage/internal/apperror"
	"github.com/sakif/linkpage/internal/service"
)

// PagesHandler renders the HTML pages: landing, dashboard, and the public
// profile page. Templates are parsed once at startup — a parse error should
// kill the server at boot, not surface as a 500 on the first visit.
//
// The dashboard page itself is a static shell; the editor JS under
// /static/js fetches /api/links and talks to the JSON API from there.
type PagesHandler struct {
	templates *template.Template
	profiles  *service.ProfileService
	logger    *slog.Logger
}

// NewPagesHandler parses all templates in templateDir and creates the handler.
func NewPagesHandler(templateDir string, profiles *service.ProfileService, logger *slog.Logger) (*PagesHandler, error) {
	tmpl, err := template.ParseGlob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("handler: parsing templates from %s: %w", templateDir, err)
	}

	return &PagesHandler{
		templates: tmpl,
		profiles:  profiles,
		logger:    logger,
	}, nil
}

// HandleHome renders the landing page with login/register forms.
//
// HTTP: GET /
func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, "home.html", nil)
}

// HandleDashboard renders the link editor shell.
//
// HTTP: GET /dashboard
//
// No auth check here: the page loads for everyone, and the editor JS
// redirects to / when GET /api/me answers 401. Keeping HTML unauthenticated
// means the session check lives in exactly one place (the API middleware).
func (h *PagesHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, "dashboard.html", nil)
}

// HandlePublicPage renders a user's shareable page.
//
// HTTP: GET /u/{username}
func (h *PagesHandler) HandlePublicPage(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.profiles.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.Error(w, "no such page", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load public page",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "profile.html", profile)
}

func (h *PagesHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}
