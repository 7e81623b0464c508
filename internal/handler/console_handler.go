package handler

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"promo-console/internal/form"
	"promo-console/internal/middleware"
	"promo-console/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SessionCookie names the cookie holding the console session id.
const SessionCookie = "promo_console_session"

//go:embed templates/console.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/console.html"))

// pageData is what the console page renders.
type pageData struct {
	State     form.State
	RequestID string
}

// actionFunc runs one controller operation for a bound submission.
type actionFunc func(ctx context.Context, c *form.Controller, r *http.Request) error

// ConsoleHandler serves the promotion console page and its form actions.
type ConsoleHandler struct {
	sessions *session.Store
	logger   zerolog.Logger
}

// NewConsoleHandler creates a new console handler.
func NewConsoleHandler(sessions *session.Store, logger zerolog.Logger) *ConsoleHandler {
	return &ConsoleHandler{
		sessions: sessions,
		logger:   logger.With().Str("handler", "console").Logger(),
	}
}

// Page handles GET / requests.
func (h *ConsoleHandler) Page(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	var buf bytes.Buffer
	data := pageData{State: c.State(), RequestID: middleware.GetRequestID(r.Context())}
	if err := page.Execute(&buf, data); err != nil {
		h.logger.Error().Err(err).Msg("failed to render console page")
		writeError(w, r, http.StatusInternalServerError, "failed to render page", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// State handles GET /state requests.
func (h *ConsoleHandler) State(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)
	writeJSON(w, http.StatusOK, c.State(), h.logger)
}

// Create handles POST /actions/create requests.
func (h *ConsoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionCreate, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Create(ctx)
	})
}

// Update handles POST /actions/update requests.
func (h *ConsoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionUpdate, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Update(ctx)
	})
}

// Retrieve handles POST /actions/retrieve requests.
func (h *ConsoleHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionRetrieve, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Retrieve(ctx)
	})
}

// Delete handles POST /actions/delete requests.
func (h *ConsoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionDelete, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Delete(ctx)
	})
}

// Search handles POST /actions/search requests.
func (h *ConsoleHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionSearch, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Search(ctx)
	})
}

// Clear handles POST /actions/clear requests.
func (h *ConsoleHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionClear, func(_ context.Context, c *form.Controller, _ *http.Request) error {
		c.Clear()
		return nil
	})
}

// AddRow handles POST /actions/rows requests.
func (h *ConsoleHandler) AddRow(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionAddRow, func(_ context.Context, c *form.Controller, _ *http.Request) error {
		c.AddProductRow()
		return nil
	})
}

// RemoveRow handles POST /actions/rows/{index}/remove requests.
func (h *ConsoleHandler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionRemoveRow, func(_ context.Context, c *form.Controller, r *http.Request) error {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			index = -1
		}
		return c.RemoveProductRow(index)
	})
}

// Apply handles POST /actions/apply requests.
func (h *ConsoleHandler) Apply(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionApply, func(ctx context.Context, c *form.Controller, _ *http.Request) error {
		return c.Apply(ctx)
	})
}

// Import handles POST /actions/import requests.
func (h *ConsoleHandler) Import(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, form.ActionImport, func(ctx context.Context, c *form.Controller, r *http.Request) error {
		return c.Import(ctx, r.PostForm.Get("source"))
	})
}

// act binds the submitted form into the session's controller, runs the
// action and redirects back to the page. Action errors are already shown
// in the flash message.
func (h *ConsoleHandler) act(w http.ResponseWriter, r *http.Request, action string, fn actionFunc) {
	c := h.controller(w, r)

	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form submission", h.logger)
		return
	}
	c.Bind(inputFrom(r.PostForm))

	if err := fn(r.Context(), c, r); err != nil {
		h.logger.Debug().
			Err(err).
			Str("action", action).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("action finished with error")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// controller returns the controller of the request's session, issuing a
// new session cookie when the request has none or an unknown one.
func (h *ConsoleHandler) controller(w http.ResponseWriter, r *http.Request) *form.Controller {
	var requested string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		requested = cookie.Value
	}

	id, c := h.sessions.Get(requested)
	if id != requested {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c
}

// inputFrom reads a console form submission. Product line rows are paired
// by position from the repeated product_id and price fields.
func inputFrom(values url.Values) form.Input {
	in := form.Input{
		Fields: form.Fields{
			ID:         values.Get("id"),
			Code:       values.Get("code"),
			Percentage: values.Get("percentage"),
			Products:   values.Get("products"),
			StartDate:  values.Get("start_date"),
			ExpiryDate: values.Get("expiry_date"),
		},
		ApplyPromotionID: values.Get("apply_promotion_id"),
	}

	ids := values["product_id"]
	prices := values["price"]
	n := max(len(ids), len(prices))
	if n > 0 {
		in.Rows = make([]form.RowInput, n)
	}
	for i := range n {
		if i < len(ids) {
			in.Rows[i].ProductID = ids[i]
		}
		if i < len(prices) {
			in.Rows[i].Price = prices[i]
		}
	}
	return in
}
