package handler

import (
	"bytes"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/kiavash/daftar/internal/api/http/middleware"
	"github.com/kiavash/daftar/internal/render"
	"github.com/kiavash/daftar/internal/service/board"
	"github.com/kiavash/daftar/internal/session"
)

type BoardHandler struct {
	svc      board.Service
	sessions *session.Manager
	renderer *render.Renderer
}

func NewBoardHandler(svc board.Service, sessions *session.Manager, renderer *render.Renderer) *BoardHandler {
	return &BoardHandler{svc: svc, sessions: sessions, renderer: renderer}
}

type submitRequest struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Website string `form:"website"`
	Topic   string `form:"topic"`
	Comment string `form:"comment"`

	// Nickname is the honeypot; any value marks the submission as spam.
	Nickname string `form:"nickname"`

	CSRFToken string `form:"csrf_token"`
}

// Show renders the submission form plus the requested listing page.
func (h *BoardHandler) Show(c fiber.Ctx) error {
	sess, err := h.ensureSession(c)
	if err != nil {
		// The board stays readable without a session; only posting needs one.
		slog.Warn("session unavailable", "error", err)
	}

	page, err := h.svc.Page(c.Context(), parsePage(c.Query("page")))
	if err != nil {
		return internalError(c)
	}

	posted := c.Request().URI().QueryArgs().Has("posted")

	return h.renderBoard(c, fiber.StatusOK, page, render.FormValues{}, nil, sess, posted)
}

// Submit handles a new guestbook entry. Success redirects to the listing
// (Post/Redirect/Get); validation failure re-renders the form with all
// collected errors and the previously typed values.
func (h *BoardHandler) Submit(c fiber.Ctx) error {
	sess, err := h.ensureSession(c)
	if err != nil {
		// Without a session the token check below fails closed.
		slog.Warn("session unavailable", "error", err)
	}

	var req submitRequest
	if err := c.Bind().Form(&req); err != nil {
		return badRequest(c)
	}

	ctx := middleware.ContextWithMeta(c)
	verrs, err := h.svc.Submit(ctx, sess, board.Submission{
		Name:     req.Name,
		Email:    req.Email,
		Website:  req.Website,
		Topic:    req.Topic,
		Comment:  req.Comment,
		Honeypot: req.Nickname,
		Token:    req.CSRFToken,
	})
	if err != nil {
		return internalError(c)
	}

	if len(verrs) > 0 {
		page, err := h.svc.Page(c.Context(), 1)
		if err != nil {
			return internalError(c)
		}
		form := render.FormValues{
			Name:    req.Name,
			Email:   req.Email,
			Website: req.Website,
			Topic:   req.Topic,
			Comment: req.Comment,
		}
		return h.renderBoard(c, fiber.StatusOK, page, form, verrs, sess, false)
	}

	return c.Redirect().Status(fiber.StatusSeeOther).To("/?posted=1")
}

func (h *BoardHandler) renderBoard(c fiber.Ctx, status int, page *board.Page, form render.FormValues, verrs []string, sess *session.Session, posted bool) error {
	token := ""
	if sess != nil {
		token = sess.Token
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, h.renderer.Board(page, form, verrs, token, posted)); err != nil {
		slog.Error("failed to render board", "error", err)
		return internalError(c)
	}

	return html(c, status, buf.Bytes())
}

func (h *BoardHandler) ensureSession(c fiber.Ctx) (*session.Session, error) {
	sess, err := h.sessions.Ensure(c.Context(), c.Cookies(h.sessions.CookieName()))
	if err != nil {
		return nil, err
	}

	if sess.IsNew {
		c.Cookie(&fiber.Cookie{
			Name:     h.sessions.CookieName(),
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(h.sessions.TTL().Seconds()),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	return sess, nil
}

// parsePage coerces the page query parameter: missing, non-numeric, or
// below 1 all become 1. Out-of-range values are not clamped.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
