// Package board implements the guestbook's two pipelines: validating and
// persisting a submission, and fetching one listing page.
package board

import (
	"context"
	"log/slog"

	"github.com/kiavash/daftar/internal/session"
	"github.com/kiavash/daftar/internal/store"
	"github.com/kiavash/daftar/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Submission carries the raw form values of one POST.
type Submission struct {
	Name    string
	Email   string
	Website string
	Topic   string
	Comment string

	// Honeypot is the hidden trap field; humans leave it empty.
	Honeypot string

	// Token is the submitted security token.
	Token string
}

// Page is one listing page plus its pagination bounds.
type Page struct {
	Messages   []store.Message
	Number     int
	Size       int
	TotalCount int
	TotalPages int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Store is the persistence surface the board needs.
type Store interface {
	InsertMessage(ctx context.Context, m store.NewMessage) (*store.Message, error)
	CountMessages(ctx context.Context) (int, error)
	ListMessages(ctx context.Context, limit, offset int) ([]store.Message, error)
}

type Service interface {
	// Submit validates sub against sess and persists it. It returns the
	// accumulated user-facing validation errors (nil means one row was
	// written) or an infrastructure error.
	Submit(ctx context.Context, sess *session.Session, sub Submission) ([]string, error)

	// Page fetches listing page number (1-based, clamped to a minimum of 1,
	// never clamped from above).
	Page(ctx context.Context, number int) (*Page, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type boardService struct {
	db       Store
	sessions *session.Manager
	pageSize int
}

func New(db Store, sessions *session.Manager, pageSize int) Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &boardService{db: db, sessions: sessions, pageSize: pageSize}
}

func (s *boardService) Submit(ctx context.Context, sess *session.Session, sub Submission) ([]string, error) {
	msg, verrs := s.validate(sess, sub)
	if len(verrs) > 0 {
		if sub.Honeypot != "" {
			meta, _ := reqctx.RequestMetaFromContext(ctx)
			ip := ""
			if meta != nil {
				ip = meta.ClientIP
			}
			slog.Warn("honeypot triggered", "ip", ip)
		}
		return verrs, nil
	}

	if meta, ok := reqctx.RequestMetaFromContext(ctx); ok {
		msg.IP = meta.ClientIP
		msg.UserAgent = truncateRunes(meta.UserAgent, maxUserAgentLen)
	}

	if _, err := s.db.InsertMessage(ctx, msg); err != nil {
		slog.Error("failed to insert message", "error", err)
		return nil, ErrInternal
	}

	return nil, nil
}

func (s *boardService) Page(ctx context.Context, number int) (*Page, error) {
	if number < 1 {
		number = 1
	}

	count, err := s.db.CountMessages(ctx)
	if err != nil {
		slog.Error("failed to count messages", "error", err)
		return nil, ErrInternal
	}

	totalPages := (count + s.pageSize - 1) / s.pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	offset := (number - 1) * s.pageSize
	msgs, err := s.db.ListMessages(ctx, s.pageSize, offset)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
		return nil, ErrInternal
	}

	return &Page{
		Messages:   msgs,
		Number:     number,
		Size:       s.pageSize,
		TotalCount: count,
		TotalPages: totalPages,
	}, nil
}
