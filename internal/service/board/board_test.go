package board

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiavash/daftar/config"
	"github.com/kiavash/daftar/internal/session"
	"github.com/kiavash/daftar/internal/store"
	"github.com/kiavash/daftar/pkg/reqctx"
)

// fakeDB implements the Store interface in memory with descending-id order.
type fakeDB struct {
	messages  []store.Message
	nextID    int64
	insertErr error
	listErr   error
}

func (f *fakeDB) InsertMessage(ctx context.Context, m store.NewMessage) (*store.Message, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	msg := store.Message{
		ID:        f.nextID,
		Name:      m.Name,
		Email:     m.Email,
		Website:   m.Website,
		Topic:     m.Topic,
		Comment:   m.Comment,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		CreatedAt: time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeDB) CountMessages(ctx context.Context) (int, error) {
	return len(f.messages), nil
}

func (f *fakeDB) ListMessages(ctx context.Context, limit, offset int) ([]store.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// newest first: reverse insertion order
	var out []store.Message
	for i := len(f.messages) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.messages[i])
	}
	return out, nil
}

type fakeTokens struct {
	values map[string]string
}

func (f *fakeTokens) Get(ctx context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeTokens) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	return nil
}

func newTestService(t *testing.T, db Store) (Service, *session.Session, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(&fakeTokens{values: make(map[string]string)}, config.SessionConfig{})
	sess, err := mgr.Ensure(context.Background(), "")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	return New(db, mgr, 10), sess, mgr
}

func validSubmission(token string) Submission {
	return Submission{
		Name:    "Mina",
		Email:   "mina@example.com",
		Website: "example.com",
		Topic:   "Hello board",
		Comment: "First!\nCheck https://example.com now",
		Token:   token,
	}
}

func TestSubmitValid(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{
		ClientIP:  "203.0.113.9",
		UserAgent: "curl/8.0",
	})

	verrs, err := svc.Submit(ctx, sess, validSubmission(sess.Token))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(verrs) != 0 {
		t.Fatalf("Submit() validation errors = %v, want none", verrs)
	}
	if len(db.messages) != 1 {
		t.Fatalf("Submit() persisted %d rows, want 1", len(db.messages))
	}

	msg := db.messages[0]
	if msg.Website != "http://example.com" {
		t.Errorf("website = %q, want %q", msg.Website, "http://example.com")
	}
	if msg.Email != "mina@example.com" {
		t.Errorf("email = %q, want %q", msg.Email, "mina@example.com")
	}
	if msg.IP != "203.0.113.9" {
		t.Errorf("ip = %q, want %q", msg.IP, "203.0.113.9")
	}
	if msg.UserAgent != "curl/8.0" {
		t.Errorf("user agent = %q, want %q", msg.UserAgent, "curl/8.0")
	}
}

func TestSubmitTruncatesUserAgent(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	ctx := reqctx.WithRequestMeta(context.Background(), &reqctx.RequestMeta{
		UserAgent: strings.Repeat("é", 300),
	})

	verrs, err := svc.Submit(ctx, sess, validSubmission(sess.Token))
	if err != nil || len(verrs) != 0 {
		t.Fatalf("Submit() = %v, %v", verrs, err)
	}

	if got := len([]rune(db.messages[0].UserAgent)); got != 250 {
		t.Errorf("user agent rune length = %d, want 250", got)
	}
}

func TestSubmitHoneypotRejects(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	sub := validSubmission(sess.Token)
	sub.Honeypot = "Buy cheap pills"

	verrs, err := svc.Submit(context.Background(), sess, sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(verrs) != 1 || verrs[0] != MsgSpamTriggered {
		t.Errorf("Submit() errors = %v, want [%q]", verrs, MsgSpamTriggered)
	}
	if len(db.messages) != 0 {
		t.Errorf("Submit() persisted %d rows, want 0", len(db.messages))
	}
}

func TestSubmitTokenMismatchRejects(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "wrong token", token: "ffffffffffffffffffffffffffffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verrs, err := svc.Submit(context.Background(), sess, validSubmission(tt.token))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if len(verrs) != 1 || verrs[0] != MsgSecurityFailed {
				t.Errorf("Submit() errors = %v, want [%q]", verrs, MsgSecurityFailed)
			}
			if len(db.messages) != 0 {
				t.Errorf("Submit() persisted %d rows, want 0", len(db.messages))
			}
		})
	}
}

func TestSubmitAccumulatesAllErrors(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	sub := Submission{
		Name:     " x ",
		Topic:    "a",
		Comment:  "",
		Honeypot: "bot",
		Token:    "wrong",
	}

	verrs, err := svc.Submit(context.Background(), sess, sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []string{MsgSecurityFailed, MsgSpamTriggered, MsgNameTooShort, MsgTopicTooShort, MsgCommentTooShort}
	if len(verrs) != len(want) {
		t.Fatalf("Submit() errors = %v, want %v", verrs, want)
	}
	for i := range want {
		if verrs[i] != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, verrs[i], want[i])
		}
	}
	if len(db.messages) != 0 {
		t.Errorf("Submit() persisted %d rows, want 0", len(db.messages))
	}
}

func TestSubmitOverlongOptionalFields(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	sub := validSubmission(sess.Token)
	sub.Email = strings.Repeat("a", 250) + "@example.com"
	sub.Website = "http://example.com/" + strings.Repeat("p", 300)

	verrs, err := svc.Submit(context.Background(), sess, sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := []string{MsgEmailTooLong, MsgWebsiteTooLong}
	if len(verrs) != len(want) {
		t.Fatalf("Submit() errors = %v, want %v", verrs, want)
	}
	if len(db.messages) != 0 {
		t.Errorf("Submit() persisted %d rows, want 0", len(db.messages))
	}
}

func TestSubmitInsertFailure(t *testing.T) {
	db := &fakeDB{insertErr: errors.New("connection reset")}
	svc, sess, _ := newTestService(t, db)

	_, err := svc.Submit(context.Background(), sess, validSubmission(sess.Token))
	if !errors.Is(err, ErrInternal) {
		t.Errorf("Submit() error = %v, want ErrInternal", err)
	}
}

func TestNormalizeWebsite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare domain gains scheme", in: "example.com", want: "http://example.com"},
		{name: "https kept unchanged", in: "https://ok.com", want: "https://ok.com"},
		{name: "not a url dropped", in: "not a url", want: ""},
		{name: "empty stays empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
		{name: "javascript scheme dropped", in: "javascript:alert(1)", want: ""},
		{name: "ftp scheme dropped", in: "ftp://files.example.com", want: ""},
		{name: "path preserved", in: "example.com/guest?x=1", want: "http://example.com/guest?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeWebsite(tt.in); got != tt.want {
				t.Errorf("normalizeWebsite(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "valid address", in: "a@b.example", want: "a@b.example"},
		{name: "trimmed", in: "  a@b.example  ", want: "a@b.example"},
		{name: "invalid dropped", in: "not-an-email", want: ""},
		{name: "display name form dropped", in: "Mina <a@b.example>", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeEmail(tt.in); got != tt.want {
				t.Errorf("normalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSubmitMultibyteLengths(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	// two runes, four bytes: long enough
	sub := validSubmission(sess.Token)
	sub.Name = "éé"

	verrs, err := svc.Submit(context.Background(), sess, sub)
	if err != nil || len(verrs) != 0 {
		t.Fatalf("Submit() = %v, %v, want clean pass", verrs, err)
	}
}

func TestPagePagination(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	ctx := context.Background()
	for i := 0; i < 25; i++ {
		sub := validSubmission(sess.Token)
		verrs, err := svc.Submit(ctx, sess, sub)
		if err != nil || len(verrs) != 0 {
			t.Fatalf("seed Submit() = %v, %v", verrs, err)
		}
	}

	tests := []struct {
		name       string
		number     int
		wantRows   int
		wantNumber int
	}{
		{name: "first page full", number: 1, wantRows: 10, wantNumber: 1},
		{name: "last page partial", number: 3, wantRows: 5, wantNumber: 3},
		{name: "out of range empty", number: 4, wantRows: 0, wantNumber: 4},
		{name: "zero clamps to one", number: 0, wantRows: 10, wantNumber: 1},
		{name: "negative clamps to one", number: -3, wantRows: 10, wantNumber: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Page(ctx, tt.number)
			if err != nil {
				t.Fatalf("Page() error = %v", err)
			}
			if len(page.Messages) != tt.wantRows {
				t.Errorf("Page() rows = %d, want %d", len(page.Messages), tt.wantRows)
			}
			if page.Number != tt.wantNumber {
				t.Errorf("Page() number = %d, want %d", page.Number, tt.wantNumber)
			}
			if page.TotalPages != 3 {
				t.Errorf("Page() total pages = %d, want 3", page.TotalPages)
			}
			if page.TotalCount != 25 {
				t.Errorf("Page() total count = %d, want 25", page.TotalCount)
			}
		})
	}
}

func TestPageEmptyBoardReportsOnePage(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDB{})

	page, err := svc.Page(context.Background(), 1)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	if page.TotalPages != 1 {
		t.Errorf("Page() total pages = %d, want 1", page.TotalPages)
	}
	if len(page.Messages) != 0 {
		t.Errorf("Page() rows = %d, want 0", len(page.Messages))
	}
}

func TestPageNewestFirst(t *testing.T) {
	db := &fakeDB{}
	svc, sess, _ := newTestService(t, db)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if verrs, err := svc.Submit(ctx, sess, validSubmission(sess.Token)); err != nil || len(verrs) != 0 {
			t.Fatalf("seed Submit() = %v, %v", verrs, err)
		}
	}

	page, err := svc.Page(ctx, 1)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i-1].ID <= page.Messages[i].ID {
			t.Errorf("messages not in descending id order: %d before %d",
				page.Messages[i-1].ID, page.Messages[i].ID)
		}
	}
}
