package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/kiavash/daftar/config"
	"github.com/kiavash/daftar/internal/api/http/middleware"
	"github.com/kiavash/daftar/internal/render"
	"github.com/kiavash/daftar/internal/service/board"
	"github.com/kiavash/daftar/internal/session"
	"github.com/kiavash/daftar/internal/store"
)

const (
	testSessionID = "11111111-2222-3333-4444-555555555555"
	testToken     = "deadbeefdeadbeefdeadbeefdeadbeef"
)

type fakeDB struct {
	messages []store.Message
	nextID   int64
}

func (f *fakeDB) InsertMessage(ctx context.Context, m store.NewMessage) (*store.Message, error) {
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

// newTestApp wires a fiber app with a seeded session so tests can post with
// a known cookie and token.
func newTestApp(t *testing.T, db *fakeDB) *fiber.App {
	t.Helper()

	tokens := &fakeTokens{values: map[string]string{
		"session:" + testSessionID: testToken,
	}}
	sessions := session.NewManager(tokens, config.SessionConfig{})
	svc := board.New(db, sessions, 10)

	renderer, err := render.New("UTC")
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}

	h := NewBoardHandler(svc, sessions, renderer)

	app := fiber.New()
	app.Use(middleware.RequestID())
	app.Get("/", h.Show)
	app.Post("/", h.Submit)
	return app
}

func postForm(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "daftar_session", Value: testSessionID})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	resp.Body.Close()
	return string(body)
}

func validForm() url.Values {
	return url.Values{
		"name":       {"Mina"},
		"email":      {"mina@example.com"},
		"website":    {"example.com"},
		"topic":      {"Hello"},
		"comment":    {"First entry"},
		"nickname":   {""},
		"csrf_token": {testToken},
	}
}

func TestShowRendersFormAndSession(t *testing.T) {
	app := newTestApp(t, &fakeDB{})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, `name="csrf_token"`) {
		t.Error("form is missing the security token field")
	}
	if !strings.Contains(body, `name="nickname"`) {
		t.Error("form is missing the honeypot field")
	}

	var sessionCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == "daftar_session" && c.Value != "" {
			sessionCookie = true
		}
	}
	if !sessionCookie {
		t.Error("no session cookie set on first visit")
	}
}

func TestSubmitValidRedirects(t *testing.T) {
	db := &fakeDB{}
	app := newTestApp(t, db)

	resp := postForm(t, app, validForm())

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/?posted=1" {
		t.Errorf("Location = %q, want %q", loc, "/?posted=1")
	}
	if len(db.messages) != 1 {
		t.Fatalf("persisted %d rows, want 1", len(db.messages))
	}
	if db.messages[0].Website != "http://example.com" {
		t.Errorf("website = %q, want normalized http://example.com", db.messages[0].Website)
	}
}

func TestSubmitHoneypotRejects(t *testing.T) {
	db := &fakeDB{}
	app := newTestApp(t, db)

	form := validForm()
	form.Set("nickname", "bot")

	resp := postForm(t, app, form)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(readBody(t, resp), board.MsgSpamTriggered) {
		t.Error("spam message missing from response")
	}
	if len(db.messages) != 0 {
		t.Errorf("persisted %d rows, want 0", len(db.messages))
	}
}

func TestSubmitBadTokenRejectsAndPreservesInput(t *testing.T) {
	db := &fakeDB{}
	app := newTestApp(t, db)

	form := validForm()
	form.Set("csrf_token", "ffffffffffffffffffffffffffffffff")

	resp := postForm(t, app, form)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, board.MsgSecurityFailed) {
		t.Error("security message missing from response")
	}
	// all typed values come back so the visitor does not retype everything
	for _, want := range []string{"Mina", "mina@example.com", "example.com", "Hello", "First entry"} {
		if !strings.Contains(body, want) {
			t.Errorf("response lost typed value %q", want)
		}
	}
	if len(db.messages) != 0 {
		t.Errorf("persisted %d rows, want 0", len(db.messages))
	}
}

func TestShowOutOfRangePage(t *testing.T) {
	db := &fakeDB{}
	app := newTestApp(t, db)

	for i := 0; i < 25; i++ {
		if resp := postForm(t, app, validForm()); resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("seed post status = %d", resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, "/?page=4", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	body := readBody(t, resp)
	if strings.Contains(body, "<article>") {
		t.Error("out-of-range page rendered entries")
	}
	for _, link := range []string{"/?page=1", "/?page=2", "/?page=3"} {
		if !strings.Contains(body, link) {
			t.Errorf("pagination strip missing %q", link)
		}
	}
	if strings.Contains(body, "/?page=5") {
		t.Error("pagination strip has a link past the last page")
	}
}

func TestShowPostedNotice(t *testing.T) {
	app := newTestApp(t, &fakeDB{})

	req, _ := http.NewRequest(http.MethodGet, "/?posted=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if !strings.Contains(readBody(t, resp), "notice") {
		t.Error("posted notice missing")
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 1},
		{in: "abc", want: 1},
		{in: "0", want: 1},
		{in: "-5", want: 1},
		{in: "2", want: 2},
		{in: "999", want: 999},
	}

	for _, tt := range tests {
		if got := parsePage(tt.in); got != tt.want {
			t.Errorf("parsePage(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
