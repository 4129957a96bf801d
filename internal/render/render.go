// Package render turns board pages into HTML. All user-supplied text is
// escaped before any markup is produced: auto-linking and newline conversion
// run over the already-escaped string, so no substitution can reopen an
// injection path.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/kiavash/daftar/internal/service/board"
)

//go:embed templates/board.html
var templatesFS embed.FS

// urlPattern matches bare http(s) URLs inside escaped text. `<` cannot occur
// in escaped output, so the class only needs to stop at whitespace and the
// entity-ampersand boundary is left intact on purpose.
var urlPattern = regexp.MustCompile(`https?://[^\s<]+`)

const linkAttrs = `target="_blank" rel="nofollow noopener noreferrer"`

// FormValues are the previously typed values redisplayed after a rejected
// submission.
type FormValues struct {
	Name    string
	Email   string
	Website string
	Topic   string
	Comment string
}

// MessageView is one rendered guestbook entry.
type MessageView struct {
	Name    string
	Website string
	Topic   string
	Comment template.HTML
	Posted  string
}

// PageLink is one entry of the pagination strip.
type PageLink struct {
	Number int
	Active bool
}

// BoardData is everything the board template needs for one render.
type BoardData struct {
	Posted   bool
	Errors   []string
	Token    string
	Form     FormValues
	Messages []MessageView
	Pages    []PageLink
	Page     int
	Total    int
}

type Renderer struct {
	tmpl *template.Template
	loc  *time.Location
}

// New parses the board template and resolves the display timezone. An empty
// timezone falls back to UTC.
func New(timezone string) (*Renderer, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid display timezone %q: %w", timezone, err)
		}
		loc = l
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/board.html")
	if err != nil {
		return nil, fmt.Errorf("parse board template: %w", err)
	}

	return &Renderer{tmpl: tmpl, loc: loc}, nil
}

// Board assembles the template data for one listing page.
func (r *Renderer) Board(page *board.Page, form FormValues, errs []string, token string, posted bool) BoardData {
	data := BoardData{
		Posted: posted,
		Errors: errs,
		Token:  token,
		Form:   form,
		Page:   page.Number,
		Total:  page.TotalCount,
	}

	for _, m := range page.Messages {
		data.Messages = append(data.Messages, MessageView{
			Name:    m.Name,
			Website: m.Website,
			Topic:   m.Topic,
			Comment: linkify(m.Comment),
			Posted:  m.CreatedAt.In(r.loc).Format("02.01.2006 15:04"),
		})
	}

	for n := 1; n <= page.TotalPages; n++ {
		data.Pages = append(data.Pages, PageLink{Number: n, Active: n == page.Number})
	}

	return data
}

// Render writes the board page.
func (r *Renderer) Render(w io.Writer, data BoardData) error {
	return r.tmpl.Execute(w, data)
}

// linkify escapes the comment, wraps bare URLs in links, and converts line
// breaks, in that order.
func linkify(comment string) template.HTML {
	escaped := template.HTMLEscapeString(comment)

	linked := urlPattern.ReplaceAllStringFunc(escaped, func(u string) string {
		return `<a href="` + u + `" ` + linkAttrs + `>` + u + `</a>`
	})

	linked = strings.ReplaceAll(linked, "\r\n", "\n")
	linked = strings.ReplaceAll(linked, "\r", "\n")
	linked = strings.ReplaceAll(linked, "\n", "<br>\n")

	return template.HTML(linked)
}
