package board

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/kiavash/daftar/internal/session"
	"github.com/kiavash/daftar/internal/store"
)

const (
	minFieldLen = 2

	maxNameLen      = 100
	maxEmailLen     = 255
	maxWebsiteLen   = 255
	maxTopicLen     = 200
	maxCommentLen   = 5000
	maxUserAgentLen = 250
)

// validate runs every check in order and accumulates all applicable errors.
// Lengths are measured in runes, not bytes, so multi-byte text counts fairly.
func (s *boardService) validate(sess *session.Session, sub Submission) (store.NewMessage, []string) {
	var verrs []string

	if !s.sessions.Verify(sess, sub.Token) {
		verrs = append(verrs, MsgSecurityFailed)
	}

	if sub.Honeypot != "" {
		verrs = append(verrs, MsgSpamTriggered)
	}

	name := strings.TrimSpace(sub.Name)
	switch {
	case utf8.RuneCountInString(name) < minFieldLen:
		verrs = append(verrs, MsgNameTooShort)
	case utf8.RuneCountInString(name) > maxNameLen:
		verrs = append(verrs, MsgNameTooLong)
	}

	topic := strings.TrimSpace(sub.Topic)
	switch {
	case utf8.RuneCountInString(topic) < minFieldLen:
		verrs = append(verrs, MsgTopicTooShort)
	case utf8.RuneCountInString(topic) > maxTopicLen:
		verrs = append(verrs, MsgTopicTooLong)
	}

	comment := strings.TrimSpace(sub.Comment)
	switch {
	case utf8.RuneCountInString(comment) < minFieldLen:
		verrs = append(verrs, MsgCommentTooShort)
	case utf8.RuneCountInString(comment) > maxCommentLen:
		verrs = append(verrs, MsgCommentTooLong)
	}

	email := normalizeEmail(sub.Email)
	if utf8.RuneCountInString(email) > maxEmailLen {
		verrs = append(verrs, MsgEmailTooLong)
	}

	website := normalizeWebsite(sub.Website)
	if utf8.RuneCountInString(website) > maxWebsiteLen {
		verrs = append(verrs, MsgWebsiteTooLong)
	}

	return store.NewMessage{
		Name:    name,
		Email:   email,
		Website: website,
		Topic:   topic,
		Comment: comment,
	}, verrs
}

// normalizeEmail trims the input and returns it only when it is a plain,
// syntactically valid address. Anything else is treated as absent, never as
// an error.
func normalizeEmail(raw string) string {
	email := strings.TrimSpace(raw)
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}

// normalizeWebsite trims the input, prefixes http:// when no scheme is
// present, and returns the result only when it parses as an absolute http(s)
// URL. Unparseable values are dropped silently.
func normalizeWebsite(raw string) string {
	website := strings.TrimSpace(raw)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "http://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return website
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
