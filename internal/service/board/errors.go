package board

import "errors"

var (
	ErrInternal = errors.New("internal error")
)

// User-facing validation messages, collected in submission order.
const (
	MsgSecurityFailed  = "Security check failed."
	MsgSpamTriggered   = "Spam protection triggered."
	MsgNameTooShort    = "Name is too short."
	MsgNameTooLong     = "Name is too long."
	MsgTopicTooShort   = "Topic is too short."
	MsgTopicTooLong    = "Topic is too long."
	MsgCommentTooShort = "Comment is too short."
	MsgCommentTooLong  = "Comment is too long."
	MsgEmailTooLong    = "Email is too long."
	MsgWebsiteTooLong  = "Website URL is too long."
)
