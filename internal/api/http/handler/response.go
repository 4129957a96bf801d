package handler

import "github.com/gofiber/fiber/v3"

func html(c fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

// internalError renders a generic failure page. Details stay in the logs so
// nothing about the store or its credentials leaks to the visitor.
func internalError(c fiber.Ctx) error {
	return html(c, fiber.StatusInternalServerError,
		[]byte("<!DOCTYPE html><html><body><h1>Something went wrong</h1><p>Please try again later.</p></body></html>"))
}

func badRequest(c fiber.Ctx) error {
	return html(c, fiber.StatusBadRequest,
		[]byte("<!DOCTYPE html><html><body><h1>Bad request</h1></body></html>"))
}
