package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const langContextKey = "lang"

// Language resolves the response language from Accept-Language.
func Language() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(langContextKey, parseLanguage(c.Get(fiber.HeaderAcceptLanguage)))
		return c.Next()
	}
}

// Lang returns the language chosen for this request ("en" or "ar").
func Lang(c *fiber.Ctx) string {
	if lang, ok := c.Locals(langContextKey).(string); ok {
		return lang
	}
	return parseLanguage(c.Get(fiber.HeaderAcceptLanguage))
}

func parseLanguage(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	if strings.HasPrefix(header, "ar") {
		return "ar"
	}
	return "en"
}
