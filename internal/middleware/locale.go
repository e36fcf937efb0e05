package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

// Locale negotiates the response language. An explicit :locale route
// segment wins over Accept-Language; unsupported values fall back to the
// first supported locale. The result is stored in Locals("locale") and
// echoed as Content-Language.
func Locale(supported []string) fiber.Handler {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		if tag, err := language.Parse(s); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, language.English)
	}
	matcher := language.NewMatcher(tags)

	return func(c *fiber.Ctx) error {
		var wanted []language.Tag
		if seg := c.Params("locale"); seg != "" {
			if tag, err := language.Parse(seg); err == nil {
				wanted = append(wanted, tag)
			}
		}
		if accept := c.Get(fiber.HeaderAcceptLanguage); accept != "" {
			if parsed, _, err := language.ParseAcceptLanguage(accept); err == nil {
				wanted = append(wanted, parsed...)
			}
		}

		_, idx, _ := matcher.Match(wanted...)
		base, _ := tags[idx].Base()
		locale := base.String()

		c.Locals("locale", locale)
		c.Set(fiber.HeaderContentLanguage, locale)
		return c.Next()
	}
}

// LocaleFrom returns the negotiated locale, or "" outside the Locale middleware
func LocaleFrom(c *fiber.Ctx) string {
	locale, _ := c.Locals("locale").(string)
	return locale
}
