// Package flavor serves the localized text shown around the game: boot
// status lines, objectives, tips and overlay headers.
package flavor

import (
	"embed"
	"log/slog"

	"github.com/leonelquinteros/gotext"
)

const DefaultLocale = "en"

//go:embed locales/*.po
var locales embed.FS

var bootLineKeys = []string{
	"BOOT_UPLINK",
	"BOOT_SEED",
	"BOOT_GLYPHS",
	"BOOT_ANOMALY",
	"BOOT_DISCOVERY",
	"BOOT_RENDER",
}

var objectiveKeys = []string{"OBJECTIVE_HERO", "OBJECTIVE_TRAVEL", "OBJECTIVE_DECODE"}

type Catalog struct {
	po     *gotext.Po
	locale string
}

// New loads the catalog for locale, falling back to English when the locale
// has no translation file.
func New(locale string) *Catalog {
	data, err := locales.ReadFile("locales/" + locale + ".po")
	if err != nil {
		if locale != DefaultLocale {
			slog.Warn("locale not available, using default", "locale", locale, "default", DefaultLocale)
		}
		locale = DefaultLocale
		data, _ = locales.ReadFile("locales/" + DefaultLocale + ".po")
	}

	po := gotext.NewPo()
	po.Parse(data)
	return &Catalog{po: po, locale: locale}
}

func (c *Catalog) Locale() string {
	return c.locale
}

// Get translates key. Unknown keys are returned unchanged.
func (c *Catalog) Get(key string, vars ...any) string {
	return c.po.Get(key, vars...)
}

// BootLines returns the boot splash status lines in display order.
func (c *Catalog) BootLines() []string {
	return c.all(bootLineKeys)
}

func (c *Catalog) BootReady() string {
	return c.Get("BOOT_READY")
}

// Objectives returns the objective checklist in display order.
func (c *Catalog) Objectives() []string {
	return c.all(objectiveKeys)
}

func (c *Catalog) Tip() string {
	return c.Get("TIP_SECRET")
}

func (c *Catalog) SecretUnlocked() string {
	return c.Get("SECRET_UNLOCKED")
}

// RevealHeader returns the reveal overlay title for a site.
func (c *Catalog) RevealHeader(siteName string) string {
	return c.Get("REVEAL_HEADER", siteName)
}

func (c *Catalog) all(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = c.Get(k)
	}
	return out
}
