// Package i18n renders presentation events in the player's language.
// Message templates live in embedded JSON catalogs keyed by the same message
// keys the game emits.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"CoopDungeons/internal/game"
)

//go:embed locales/*.json
var locales embed.FS

// Fallback is used when nothing better matches the requested language.
var Fallback = language.AmericanEnglish

type Localizer struct {
	cat      *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	keys     map[string]bool
	mu       sync.Mutex
	printers map[language.Tag]*message.Printer
}

// New loads every embedded locale.
func New() (*Localizer, error) {
	l := &Localizer{
		cat:      catalog.NewBuilder(catalog.Fallback(Fallback)),
		keys:     make(map[string]bool),
		printers: make(map[language.Tag]*message.Printer),
	}
	files, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	// fallback first so it wins ties in the matcher
	l.tags = append(l.tags, Fallback)
	for _, f := range files {
		name := strings.TrimSuffix(f.Name(), path.Ext(f.Name()))
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", f.Name(), err)
		}
		data, err := locales.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", f.Name(), err)
		}
		if err := l.add(tag, data); err != nil {
			return nil, fmt.Errorf("locale %s: %w", f.Name(), err)
		}
		if tag != Fallback {
			l.tags = append(l.tags, tag)
		}
	}
	l.matcher = language.NewMatcher(l.tags)
	return l, nil
}

func (l *Localizer) add(tag language.Tag, data []byte) error {
	var msgs map[string]string
	if err := json.Unmarshal(data, &msgs); err != nil {
		return err
	}
	for key, msg := range msgs {
		if err := l.cat.SetString(tag, key, msg); err != nil {
			return err
		}
		l.keys[key] = true
	}
	return nil
}

// Tags lists the supported languages, fallback first.
func (l *Localizer) Tags() []language.Tag {
	return append([]language.Tag(nil), l.tags...)
}

// Match picks the supported language for an Accept-Language style string
// such as "zh-CN" or "fr-CH, fr;q=0.9, en;q=0.8".
func (l *Localizer) Match(accept string) language.Tag {
	desired, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(desired) == 0 {
		return Fallback
	}
	_, idx, conf := l.matcher.Match(desired...)
	if conf == language.No {
		return Fallback
	}
	return l.tags[idx]
}

func (l *Localizer) printer(tag language.Tag) *message.Printer {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.printers[tag]
	if !ok {
		p = message.NewPrinter(tag, message.Catalog(l.cat))
		l.printers[tag] = p
	}
	return p
}

// Has reports whether key is in the catalogs.
func (l *Localizer) Has(key string) bool { return l.keys[key] }

// Text renders key with args. Unknown keys render as the key followed by
// the arguments so nothing is silently dropped.
func (l *Localizer) Text(tag language.Tag, key string, args ...any) string {
	if !l.keys[key] {
		if len(args) == 0 {
			return key
		}
		parts := make([]string, 0, len(args)+1)
		parts = append(parts, key)
		for _, a := range args {
			parts = append(parts, fmt.Sprint(a))
		}
		return strings.Join(parts, " ")
	}
	return l.printer(tag).Sprintf(key, args...)
}

// Localize fills ev.Text for the given language.
func (l *Localizer) Localize(tag language.Tag, ev game.Event) game.Event {
	if ev.Key != "" && ev.Text == "" {
		ev.Text = l.Text(tag, ev.Key, ev.Args...)
	}
	return ev
}

// Error renders err for a player. Domain errors use their key; anything
// else reads as an internal error.
func (l *Localizer) Error(tag language.Tag, err error) string {
	var de *game.Error
	if errors.As(err, &de) && l.keys[de.Key] {
		return l.Text(tag, de.Key)
	}
	return l.Text(tag, "error.internal")
}
