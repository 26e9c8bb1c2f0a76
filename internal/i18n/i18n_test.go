package i18n

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"golang.org/x/text/language"

	"CoopDungeons/internal/game"
)

func newLocalizer(t *testing.T) *Localizer {
	t.Helper()
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestMatchLanguages(t *testing.T) {
	l := newLocalizer(t)
	cases := map[string]language.Tag{
		"zh-CN":                 language.MustParse("zh-CN"),
		"en-GB":                 Fallback,
		"":                      Fallback,
		"not a language":        Fallback,
		"fr-CH, zh-CN;q=0.9":    language.MustParse("zh-CN"),
		"en-US,en;q=0.9,zh;q=0": Fallback,
	}
	for accept, want := range cases {
		if got := l.Match(accept); got != want {
			t.Errorf("Match(%q) = %v, want %v", accept, got, want)
		}
	}
}

func TestTextFormatsArgs(t *testing.T) {
	l := newLocalizer(t)
	if got := l.Text(Fallback, "room.clear_progress", 3, 5); got != "Enemies slain: 3 / 5" {
		t.Fatalf("unexpected text %q", got)
	}
	zh := l.Match("zh-CN")
	if got := l.Text(zh, "room.clear_progress", 3, 5); got != "已击杀：3 / 5" {
		t.Fatalf("unexpected zh text %q", got)
	}
	if got := l.Text(Fallback, "no.such.key", "a", 2); got != "no.such.key a 2" {
		t.Fatalf("unknown keys should echo the key and args, got %q", got)
	}
}

func TestLocalizeEvent(t *testing.T) {
	l := newLocalizer(t)
	ev := l.Localize(Fallback, game.Status("room.start", "Spire Gate", "Slay every imp"))
	if ev.Text != "Spire Gate begins: Slay every imp" {
		t.Fatalf("unexpected text %q", ev.Text)
	}
	preset := game.Event{Type: game.EventStatus, Key: "room.start", Text: "kept"}
	if l.Localize(Fallback, preset).Text != "kept" {
		t.Fatalf("existing text should be kept")
	}
}

func TestErrorMessages(t *testing.T) {
	l := newLocalizer(t)
	err := game.ErrZoneExhausted.WithMetadata("owner", "x")
	if got := l.Error(Fallback, err); got != "All dungeon zones are in use. Try again shortly." {
		t.Fatalf("unexpected error text %q", got)
	}
	if got := l.Error(Fallback, errors.New("boom")); got != "Something went wrong." {
		t.Fatalf("unexpected fallback text %q", got)
	}
}

var verbs = regexp.MustCompile(`%[a-z]`)

// Every locale must carry the same keys with the same format verbs.
func TestLocalesAgree(t *testing.T) {
	read := func(name string) map[string]string {
		data, err := locales.ReadFile("locales/" + name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		return m
	}
	en, zh := read("en-US.json"), read("zh-CN.json")
	if len(en) != len(zh) {
		t.Fatalf("locale sizes differ: en=%d zh=%d", len(en), len(zh))
	}
	for key, msg := range en {
		other, ok := zh[key]
		if !ok {
			t.Errorf("zh-CN missing %s", key)
			continue
		}
		a, b := verbs.FindAllString(msg, -1), verbs.FindAllString(other, -1)
		if len(a) != len(b) {
			t.Errorf("%s: verbs differ %v vs %v", key, a, b)
		}
	}
}

func TestErrorKeysAreTranslated(t *testing.T) {
	l := newLocalizer(t)
	for _, err := range []*game.Error{
		game.ErrZoneExhausted, game.ErrDuplicateOwner, game.ErrDefinitionNotFound,
		game.ErrInstanceNotFound, game.ErrRoomNotFound, game.ErrUnknownRoomType,
		game.ErrInstanceFull, game.ErrInstanceFinished, game.ErrNotMember,
		game.ErrNotSupported, game.ErrVoteClosed, game.ErrAlreadyVoted,
		game.ErrInvalidChoice, game.ErrNotNearPortal, game.ErrPortalBusy, game.ErrStale,
		game.ErrBadRequest, game.ErrUnknownCommand, game.ErrMapTooLarge,
	} {
		if !l.Has(err.Key) {
			t.Errorf("no message for %s", err.Key)
		}
	}
}
