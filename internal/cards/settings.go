package cards

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/models"
)

// Setting names as they appear on the settings card.
const (
	SettingMultiplier          = "Time Duration Multiplier"
	SettingCharacterCards      = "Enable Generated Character Cards"
	SettingLocationCards       = "Enable Generated Location Cards"
	SettingDisableCardDeletion = "Disable Generated Card Deletion"
	SettingDebug               = "Debug Mode"
	SettingDynamicTime         = "Enable Dynamic Time"
	SettingDisabled            = "Disable WTG Entirely"
)

const fullSettings = `Time Duration Multiplier: 1.0
Enable Generated Character Cards: true
Enable Generated Location Cards: true
Disable Generated Card Deletion: true
Debug Mode: false
Enable Dynamic Time: true
Disable WTG Entirely: false`

const lightSettings = `Time Duration Multiplier: 1.0
Debug Mode: false
Disable WTG Entirely: false`

var multiplierPattern = regexp.MustCompile(`(?i)Time Duration Multiplier:\s*([\d.]+)`)

// Settings is the parsed settings card. Missing booleans read false.
type Settings struct {
	Multiplier          float64
	CharacterCards      bool
	LocationCards       bool
	DisableCardDeletion bool
	Debug               bool
	DynamicTime         bool
	Disabled            bool
}

// DefaultSettings returns the mode's defaults as if the card were fresh.
func DefaultSettings(mode models.Mode) Settings {
	return ParseSettings(DefaultSettingsEntry(mode), mode)
}

// DefaultSettingsEntry returns the initial settings card text for mode.
func DefaultSettingsEntry(mode models.Mode) string {
	if mode == models.ModeLightweight {
		return lightSettings
	}
	return fullSettings
}

// EnsureSettings returns the settings card, creating it or converting its
// entry when the session mode no longer matches the card's layout.
func EnsureSettings(d *Deck, mode models.Mode) *models.Card {
	c := d.FindOrCreate(TitleSettings, func(c *models.Card) {
		c.Type = "system"
		c.Description = "World Time Generator Settings - Edit the values below to configure the system."
		c.Entry = DefaultSettingsEntry(mode)
	})
	full := strings.Contains(c.Entry, SettingCharacterCards)
	switch {
	case mode == models.ModeLightweight && full:
		c.Entry = lightSettings
	case mode == models.ModeNormal && !full:
		c.Entry = fullSettings
	}
	c.Keys = ""
	return c
}

// ReadSettings parses the settings card of d without creating it.
func ReadSettings(d *Deck, mode models.Mode) Settings {
	c := d.Find(TitleSettings)
	if c == nil {
		return DefaultSettings(mode)
	}
	return ParseSettings(c.Entry, mode)
}

// ParseSettings reads a settings entry. In lightweight mode every boolean
// setting reads false.
func ParseSettings(entry string, mode models.Mode) Settings {
	s := Settings{Multiplier: 1.0}
	if m := multiplierPattern.FindStringSubmatch(entry); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.Multiplier = max(0, v)
		}
	}
	if mode == models.ModeLightweight {
		return s
	}
	s.CharacterCards = boolSetting(entry, SettingCharacterCards)
	s.LocationCards = boolSetting(entry, SettingLocationCards)
	s.DisableCardDeletion = boolSetting(entry, SettingDisableCardDeletion)
	s.Debug = boolSetting(entry, SettingDebug)
	s.DynamicTime = boolSetting(entry, SettingDynamicTime)
	s.Disabled = boolSetting(entry, SettingDisabled)
	return s
}

func boolSetting(entry, name string) bool {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name) + `:\s*(true|false)`)
	m := re.FindStringSubmatch(entry)
	return m != nil && strings.EqualFold(m[1], "true")
}

var (
	configDate = regexp.MustCompile(`Starting Date:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	configTime = regexp.MustCompile(`(?i)Starting Time:\s*(\d{1,2}:\d{2}\s*[AP]M)`)
	configInit = regexp.MustCompile(`(?i)Initialized:\s*(true|false)`)

	settimePattern = regexp.MustCompile(`(?i)\[settime\s+(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})\s+(.+?)\]`)
)

// TimeConfig is a preconfigured starting point from the time config card.
type TimeConfig struct {
	Anchor      anchor.Anchor
	Initialized bool
}

// ReadTimeConfig parses the time config card. ok is false when the card
// is missing or lacks a valid date and time.
func ReadTimeConfig(d *Deck) (TimeConfig, bool) {
	c := d.Find(TitleTimeConfig)
	if c == nil || c.Entry == "" {
		return TimeConfig{}, false
	}
	dm := configDate.FindStringSubmatch(c.Entry)
	tm := configTime.FindStringSubmatch(c.Entry)
	if dm == nil || tm == nil {
		return TimeConfig{}, false
	}
	date, err := anchor.ParseDate(dm[1])
	if err != nil {
		return TimeConfig{}, false
	}
	cfg := TimeConfig{Anchor: anchor.Anchor{Date: date, Time: anchor.NormalizeTime(tm[1])}}
	if im := configInit.FindStringSubmatch(c.Entry); im != nil {
		cfg.Initialized = strings.EqualFold(im[1], "true")
	}
	return cfg, true
}

// DetectSettime scans the first MaxScan cards for an embedded
// [settime date time] command. The first valid one is removed from its
// card and returned.
func DetectSettime(d *Deck) (anchor.Anchor, bool) {
	for i, c := range d.All() {
		if i >= MaxScan {
			break
		}
		if c.Entry == "" {
			continue
		}
		m := settimePattern.FindStringSubmatchIndex(c.Entry)
		if m == nil {
			continue
		}
		date, err := anchor.ParseDate(c.Entry[m[2]:m[3]])
		if err != nil {
			continue
		}
		a := anchor.Anchor{Date: date, Time: anchor.NormalizeTime(c.Entry[m[4]:m[5]])}
		c.Entry = strings.TrimSpace(c.Entry[:m[0]] + c.Entry[m[1]:])
		return a, true
	}
	return anchor.Anchor{}, false
}
