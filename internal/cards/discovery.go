package cards

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fentz26/worldtime/internal/anchor"
	"github.com/fentz26/worldtime/internal/models"
)

const (
	VerbDiscovered = "Discovered on"
	VerbMet        = "Met on"
	VerbVisited    = "Visited"

	// placeholder marks where a stamp goes inside a card entry.
	placeholder = "/]"
)

var (
	stampPattern = regexp.MustCompile(`(?:\n\n)?(Discovered on|Met on|Visited) (\d{1,2}/\d{1,2}/\d{4})\s+([^\n]+)`)
	clockPrefix  = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(?::\d{2})?\s*[AP]M`)

	unknownStamp = regexp.MustCompile(`Discovered on \d{1,2}/\d{1,2}/\d{4}\s+Unknown`)
	defaultStamp = regexp.MustCompile(`Discovered on 01/01/1900\s+[\d:]+ [AP]M`)

	exclusionBlock  = regexp.MustCompile(`(?s)\[Exclusion\]\nCard Title: (.*?)\n\[/Exclusion\]`)
	exclusionMarker = regexp.MustCompile(`(?i)\[e\]`)
)

var locationTypes = []string{"location", "place", "area"}
var locationKeys = []string{"location", "place", "city", "town", "village", "building"}

// DiscoveryVerb picks the stamp wording for a card.
func DiscoveryVerb(c *models.Card) string {
	if c.Type == "character" {
		return VerbMet
	}
	for _, t := range locationTypes {
		if c.Type == t {
			return VerbVisited
		}
	}
	for _, k := range locationKeys {
		if strings.Contains(c.Keys, k) {
			return VerbVisited
		}
	}
	return VerbDiscovered
}

// HasStamp reports whether the card already records when it was found.
func HasStamp(c *models.Card) bool {
	return strings.Contains(c.Entry, VerbDiscovered) ||
		strings.Contains(c.Entry, VerbMet) ||
		strings.Contains(c.Entry, VerbVisited)
}

// Stamp records when the card was first encountered. Excluded cards,
// cards already stamped and moments with an Unknown time are left alone.
// A "/]" placeholder in the entry receives the stamp in place.
func Stamp(d *Deck, c *models.Card, when anchor.Moment) bool {
	if c.Entry == "" || HasStamp(c) || Excluded(d, c.Title) {
		return false
	}
	if strings.Contains(when.String(), anchor.Unknown) {
		return false
	}
	stamp := fmt.Sprintf("%s %s", DiscoveryVerb(c), when)
	if strings.Contains(c.Entry, placeholder) {
		c.Entry = strings.Replace(c.Entry, placeholder, stamp, 1)
		return true
	}
	c.Entry += "\n\n" + stamp
	return true
}

// KeyMentioned reports whether any of the card's comma-separated keys
// appears in text as a whole word or phrase.
func KeyMentioned(c *models.Card, text string) bool {
	lower := strings.ToLower(text)
	for _, key := range strings.Split(c.Keys, ",") {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" && containsWord(lower, key) {
			return true
		}
	}
	return false
}

func containsWord(text, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	for _, word := range strings.Fields(text) {
		if strings.Trim(word, ".,;:!?\"'()[]{}") == keyword {
			return true
		}
	}
	return false
}

// StampMentions stamps unstamped character and location cards that the
// scan text mentions by key, or by title for locations. It returns the
// titles that were stamped.
func StampMentions(d *Deck, scanText string, when anchor.Moment) []string {
	var stamped []string
	lower := strings.ToLower(scanText)
	for _, c := range d.All() {
		if c.Title == "" || IsSystem(c.Title) || HasStamp(c) {
			continue
		}
		var mentioned bool
		switch c.Type {
		case "character":
			mentioned = KeyMentioned(c, scanText) || containsWord(lower, strings.ToLower(c.Title))
		case "location", "place":
			mentioned = strings.Contains(lower, strings.ToLower(c.Title)) || KeyMentioned(c, scanText)
		default:
			continue
		}
		if mentioned && Stamp(d, c, when) {
			stamped = append(stamped, c.Title)
		}
	}
	return stamped
}

// StripFutureStamps removes discovery stamps dated after now. Nothing is
// stripped while the clock still shows placeholder values.
func StripFutureStamps(d *Deck, now anchor.Moment) int {
	if now.Date == anchor.DefaultDate || now.Time == anchor.Unknown {
		return 0
	}
	limit, ok := anchor.Instant(now.Date, now.Time)
	if !ok {
		return 0
	}
	removed := 0
	for _, c := range d.All() {
		if SameTitle(c.Title, TitleData) || c.Entry == "" {
			continue
		}
		c.Entry = stampPattern.ReplaceAllStringFunc(c.Entry, func(s string) string {
			m := stampPattern.FindStringSubmatch(s)
			clock := clockPrefix.FindString(strings.TrimSpace(m[3]))
			at, ok := anchor.Instant(m[2], clock)
			if !ok || !at.After(limit) {
				return s
			}
			removed++
			return ""
		})
	}
	return removed
}

// RefreshPlaceholderStamps rewrites stamps recorded before the clock was
// set (Unknown time or the default date) to when.
func RefreshPlaceholderStamps(d *Deck, when anchor.Moment) int {
	stamp := VerbDiscovered + " " + when.String()
	n := 0
	for _, c := range d.All() {
		if SameTitle(c.Title, TitleData) || SameTitle(c.Title, TitleDateTime) {
			continue
		}
		if !strings.Contains(c.Entry, VerbDiscovered) {
			continue
		}
		before := c.Entry
		switch {
		case strings.Contains(c.Entry, anchor.Unknown):
			c.Entry = replaceFirst(unknownStamp, c.Entry, stamp)
		case strings.Contains(c.Entry, anchor.DefaultDate):
			c.Entry = replaceFirst(defaultStamp, c.Entry, stamp)
		}
		if c.Entry != before {
			n++
		}
	}
	return n
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// Trigger is a card key found in generated text before the card was
// stamped.
type Trigger struct {
	Title string `json:"title"`
	Key   string `json:"key"`
}

func (t Trigger) String() string { return "[trigger:" + t.Title + ":" + t.Key + "]" }

// TriggerMentions lists unstamped non-system cards whose keys appear in
// text. A multi-word key also matches on its first word. At most one
// trigger is reported per card.
func TriggerMentions(d *Deck, text string) []Trigger {
	lower := strings.ToLower(text)
	var out []Trigger
	for _, c := range d.All() {
		if IsSystem(c.Title) || c.Keys == "" || HasStamp(c) {
			continue
		}
		for _, key := range strings.Split(c.Keys, ",") {
			key = strings.TrimSpace(key)
			lk := strings.ToLower(key)
			if lk == "" {
				continue
			}
			if strings.Contains(lower, lk) {
				out = append(out, Trigger{Title: c.Title, Key: key})
				break
			}
			if words := strings.Fields(lk); len(words) >= 2 && strings.Contains(lower, words[0]) {
				out = append(out, Trigger{Title: c.Title, Key: key})
				break
			}
		}
	}
	return out
}

// Exclusions returns the lowercase titles on the exclusions card.
func Exclusions(d *Deck) map[string]struct{} {
	out := make(map[string]struct{})
	c := d.Find(TitleExclusions)
	if c == nil {
		return out
	}
	for _, m := range exclusionBlock.FindAllStringSubmatch(c.Entry, -1) {
		out[strings.ToLower(m[1])] = struct{}{}
	}
	return out
}

// Excluded reports whether title is on the exclusions card.
func Excluded(d *Deck, title string) bool {
	if title == "" {
		return false
	}
	for t := range Exclusions(d) {
		if SameTitle(t, title) {
			return true
		}
	}
	return false
}

// Exclude adds title to the exclusions card.
func Exclude(d *Deck, title string) bool {
	if title == "" || Excluded(d, title) {
		return false
	}
	c := ExclusionsCard(d)
	block := "[Exclusion]\nCard Title: " + title + "\n[/Exclusion]"
	if c.Entry == "" {
		c.Entry = block
	} else {
		c.Entry += "\n\n" + block
	}
	return true
}

// ProcessExclusionMarkers removes "[e]" markers (and stamp placeholders)
// from the first MaxScan non-system cards and excludes those cards.
func ProcessExclusionMarkers(d *Deck) []string {
	var excluded []string
	for i, c := range d.All() {
		if i >= MaxScan {
			break
		}
		if IsSystem(c.Title) || !exclusionMarker.MatchString(c.Entry) {
			continue
		}
		c.Entry = strings.TrimSpace(exclusionMarker.ReplaceAllString(c.Entry, ""))
		c.Entry = strings.TrimSpace(strings.ReplaceAll(c.Entry, placeholder, ""))
		if Exclude(d, c.Title) {
			excluded = append(excluded, c.Title)
		}
	}
	return excluded
}
