// Package cards holds the session's card set and the system cards the
// engine keeps in it.
package cards

import (
	"github.com/fentz26/worldtime/internal/models"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// MaxScan bounds how many cards a single phase inspects when scanning
// for markers or auto-detected commands.
const MaxScan = 200

// Deck is an ordered, mutable snapshot of a session's cards. It is not
// safe for concurrent use; one phase owns it at a time.
type Deck struct {
	cards []*models.Card
}

// NewDeck copies cards into a new deck.
func NewDeck(cards []models.Card) *Deck {
	d := &Deck{cards: make([]*models.Card, 0, len(cards))}
	for i := range cards {
		c := cards[i]
		d.cards = append(d.cards, &c)
	}
	return d
}

// SameTitle compares card titles case-insensitively.
func SameTitle(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// Find returns the first card with the given title, or nil.
func (d *Deck) Find(title string) *models.Card {
	for _, c := range d.cards {
		if SameTitle(c.Title, title) {
			return c
		}
	}
	return nil
}

// Create appends a new card and returns it.
func (d *Deck) Create(title string) *models.Card {
	c := &models.Card{ID: uuid.New().String(), Title: title}
	d.cards = append(d.cards, c)
	return c
}

// FindOrCreate returns the card with title, creating it with init when it
// does not exist yet.
func (d *Deck) FindOrCreate(title string, init func(*models.Card)) *models.Card {
	if c := d.Find(title); c != nil {
		return c
	}
	c := d.Create(title)
	if init != nil {
		init(c)
	}
	return c
}

// Upsert replaces the card with the same title or appends it.
func (d *Deck) Upsert(card models.Card) *models.Card {
	if c := d.Find(card.Title); c != nil {
		id := c.ID
		*c = card
		if c.ID == "" {
			c.ID = id
		}
		return c
	}
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	c := card
	d.cards = append(d.cards, &c)
	return &c
}

// Remove deletes the card with title and reports whether it existed.
func (d *Deck) Remove(title string) bool {
	for i, c := range d.cards {
		if SameTitle(c.Title, title) {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return true
		}
	}
	return false
}

// All returns the live cards in order. Mutations through the returned
// pointers are visible to the deck.
func (d *Deck) All() []*models.Card { return d.cards }

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the deck contents.
func (d *Deck) Cards() []models.Card {
	out := make([]models.Card, len(d.cards))
	for i, c := range d.cards {
		out[i] = *c
	}
	return out
}
