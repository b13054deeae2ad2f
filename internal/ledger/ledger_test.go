package ledger

import (
	"strings"
	"testing"

	"github.com/fentz26/worldtime/internal/cards"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/turntime"
)

func newTestLedger(t *testing.T, codec Codec) (*CardLedger, *cards.Deck) {
	t.Helper()
	deck := cards.NewDeck(nil)
	return New(deck, codec), deck
}

func TestTextBlockFormat(t *testing.T) {
	l, deck := newTestLedger(t, nil)
	l.Append(Record{
		ActionType:   models.ActionDo,
		ActionText:   "open the door",
		ResponseText: "The door creaks open.",
		Triggers:     []cards.Trigger{{Title: "Cellar", Key: "cellar"}},
		Timestamp:    turntime.Minutes(5),
	})

	want := "[Turn Data]\nAction Type: do\nAction Text: open the door\nResponse Text: The door creaks open.\nGenerated Entities: \nTrigger Mentions: [trigger:Cellar:cellar]\nAI Command: None\nTimestamp: 00y00m00d00h05n00s\n[/Turn Data]"
	if got := deck.Find(cards.TitleData).Entry; got != want {
		t.Errorf("entry = %q\nwant    %q", got, want)
	}

	recs := l.ParseAll()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].AICommand != "" || len(recs[0].Triggers) != 1 || recs[0].Triggers[0].Key != "cellar" {
		t.Errorf("decoded record = %+v", recs[0])
	}
}

func TestPruneFuture(t *testing.T) {
	for _, codec := range []Codec{TextCodec{}, TextCodec{Compact: true}, JSONCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			l, _ := newTestLedger(t, codec)
			l.MarkInitialized()
			l.Append(Record{ActionType: models.ActionDo, ActionText: "r1", Timestamp: turntime.Minutes(5)})
			l.Append(Record{ActionType: models.ActionSay, ActionText: "r2", Timestamp: turntime.Minutes(10)})

			if n := l.PruneFuture(turntime.Minutes(7)); n != 1 {
				t.Errorf("first prune removed %d, want 1", n)
			}
			once := l.ParseAll()
			if n := l.PruneFuture(turntime.Minutes(7)); n != 0 {
				t.Errorf("second prune removed %d, want 0", n)
			}
			twice := l.ParseAll()

			if len(once) != 1 || once[0].ActionText != "r1" {
				t.Fatalf("after prune = %+v", once)
			}
			if len(twice) != len(once) || twice[0].ActionText != once[0].ActionText {
				t.Error("prune is not idempotent")
			}
			if !l.Initialized() {
				t.Error("prune dropped the initialized marker")
			}
		})
	}
}

func TestDecodeSkipsCorruptRecords(t *testing.T) {
	l, deck := newTestLedger(t, nil)
	deck.Upsert(models.Card{Title: cards.TitleData, Entry: strings.Join([]string{
		"[Turn Data]\nAction Type: do\nAction Text: a\nResponse Text: b\nGenerated Entities: \nTrigger Mentions: \nAI Command: None\nTimestamp: garbage\n[/Turn Data]",
		"[Turn Data]\nAction Type: story\nAction Text: c\nTimestamp: 00y00m00d01h00n00s\n[/Turn Data]",
	}, "\n\n")})

	recs := l.ParseAll()
	if len(recs) != 1 || recs[0].ActionText != "c" {
		t.Fatalf("ParseAll = %+v", recs)
	}
	ts, ok := l.LastTimestamp()
	if !ok || ts != turntime.Hours(1) {
		t.Errorf("LastTimestamp = %v, %v", ts, ok)
	}
}

func TestMarkInitialized(t *testing.T) {
	l, deck := newTestLedger(t, nil)
	if l.Initialized() {
		t.Fatal("fresh ledger should not be initialized")
	}
	l.MarkInitialized()
	l.MarkInitialized()
	if got := deck.Find(cards.TitleData).Entry; got != InitializedMarker {
		t.Errorf("entry = %q", got)
	}
	l.Append(Record{ActionType: models.ActionDo, ActionText: "x", Timestamp: turntime.Minutes(1)})
	if !strings.HasPrefix(deck.Find(cards.TitleData).Entry, InitializedMarker+"\n\n[Turn Data]") {
		t.Errorf("marker not kept as header: %q", deck.Find(cards.TitleData).Entry)
	}
	if !l.Initialized() || len(l.ParseAll()) != 1 {
		t.Errorf("after append: initialized=%v records=%d", l.Initialized(), len(l.ParseAll()))
	}
}

func TestAppendKeepsOtherCardText(t *testing.T) {
	notes := "Player notes: remember the key"
	broken := "[Turn Data]\nAction Type: do\nbroken\n[/Turn Data]"
	l, deck := newTestLedger(t, nil)
	deck.Upsert(models.Card{Title: cards.TitleData, Entry: notes + "\n\n" + broken})

	l.Append(Record{ActionType: models.ActionDo, ActionText: "look around", Timestamp: turntime.Minutes(3)})

	entry := deck.Find(cards.TitleData).Entry
	if !strings.HasPrefix(entry, notes+"\n\n"+broken+"\n\n[Turn Data]") {
		t.Errorf("existing text not kept: %q", entry)
	}
	recs := l.ParseAll()
	if len(recs) != 1 || recs[0].ActionText != "look around" {
		t.Errorf("ParseAll = %+v", recs)
	}
}

func TestCodecByName(t *testing.T) {
	if c, err := CodecByName("JSON"); err != nil || c.Name() != "json" {
		t.Errorf("CodecByName(JSON) = %v, %v", c, err)
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Error("expected error for unknown codec")
	}
}
