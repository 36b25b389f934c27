package wa

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/wppbot/internal/engine"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"33612345678", "33612345678@s.whatsapp.net", false},
		{"33612345678@s.whatsapp.net", "33612345678@s.whatsapp.net", false},
		{"120363000@g.us", "120363000@g.us", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("parseAddress(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestContactFromInfo(t *testing.T) {
	tests := []struct {
		name string
		jid  types.JID
		info types.ContactInfo
		want engine.Contact
	}{
		{
			"full name wins",
			types.NewJID("33611111111", types.DefaultUserServer),
			types.ContactInfo{FullName: "Alice Martin", PushName: "Ali"},
			engine.Contact{Address: "33611111111", Name: "Alice Martin"},
		},
		{
			"push name fallback",
			types.NewJID("33622222222", types.DefaultUserServer),
			types.ContactInfo{PushName: "Bob"},
			engine.Contact{Address: "33622222222", Name: "Bob"},
		},
		{
			"business name fallback",
			types.NewJID("33633333333", types.DefaultUserServer),
			types.ContactInfo{BusinessName: "Boulangerie"},
			engine.Contact{Address: "33633333333", Name: "Boulangerie"},
		},
		{
			"hidden user has no address",
			types.NewJID("123456789", types.HiddenUserServer),
			types.ContactInfo{PushName: "Anon"},
			engine.Contact{Name: "Anon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contactFromInfo(tt.jid, tt.info); got != tt.want {
				t.Errorf("contactFromInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChatFromGroup(t *testing.T) {
	g := &types.GroupInfo{
		JID:        types.NewJID("120363000", types.GroupServer),
		GroupName:  types.GroupName{Name: "Famille"},
		GroupTopic: types.GroupTopic{Topic: "Repas du dimanche"},
		Participants: []types.GroupParticipant{
			{JID: types.NewJID("33611111111", types.DefaultUserServer)},
			{JID: types.NewJID("33622222222", types.DefaultUserServer)},
		},
	}

	got := chatFromGroup(g)
	want := engine.Chat{
		ID:           "120363000@g.us",
		Name:         "Famille",
		Description:  "Repas du dimanche",
		IsGroup:      true,
		Participants: 2,
	}
	if got != want {
		t.Errorf("chatFromGroup() = %+v, want %+v", got, want)
	}
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(Options{})
	for range 100 {
		if err := unlimited.Wait(context.Background()); err != nil {
			t.Fatalf("unlimited Wait() error = %v", err)
		}
	}

	paced := newLimiter(Options{RatePerSecond: 0.001, Burst: 1})
	if err := paced.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := paced.Wait(ctx); err == nil {
		t.Error("second Wait() should fail once the burst is spent")
	}
}

func TestInvalidateDropsCachedMetadata(t *testing.T) {
	a := &Adapter{meta: newMetaCache(Options{})}
	group := types.NewJID("120363000", types.GroupServer)
	user := types.NewJID("33611111111", types.DefaultUserServer)
	a.meta.SetDefault(chatKey(group.String()), engine.Chat{ID: group.String()})
	a.meta.SetDefault(contactKey(user.User), engine.Contact{Address: user.User})
	a.meta.SetDefault(chatKey(user.String()), engine.Chat{ID: user.String()})

	a.invalidate(&events.GroupInfo{JID: group})
	if _, ok := a.meta.Get(chatKey(group.String())); ok {
		t.Error("group metadata still cached after GroupInfo")
	}

	a.invalidate(&events.Contact{JID: user})
	if _, ok := a.meta.Get(contactKey(user.User)); ok {
		t.Error("contact still cached after Contact event")
	}
	if _, ok := a.meta.Get(chatKey(user.String())); ok {
		t.Error("direct chat still cached after Contact event")
	}
}

func TestPairLoop(t *testing.T) {
	t.Run("code then success", func(t *testing.T) {
		items := make(chan whatsmeow.QRChannelItem, 3)
		items <- whatsmeow.QRChannelItem{Event: "code", Code: "2@abc"}
		items <- whatsmeow.QRChannelItem{Event: "code", Code: "2@def"}
		items <- whatsmeow.QRChannelItem{Event: "success"}
		close(items)

		sink := &recordingSink{}
		var out bytes.Buffer
		if err := pairLoop(items, sink, &out); err != nil {
			t.Fatalf("pairLoop() error = %v", err)
		}
		got := sink.posted()
		if len(got) != 2 || got[0] != (engine.PairingCode{Code: "2@abc"}) || got[1] != (engine.PairingCode{Code: "2@def"}) {
			t.Errorf("posted %v", got)
		}
		if out.Len() == 0 {
			t.Error("no QR drawn")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		items := make(chan whatsmeow.QRChannelItem, 1)
		items <- whatsmeow.QRChannelItem{Event: "timeout"}
		close(items)

		sink := &recordingSink{}
		err := pairLoop(items, sink, nil)
		if !errors.Is(err, ErrPairingTimeout) {
			t.Fatalf("pairLoop() error = %v, want ErrPairingTimeout", err)
		}
		got := sink.posted()
		if len(got) != 1 {
			t.Fatalf("posted %v", got)
		}
		if _, ok := got[0].(engine.AuthFailed); !ok {
			t.Errorf("posted %T, want engine.AuthFailed", got[0])
		}
	})

	t.Run("error", func(t *testing.T) {
		items := make(chan whatsmeow.QRChannelItem, 1)
		items <- whatsmeow.QRChannelItem{Event: "error", Error: errors.New("boom")}
		close(items)

		sink := &recordingSink{}
		if err := pairLoop(items, sink, nil); err == nil {
			t.Fatal("pairLoop() error = nil")
		}
		got := sink.posted()
		if len(got) != 1 || got[0] != (engine.AuthFailed{Reason: "boom"}) {
			t.Errorf("posted %v", got)
		}
	})
}
