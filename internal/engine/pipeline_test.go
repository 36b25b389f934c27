package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/store"
)

func TestSubmitOutboundNotConnected(t *testing.T) {
	h := newHarness(t, nil, Options{})

	_, err := h.engine.SubmitOutbound(context.Background(), "0612345678", "hello")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SubmitOutbound() error = %v, want ErrNotConnected", err)
	}
	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("transport called %d times, want 0", n)
	}
	if n := messageCount(t, h.db, ""); n != 0 {
		t.Errorf("stored %d messages, want 0", n)
	}
	if snap := h.engine.Stats(); snap.MessagesSent != 0 {
		t.Errorf("MessagesSent = %d, want 0", snap.MessagesSent)
	}
}

func TestSubmitOutboundWhileDisconnected(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.engine.HandleEvent(context.Background(), Disconnected{Reason: "network"})

	_, err := h.engine.SubmitOutbound(context.Background(), "0612345678", "hello")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SubmitOutbound() error = %v, want ErrNotConnected", err)
	}
	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("transport called %d times, want 0", n)
	}
	if n := messageCount(t, h.db, ""); n != 0 {
		t.Errorf("stored %d messages, want 0", n)
	}
}

func TestSubmitOutboundSuccess(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ch, unsub := h.bus.Subscribe(bus.KindMessageSent, 4)
	defer unsub()
	ctx := context.Background()

	handle, err := h.engine.SubmitOutbound(ctx, "06 12 34 56 78", "Bonjour")
	if err != nil {
		t.Fatalf("SubmitOutbound() error = %v", err)
	}
	if handle.ID == "" || handle.Timestamp.IsZero() {
		t.Errorf("handle = %+v", handle)
	}

	sends := h.transport.sends()
	if len(sends) != 1 || sends[0].To != "33612345678@s.whatsapp.net" || sends[0].Content != "Bonjour" {
		t.Fatalf("sends = %+v", sends)
	}

	evt := waitEvent(t, ch, bus.KindMessageSent)
	p := evt.Payload.(SentPayload)
	if p.To != "06 12 34 56 78" || p.Address != "33612345678@s.whatsapp.net" || p.MessageID != handle.ID {
		t.Errorf("payload = %+v", p)
	}

	msgs, err := h.db.ListMessages(ctx, store.MessageFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("stored %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Direction != store.DirectionSent || m.Status != store.StatusSent || m.FromNumber != "bot" ||
		m.ToNumber != "06 12 34 56 78" || m.ChatID != "33612345678@s.whatsapp.net" || m.MsgID != handle.ID {
		t.Errorf("stored = %+v", m)
	}
	if snap := h.engine.Stats(); snap.MessagesSent != 1 || !snap.Connected || snap.LastActivity == nil {
		t.Errorf("stats = %+v", snap)
	}
}

func TestSubmitOutboundValidation(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()

	if _, err := h.engine.SubmitOutbound(ctx, "0612345678", "  "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty content error = %v", err)
	}
	if _, err := h.engine.SubmitOutbound(ctx, "nobody", "hi"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("bad target error = %v", err)
	}
	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("transport called %d times, want 0", n)
	}
}

func TestSubmitOutboundTransportError(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.sendErr = errors.New("websocket not connected")

	_, err := h.engine.SubmitOutbound(context.Background(), "0612345678", "hi")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if n := len(h.transport.sends()); n != 1 {
		t.Errorf("transport called %d times, want exactly 1 (no retry)", n)
	}
	if n := messageCount(t, h.db, ""); n != 0 {
		t.Errorf("stored %d messages after failed send", n)
	}
	if snap := h.engine.Stats(); snap.MessagesSent != 0 {
		t.Errorf("MessagesSent = %d, want 0", snap.MessagesSent)
	}
}

func TestSubmitOutboundPersistFailureStillSucceeds(t *testing.T) {
	fs := &failingStore{saveErr: errors.New("disk full")}
	h := newHarness(t, fs, Options{})
	h.makeReady(t)

	if _, err := h.engine.SubmitOutbound(context.Background(), "0612345678", "hi"); err != nil {
		t.Fatalf("SubmitOutbound() error = %v, want persistence failure swallowed", err)
	}
	if snap := h.engine.Stats(); snap.MessagesSent != 1 {
		t.Errorf("MessagesSent = %d, want 1", snap.MessagesSent)
	}
}

func TestInboundPingRoundTrip(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()

	h.engine.HandleEvent(ctx, Inbound{
		ID:        "in-1",
		From:      "33612345678@s.whatsapp.net",
		Chat:      "33612345678@s.whatsapp.net",
		PushName:  "Alice",
		Body:      "ping",
		Timestamp: time.Now(),
	})

	received, err := h.db.ListMessages(ctx, store.MessageFilter{Direction: store.DirectionReceived})
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 1 {
		t.Fatalf("received records = %d, want 1", len(received))
	}
	r := received[0]
	if r.Body != "ping" || r.Status != store.StatusDelivered || r.ContactName != "Alice" || r.MsgID != "in-1" {
		t.Errorf("received record = %+v", r)
	}

	sends := h.transport.sends()
	if len(sends) != 1 {
		t.Fatalf("sends = %+v, want one reply", sends)
	}
	if sends[0].To != "33612345678@s.whatsapp.net" || sends[0].Content != "🏓 Pong ! Bot actif." {
		t.Errorf("reply = %+v", sends[0])
	}

	sent, err := h.db.ListMessages(ctx, store.MessageFilter{Direction: store.DirectionSent})
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].Body != "🏓 Pong ! Bot actif." {
		t.Errorf("sent records = %+v", sent)
	}

	snap := h.engine.Stats()
	if snap.MessagesReceived != 1 || snap.MessagesSent != 1 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestInboundSelfOriginatedIsIgnored(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ch, unsub := h.bus.Subscribe("message.", 4)
	defer unsub()
	ctx := context.Background()

	h.engine.HandleEvent(ctx, Inbound{ID: "a", From: "33611111111@s.whatsapp.net", Body: "ping", FromMe: true})
	h.engine.HandleEvent(ctx, Inbound{ID: "b", From: "33699999999:3@s.whatsapp.net", Body: "ping"})

	if n := messageCount(t, h.db, ""); n != 0 {
		t.Errorf("stored %d messages, want 0", n)
	}
	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("sent %d replies, want 0", n)
	}
	if snap := h.engine.Stats(); snap.MessagesReceived != 0 {
		t.Errorf("MessagesReceived = %d, want 0", snap.MessagesReceived)
	}
	select {
	case evt := <-ch:
		t.Errorf("unexpected broadcast %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInboundBroadcastsNewMessage(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.contacts = []Contact{{Address: "33622222222", Name: "Bob (carnet)"}}
	ch, unsub := h.bus.Subscribe(bus.KindMessageNew, 4)
	defer unsub()

	h.engine.HandleEvent(context.Background(), Inbound{
		ID:   "x1",
		From: "33622222222@s.whatsapp.net",
		Body: "rien de spécial",
	})

	evt := waitEvent(t, ch, bus.KindMessageNew)
	m, ok := evt.Payload.(*store.Message)
	if !ok {
		t.Fatalf("payload = %T, want *store.Message", evt.Payload)
	}
	if m.ID == 0 {
		t.Error("broadcast should carry the persisted id")
	}
	if m.ContactName != "Bob (carnet)" {
		t.Errorf("ContactName = %q, want lookup fallback", m.ContactName)
	}
	if m.ChatID != "33622222222@s.whatsapp.net" {
		t.Errorf("ChatID = %q, want sender when chat is empty", m.ChatID)
	}
	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("unexpected reply for unmatched text")
	}
}

func TestInboundPersistFailureDoesNotStopPipeline(t *testing.T) {
	fs := &failingStore{saveErr: errors.New("database is locked")}
	h := newHarness(t, fs, Options{})
	h.makeReady(t)
	ch, unsub := h.bus.Subscribe(bus.KindMessageNew, 4)
	defer unsub()

	h.engine.HandleEvent(context.Background(), Inbound{ID: "p", From: "33633333333@s.whatsapp.net", Body: "ping"})

	waitEvent(t, ch, bus.KindMessageNew)
	if sends := h.transport.sends(); len(sends) != 1 {
		t.Errorf("sends = %+v, want reply despite persistence failure", sends)
	}
}

func TestInboundGroupRepliesToChat(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.chats = []Chat{{ID: "120363000@g.us", Name: "Famille", IsGroup: true, Participants: 4}}

	h.engine.HandleEvent(context.Background(), Inbound{
		ID:      "g1",
		From:    "33644444444@s.whatsapp.net",
		Chat:    "120363000@g.us",
		IsGroup: true,
		Body:    "info",
	})

	sends := h.transport.sends()
	if len(sends) != 1 {
		t.Fatalf("sends = %+v", sends)
	}
	if sends[0].To != "120363000@g.us" {
		t.Errorf("reply to %q, want group chat", sends[0].To)
	}
	want := "ℹ️ INFORMATIONS:\n\n📛 Nom: Famille\n🆔 ID: 120363000@g.us\n👥 Type: Groupe\n👨‍👩‍👧‍👦 Participants: 4"
	if sends[0].Content != want {
		t.Errorf("content = %q, want %q", sends[0].Content, want)
	}
}

func TestInboundAutoReplyDisabled(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()
	if err := h.engine.SetConfig(ctx, store.ConfigAutoReply, "false"); err != nil {
		t.Fatal(err)
	}

	h.engine.HandleEvent(ctx, Inbound{ID: "q", From: "33655555555@s.whatsapp.net", Body: "ping"})

	if n := len(h.transport.sends()); n != 0 {
		t.Errorf("sent %d replies with auto_reply=false", n)
	}
	if n := messageCount(t, h.db, store.DirectionReceived); n != 1 {
		t.Errorf("received records = %d, want 1", n)
	}
}

func TestInboundSaveMessagesDisabled(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()
	if err := h.engine.SetConfig(ctx, store.ConfigSaveMessages, "false"); err != nil {
		t.Fatal(err)
	}

	h.engine.HandleEvent(ctx, Inbound{ID: "r", From: "33655555555@s.whatsapp.net", Body: "ping"})

	if n := messageCount(t, h.db, ""); n != 0 {
		t.Errorf("stored %d messages with save_messages=false", n)
	}
	if n := len(h.transport.sends()); n != 1 {
		t.Errorf("sent %d replies, want 1", n)
	}
}

func TestInboundGreetingUsesConfiguredWelcome(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)

	h.engine.HandleEvent(context.Background(), Inbound{ID: "s", From: "33666666666@s.whatsapp.net", Body: "Salut !"})

	sends := h.transport.sends()
	if len(sends) != 1 || sends[0].Content != "👋 Bienvenue !" {
		t.Errorf("sends = %+v", sends)
	}
}

func TestInboundTemplateCommand(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()
	if err := h.engine.SaveTemplate(ctx, &store.Template{Name: "welcome", Content: "Bienvenue chez nous !"}); err != nil {
		t.Fatal(err)
	}

	h.engine.HandleEvent(ctx, Inbound{ID: "t1", From: "33677777777@s.whatsapp.net", Body: "template welcome"})
	h.engine.HandleEvent(ctx, Inbound{ID: "t2", From: "33677777777@s.whatsapp.net", Body: "template absent"})

	sends := h.transport.sends()
	if len(sends) != 2 {
		t.Fatalf("sends = %+v", sends)
	}
	if sends[0].Content != "Bienvenue chez nous !" {
		t.Errorf("template reply = %q", sends[0].Content)
	}
	if sends[1].Content != `❌ Template "absent" non trouvé.` {
		t.Errorf("miss reply = %q", sends[1].Content)
	}

	tpl, err := h.db.GetTemplate(ctx, "welcome")
	if err != nil {
		t.Fatal(err)
	}
	if tpl.UsageCount != 1 {
		t.Errorf("UsageCount = %d, want exactly 1", tpl.UsageCount)
	}
}

func TestSyncDirectoryNotReady(t *testing.T) {
	h := newHarness(t, nil, Options{})

	_, err := h.engine.SyncDirectory(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("SyncDirectory() error = %v, want ErrNotConnected", err)
	}
	if n := h.transport.listCount(); n != 0 {
		t.Errorf("ListContacts called %d times", n)
	}
}

func TestSyncDirectoryIsIdempotent(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.contacts = []Contact{
		{Address: "33611111111", Name: "Alice"},
		{Address: "33622222222"},
	}
	h.transport.chats = []Chat{
		{ID: "120363@g.us", Name: "Team", IsGroup: true, Participants: 3},
		{ID: "33611111111@s.whatsapp.net", Name: "Alice"},
	}
	ctx := context.Background()

	for i := range 2 {
		res, err := h.engine.SyncDirectory(ctx)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.ContactsSaved != 2 || res.ContactsTotal != 2 || res.GroupsSaved != 1 || res.GroupsTotal != 1 {
			t.Errorf("run %d: result = %+v", i, res)
		}
	}

	contacts, err := h.engine.ListDirectory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	names := map[string]string{}
	for _, c := range contacts {
		names[c.Number] = c.Name
	}
	if names["33622222222"] != "Contact sans nom" {
		t.Errorf("unnamed contact stored as %q", names["33622222222"])
	}

	groups, err := h.engine.ListGroups(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].ParticipantsCount != 3 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestSyncDirectorySkipsInvalidContact(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.contacts = []Contact{{Address: "", Name: "ghost"}}

	res, err := h.engine.SyncDirectory(context.Background())
	if err != nil {
		t.Fatalf("SyncDirectory() error = %v", err)
	}
	if res.ContactsSaved != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 0 saved 1 skipped", res)
	}
	if n, _ := h.db.ContactCount(context.Background()); n != 0 {
		t.Errorf("ContactCount() = %d, want 0", n)
	}
}

func TestSyncDirectorySkipsGroupWithoutID(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.chats = []Chat{{Name: "broken", IsGroup: true}}

	res, err := h.engine.SyncDirectory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.GroupsSaved != 0 || res.GroupsTotal != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncDirectoryFetchFailure(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.listErr = errors.New("usync timeout")

	_, err := h.engine.SyncDirectory(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestSyncDirectoryWriteFailuresAreCounted(t *testing.T) {
	fs := &failingStore{upsertErr: errors.New("constraint failed")}
	h := newHarness(t, fs, Options{})
	h.makeReady(t)
	h.transport.contacts = []Contact{{Address: "33611111111"}, {Address: "33622222222"}}

	res, err := h.engine.SyncDirectory(context.Background())
	if err != nil {
		t.Fatalf("SyncDirectory() error = %v", err)
	}
	if res.Failed != 2 || res.ContactsSaved != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncDirectorySharesInFlightRun(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	h.transport.contacts = []Contact{{Address: "33611111111"}}
	h.transport.block = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]SyncResult, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.engine.SyncDirectory(context.Background())
			if err != nil {
				t.Errorf("SyncDirectory() error = %v", err)
			}
			results[i] = res
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.transport.listCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sync never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(h.transport.block)
	wg.Wait()

	if n := h.transport.listCount(); n != 1 {
		t.Errorf("ListContacts calls = %d, want 1 shared run", n)
	}
	for i, res := range results {
		if res.ContactsSaved != 1 {
			t.Errorf("caller %d result = %+v", i, res)
		}
	}
}

func TestIsInvalidInput(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()

	_, sendErr := h.engine.SubmitOutbound(ctx, "", "hi")
	tplErr := h.engine.SaveTemplate(ctx, &store.Template{Name: "two words", Content: "x"})
	cfgErr := h.engine.SetConfig(ctx, " ", "x")

	for name, err := range map[string]error{"send": sendErr, "template": tplErr, "config": cfgErr} {
		if !IsInvalidInput(err) {
			t.Errorf("%s: IsInvalidInput(%v) = false", name, err)
		}
	}
	if IsInvalidInput(ErrNotConnected) || IsInvalidInput(&TransportError{Op: "send", Err: errors.New("x")}) {
		t.Error("IsInvalidInput should not match connection or transport errors")
	}
}

func TestSearchMessages(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.makeReady(t)
	ctx := context.Background()
	h.engine.HandleEvent(ctx, Inbound{ID: "s1", From: "33611111111@s.whatsapp.net", Body: "rendez-vous demain midi"})

	res, err := h.engine.SearchMessages(ctx, "demain", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Message.MsgID != "s1" {
		t.Errorf("results = %+v", res)
	}
	if _, err := h.engine.SearchMessages(ctx, "  ", "", 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty query error = %v", err)
	}
}
