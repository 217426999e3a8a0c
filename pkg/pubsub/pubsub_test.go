package pubsub

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestPublishOrder(t *testing.T) {
	h := NewHub()
	var got []string
	h.Subscribe(TopicSave, func(ev Event) error {
		got = append(got, "a:"+ev.Message)
		return nil
	})
	h.Subscribe(TopicSave, func(ev Event) error {
		got = append(got, "b:"+ev.Message)
		return nil
	})
	h.Subscribe(TopicWarn, func(ev Event) error {
		got = append(got, "warn")
		return nil
	})

	if err := Save(h, PhaseHTML); err != nil {
		t.Fatal(err)
	}
	want := "a:toString,b:toString"
	if s := strings.Join(got, ","); s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}

func TestPublishStopsOnError(t *testing.T) {
	h := NewHub()
	boom := errors.New("boom")
	called := false
	h.Subscribe(TopicBeforeSave, func(Event) error { return boom })
	h.Subscribe(TopicBeforeSave, func(Event) error {
		called = true
		return nil
	})

	err := BeforeSave(h, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called {
		t.Error("second listener should not run after an error")
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	n := 0
	off := h.Subscribe(TopicWarn, func(Event) error {
		n++
		return nil
	})
	Warn(h, "one")
	off()
	off()
	Warn(h, "two")
	if n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestSubscribeAll(t *testing.T) {
	h := NewHub()
	var topics []Topic
	off := h.SubscribeAll(func(ev Event) error {
		topics = append(topics, ev.Topic)
		return nil
	})
	Warn(h, "w")
	Save(h, PhaseXHTML)
	BeforeSave(h, nil)
	off()
	Warn(h, "ignored")
	if len(topics) != 3 {
		t.Fatalf("got %v", topics)
	}
}

func TestLogWarnings(t *testing.T) {
	var buf bytes.Buffer
	h := NewHub()
	LogWarnings(h, slog.New(slog.NewTextHandler(&buf, nil)))

	Warn(h, "missing %s", "charset")
	if !strings.Contains(buf.String(), "missing charset") {
		t.Errorf("log output %q", buf.String())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) != Discard {
		t.Error("nil should map to Discard")
	}
	if err := Warn(OrDiscard(nil), "x"); err != nil {
		t.Error(err)
	}
}
