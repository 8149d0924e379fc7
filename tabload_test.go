package tabload

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"cloud.google.com/go/functions/metadata"
)

func TestTabLoader(t *testing.T) {
	projector := func(_ context.Context, r RawRecord) (RawRecord, error) {
		r["DisplayName"] = strings.ToUpper(r["DisplayName"].(string))
		return r, nil
	}

	tl := newTestLoader()
	tn := newTestNotifier()

	handler := newTestHandler(tl, tn)
	handler.Pattern = regexp.MustCompile("^test/")
	handler.Projector = projector

	other := newTestLoader()
	otherHandler := newTestHandler(other, nil)
	otherHandler.Pattern = regexp.MustCompile("^other/")

	ctx := context.Background()

	var logs bytes.Buffer
	loader, err := New(WithPrettyLogging(), WithLogLevel("debug"), WithLogOutput(&logs))
	if err != nil {
		t.Fatal(err)
	}
	loader.MustAddHandler(ctx, handler)
	loader.MustAddHandler(ctx, otherHandler)

	src := bytes.NewBufferString("DisplayName,BeginDate,EndDate\njohn,1990,2020")
	e := Event{Name: "test/name", Bucket: "bucket", source: src}

	if err := loader.Handle(ctx, e); err != nil {
		t.Fatal(err)
	}

	if len(tl.result) != 1 {
		t.Fatalf("Size of result records should be 1, but %d.", len(tl.result))
	}
	if tl.result[0]["DisplayName"] != "JOHN" {
		t.Errorf(`result[0]["DisplayName"] should be "JOHN", but %v`, tl.result[0]["DisplayName"])
	}
	if len(other.result) != 0 {
		t.Errorf("Unmatched handler should not load, but %d records", len(other.result))
	}
	if len(tn.results) != 1 || tn.results[0].Duration <= 0 {
		t.Errorf("Unexpected notification: %+v", tn.results)
	}
	if !strings.Contains(logs.String(), "handler finished") {
		t.Errorf("logs should contain the handler summary, but %s", logs.String())
	}
}

func TestTabLoader_error(t *testing.T) {
	projector := func(_ context.Context, _ RawRecord) (RawRecord, error) {
		return nil, fmt.Errorf("projector error")
	}

	handler := newTestHandler(newTestLoader(), newTestNotifier())
	handler.Pattern = regexp.MustCompile("^test/")
	handler.Projector = projector

	ctx := context.Background()

	loader, err := New(WithLogOutput(&bytes.Buffer{}), WithLogLevel("debug"))
	if err != nil {
		t.Fatal(err)
	}
	loader.MustAddHandler(ctx, handler)

	src := bytes.NewBufferString("DisplayName,BeginDate,EndDate\njohn,1990,2020")
	e := Event{Name: "test/name", Bucket: "bucket", source: src}

	if err := loader.Handle(ctx, e); err == nil {
		t.Error("expected error but no error occurred")
	}
}

func TestTabLoader_eventMetadata(t *testing.T) {
	handler := newTestHandler(newTestLoader(), nil)
	handler.Pattern = regexp.MustCompile(".")

	var logs, rejections bytes.Buffer
	loader, err := New(WithLogOutput(&logs), WithRejectionLog(&rejections))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	loader.MustAddHandler(ctx, handler)

	ctx = metadata.NewContext(ctx, &metadata.Metadata{EventID: "event-1234"})
	src := bytes.NewBufferString("DisplayName,BeginDate,EndDate\nJane,Avengers,2021")

	if err := loader.Handle(ctx, Event{Name: "a.csv", source: src}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(logs.String(), `"event_id":"event-1234"`) {
		t.Errorf("logs should contain the event id, but %s", logs.String())
	}
	if !strings.Contains(rejections.String(), `"reason":"TypeCoercionFailure:BeginDate"`) {
		t.Errorf("rejection log should contain the rejection, but %s", rejections.String())
	}
}

func TestTabLoader_AddHandler(t *testing.T) {
	loader, err := New(WithLogOutput(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}

	for name, mutate := range map[string]func(*Handler){
		"no parser":      func(h *Handler) { h.Parser = nil },
		"no schema":      func(h *Handler) { h.Schema = nil },
		"no loader":      func(h *Handler) { h.Loader = nil },
		"no destination": func(h *Handler) { h.Destination = nil },
	} {
		h := newTestHandler(newTestLoader(), nil)
		mutate(h)
		if err := loader.AddHandler(context.Background(), h); err == nil {
			t.Errorf("%s: expected error but no error occurred", name)
		}
	}
}

func TestNew_invalidLogLevel(t *testing.T) {
	if _, err := New(WithLogLevel("loud")); err == nil {
		t.Error("expected error but no error occurred")
	}
}
