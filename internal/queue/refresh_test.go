package queue

import (
	"context"
	"testing"
)

type fakeClearer struct {
	cleared int
}

func (f *fakeClearer) ClearCache() { f.cleared++ }

func TestProcessRefreshEvent(t *testing.T) {
	agg := &fakeClearer{}

	body := []byte(`{"requestedAt": "2024-06-12T10:00:00Z", "status": "real"}`)
	if err := ProcessRefreshEvent(context.Background(), agg, body); err != nil {
		t.Fatal(err)
	}
	if agg.cleared != 1 {
		t.Fatalf("cleared = %d, want 1", agg.cleared)
	}
}

func TestProcessRefreshEventIgnoresUnknownEnvelope(t *testing.T) {
	agg := &fakeClearer{}
	if err := ProcessRefreshEvent(context.Background(), agg, []byte(`{"foo": "bar"}`)); err != nil {
		t.Fatal(err)
	}
	if agg.cleared != 0 {
		t.Fatalf("cleared = %d, want 0", agg.cleared)
	}
}

func TestProcessRefreshEventMalformed(t *testing.T) {
	agg := &fakeClearer{}
	if err := ProcessRefreshEvent(context.Background(), agg, []byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
	if agg.cleared != 0 {
		t.Fatalf("cleared = %d, want 0", agg.cleared)
	}
}
