package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

func TestFromResultOutcomes(t *testing.T) {
	cases := []struct {
		res  exchange.Result
		want string
	}{
		{exchange.Result{Success: true}, "granted"},
		{exchange.Result{AccessDenied: true}, "denied"},
		{exchange.Result{Success: true, DemoMode: true}, "demo"},
		{exchange.Result{Err: "boom"}, "error"},
	}
	for _, tc := range cases {
		ev := FromResult(tc.res, "sales", "user-1", "u1@example.com")
		if ev.Outcome != tc.want {
			t.Fatalf("expected outcome %q, got %q", tc.want, ev.Outcome)
		}
	}
}

func TestFromResultPrefersTokenSubject(t *testing.T) {
	res := exchange.Result{Success: true, UserSubject: "sub-from-token"}
	ev := FromResult(res, "sales", "sub-from-session", "")
	if ev.UserSubject != "sub-from-token" {
		t.Fatalf("expected token subject to win, got %q", ev.UserSubject)
	}

	ev = FromResult(exchange.Result{Success: true}, "sales", "sub-from-session", "")
	if ev.UserSubject != "sub-from-session" {
		t.Fatalf("expected session subject fallback, got %q", ev.UserSubject)
	}
}

func TestMemoryRecorderRingBuffer(t *testing.T) {
	rec := NewMemoryRecorder(3, nil)
	for i := 0; i < 5; i++ {
		ev := FromResult(exchange.Result{Success: true}, "sales", fmt.Sprintf("user-%d", i), "")
		if err := rec.Record(context.Background(), ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	events, err := rec.Recent(context.Background(), time.Time{}, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected ring capped at 3, got %d", len(events))
	}
	// Newest first.
	if events[0].UserSubject != "user-4" {
		t.Fatalf("expected newest first, got %q", events[0].UserSubject)
	}
}

func TestMemoryRecorderSinceFilter(t *testing.T) {
	rec := NewMemoryRecorder(0, nil)
	old := FromResult(exchange.Result{Success: true, ExchangedAt: time.Now().Add(-time.Hour)}, "sales", "old", "")
	fresh := FromResult(exchange.Result{Success: true, ExchangedAt: time.Now()}, "sales", "fresh", "")
	_ = rec.Record(context.Background(), old)
	_ = rec.Record(context.Background(), fresh)

	events, err := rec.Recent(context.Background(), time.Now().Add(-10*time.Minute), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 1 || events[0].UserSubject != "fresh" {
		t.Fatalf("expected only the fresh event, got %+v", events)
	}
}
