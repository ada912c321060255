package duedate

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize_TomorrowMorning(t *testing.T) {
	n := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := n.Normalize("tomorrow 9am", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalize_DeterministicForFixedReference(t *testing.T) {
	n := New()
	now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

	first, err := n.Normalize("tomorrow 5pm", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := n.Normalize("tomorrow 5pm", now)
		if err != nil {
			t.Fatalf("unexpected error on repeat %d: %v", i, err)
		}
		if !got.Equal(first) {
			t.Fatalf("repeat %d: expected %v, got %v", i, first, got)
		}
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	n := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"not a date", "zzzzz", "", "   "} {
		_, err := n.Normalize(input, now)
		if err == nil {
			t.Fatalf("expected error for %q", input)
		}
		if !errors.Is(err, ErrUnparseable) {
			t.Fatalf("expected ErrUnparseable for %q, got %v", input, err)
		}
	}
}

func TestNormalize_TruncatesToWholeSeconds(t *testing.T) {
	n := New()
	now := time.Date(2024, 1, 1, 10, 0, 0, 123456789, time.UTC)

	got, err := n.Normalize("tomorrow", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nanosecond() != 0 {
		t.Fatalf("expected whole seconds, got %dns", got.Nanosecond())
	}
}
