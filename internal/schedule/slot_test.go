package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestComposeUTC(t *testing.T) {
	composer := NewComposer(nil)

	slot, err := composer.Compose("2025-06-01", "10:30")
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	want := time.Date(2025, time.June, 1, 10, 30, 0, 0, time.UTC)
	if !slot.At.Equal(want) {
		t.Errorf("composed instant %s, want %s", slot.At, want)
	}
	if slot.Date != "2025-06-01" || slot.Clock != "10:30" {
		t.Errorf("unexpected normalized slot %q %q", slot.Date, slot.Clock)
	}
}

func TestComposeRespectsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	composer := NewComposer(loc)

	slot, err := composer.Compose("2025-06-01", "10:00")
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	// 10:00 IST is 04:30 UTC.
	want := time.Date(2025, time.June, 1, 4, 30, 0, 0, time.UTC)
	if !slot.At.UTC().Equal(want) {
		t.Errorf("composed instant %s, want %s", slot.At.UTC(), want)
	}
}

func TestComposeInvalidInput(t *testing.T) {
	composer := NewComposer(time.UTC)

	cases := []struct {
		name  string
		date  string
		clock string
	}{
		{"garbage date", "june 1st", "10:00"},
		{"month out of range", "2025-13-01", "10:00"},
		{"garbage time", "2025-06-01", "morning"},
		{"minute out of range", "2025-06-01", "10:75"},
		{"empty date", "", "10:00"},
		{"empty time", "2025-06-01", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := composer.Compose(tc.date, tc.clock); !errors.Is(err, ErrInvalidSlot) {
				t.Fatalf("expected ErrInvalidSlot, got %v", err)
			}
		})
	}
}
