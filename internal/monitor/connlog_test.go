package monitor

import (
	"fmt"
	"testing"
	"time"
)

func TestConnectionLog_retainsNewestFifty(t *testing.T) {
	l := NewConnectionLog(DefaultLogCapacity, nil)
	for i := 0; i < 60; i++ {
		l.Append(fmt.Sprintf("entry %d", i), StatusAllowed)
	}

	entries := l.Entries()
	if len(entries) != 50 {
		t.Fatalf("len = %d, want 50", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("entry %d", 59-i)
		if e.Message != want {
			t.Fatalf("entries[%d] = %q, want %q", i, e.Message, want)
		}
	}
}

func TestConnectionLog_timestampsEntries(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewConnectionLog(5, func() time.Time { return at })

	e := l.Append("hello", StatusBlocked)
	if !e.Time.Equal(at) {
		t.Fatalf("Time = %v, want %v", e.Time, at)
	}
	if e.Status != StatusBlocked {
		t.Fatalf("Status = %q", e.Status)
	}
}

func TestConnectionLog_entriesIsACopy(t *testing.T) {
	l := NewConnectionLog(0, nil)
	if l.Capacity() != DefaultLogCapacity {
		t.Fatalf("Capacity() = %d, want default", l.Capacity())
	}
	l.Append("a", StatusAllowed)

	entries := l.Entries()
	entries[0].Message = "mutated"
	if l.Entries()[0].Message != "a" {
		t.Fatal("Entries() exposed internal storage")
	}
}
