// internal/session/layout_test.go
package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/chronicle/internal/types"
)

func TestLayoutDirs(t *testing.T) {
	layout := NewLayout("/data", "ws-1:thread-9")

	dir := layout.Dir(ClassEpisodes)
	want := filepath.Join("/data", "sessions", "ws-1%3Athread-9", "episodes")
	if dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}

	nowMS := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC).UnixMilli()
	file := layout.DayFile(ClassLedger, nowMS)
	if filepath.Base(file) != "2026-02-11.jsonl" {
		t.Errorf("unexpected day file name: %s", file)
	}
}

func TestListSessionsRoundTrip(t *testing.T) {
	root := t.TempDir()

	ids := []string{"ws-1:thread-9", "ws-2:thread-1:space/a"}
	for _, id := range ids {
		if err := os.MkdirAll(NewLayout(root, types.SessionID(id)).Dir(ClassEpisodes), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	listed, err := ListSessions(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != len(ids) {
		t.Fatalf("expected %d sessions, got %d", len(ids), len(listed))
	}
	found := make(map[string]bool)
	for _, id := range listed {
		found[string(id)] = true
	}
	for _, id := range ids {
		if !found[id] {
			t.Errorf("session %q missing from listing", id)
		}
	}
}

func TestListSessionsMissingRoot(t *testing.T) {
	listed, err := ListSessions(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 0 {
		t.Errorf("expected empty listing, got %v", listed)
	}
}

func TestDayNameParseDay(t *testing.T) {
	nowMS := time.Date(2026, 2, 11, 23, 59, 59, 0, time.UTC).UnixMilli()
	if name := DayName(nowMS); name != "2026-02-11" {
		t.Errorf("expected 2026-02-11, got %s", name)
	}

	start, ok := ParseDay("2026-02-11")
	if !ok {
		t.Fatal("expected parseable day")
	}
	if got := time.UnixMilli(start).UTC(); got != time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC) {
		t.Errorf("unexpected midnight: %v", got)
	}

	if _, ok := ParseDay("not-a-date"); ok {
		t.Error("expected parse failure")
	}
}

func TestAgeDays(t *testing.T) {
	nowMS := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC).UnixMilli()

	cases := []struct {
		day  string
		want int64
	}{
		{"2026-02-11", 0},
		{"2026-02-10", 1},
		{"2026-02-01", 10},
		{"2026-01-28", 14},
	}
	for _, tc := range cases {
		age, ok := AgeDays(nowMS, tc.day)
		if !ok {
			t.Fatalf("expected %s to parse", tc.day)
		}
		if age != tc.want {
			t.Errorf("age of %s: expected %d, got %d", tc.day, tc.want, age)
		}
	}

	// Future-dated files report a negative age so no TTL can match them.
	age, ok := AgeDays(nowMS, "2026-02-12")
	if !ok {
		t.Fatal("expected future day to parse")
	}
	if age >= 0 {
		t.Errorf("expected negative age for future day, got %d", age)
	}

	if _, ok := AgeDays(nowMS, "banana"); ok {
		t.Error("expected non-date to be rejected")
	}
}
