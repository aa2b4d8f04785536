package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		t    time.Time
		want int
	}{
		{time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC), 7},
		{time.Date(2025, 6, 30, 2, 0, 0, 0, time.UTC), 0},
		{time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), 0},
		{time.Time{}, 0},
	}
	for i, c := range cases {
		if got := DaysSince(c.t, now); got != c.want {
			t.Fatalf("case %d: got %d want %d", i, got, c.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" pyrano1, pyrano2 ,,temp ")
	if len(got) != 3 || got[0] != "pyrano1" || got[1] != "pyrano2" || got[2] != "temp" {
		t.Fatalf("unexpected parts %v", got)
	}
	if SplitCSV("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestAlignWindow(t *testing.T) {
	from := time.Date(2025, 6, 30, 11, 59, 42, 123, time.UTC)
	to := time.Date(2025, 6, 30, 12, 0, 17, 456, time.UTC)
	gotFrom, gotTo := AlignWindow(from, to, time.Minute)
	if gotFrom.Second() != 0 || gotFrom.Minute() != 59 {
		t.Fatalf("from not aligned: %v", gotFrom)
	}
	if gotTo.Second() != 0 || gotTo.Minute() != 0 {
		t.Fatalf("to not aligned: %v", gotTo)
	}

	// Non-positive step falls back to a minute.
	gotFrom, _ = AlignWindow(from, to, 0)
	if gotFrom.Second() != 0 {
		t.Fatalf("zero step not defaulted: %v", gotFrom)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
}
