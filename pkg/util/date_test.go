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

func TestParseTimeCalendarDates(t *testing.T) {
	cases := map[string]time.Time{
		"2023-05-17": time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC),
		"2023-05":    time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		"17/05/2023": time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC),
		"2023":       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTime(in)
		if !ok {
			t.Fatalf("%s: expected ok", in)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
	if _, ok := ParseTime("not a date"); ok {
		t.Fatalf("expected failure")
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" ipca, selic,,ipca ,igpm ")
	want := []string{"ipca", "selic", "igpm"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
