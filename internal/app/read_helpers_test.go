package app

import (
	"testing"
	"time"
)

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	format, err := parseOutputFormat("", outputFormatTable)
	if err != nil || format != outputFormatTable {
		t.Fatalf("expected table default, got %q (err %v)", format, err)
	}

	format, err = parseOutputFormat(" JSON ", outputFormatTable)
	if err != nil || format != outputFormatJSON {
		t.Fatalf("expected json, got %q (err %v)", format, err)
	}

	if _, err := parseOutputFormat("yaml", outputFormatTable); err == nil {
		t.Fatalf("expected rejection of unsupported format")
	}
}

func TestParseUTCDate(t *testing.T) {
	t.Parallel()

	day, err := parseUTCDate(" 2026-03-15 ")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !day.Equal(want) {
		t.Fatalf("expected %s, got %s", want, day)
	}

	if _, err := parseUTCDate(""); err == nil {
		t.Fatalf("expected error for empty date")
	}
	if _, err := parseUTCDate("15/03/2026"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestFormatPct(t *testing.T) {
	t.Parallel()

	if got := formatPct(nil); got != "n/a" {
		t.Fatalf("expected n/a for undefined change, got %q", got)
	}

	value := 12.34
	if got := formatPct(&value); got != "12.3%" {
		t.Fatalf("expected 12.3%%, got %q", got)
	}

	negative := -50.0
	if got := formatPct(&negative); got != "-50.0%" {
		t.Fatalf("expected -50.0%%, got %q", got)
	}
}
