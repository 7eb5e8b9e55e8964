package httpapi

import (
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	value, err := parsePositiveInt("", 30, 1, 365)
	if err != nil || value != 30 {
		t.Fatalf("expected default 30, got %d (err %v)", value, err)
	}

	value, err = parsePositiveInt(" 14 ", 30, 1, 365)
	if err != nil || value != 14 {
		t.Fatalf("expected 14, got %d (err %v)", value, err)
	}

	if _, err := parsePositiveInt("0", 30, 1, 365); err == nil {
		t.Fatalf("expected range error for 0")
	}
	if _, err := parsePositiveInt("400", 30, 1, 365); err == nil {
		t.Fatalf("expected range error for 400")
	}
	if _, err := parsePositiveInt("abc", 30, 1, 365); err == nil {
		t.Fatalf("expected parse error for non-integer")
	}
}

func TestParseSigma(t *testing.T) {
	t.Parallel()

	value, err := parseSigma("", 2.0)
	if err != nil || value != 2.0 {
		t.Fatalf("expected default 2.0, got %v (err %v)", value, err)
	}

	value, err = parseSigma("1.5", 2.0)
	if err != nil || value != 1.5 {
		t.Fatalf("expected 1.5, got %v (err %v)", value, err)
	}

	if _, err := parseSigma("0", 2.0); err == nil {
		t.Fatalf("expected rejection of zero sigma")
	}
	if _, err := parseSigma("-1", 2.0); err == nil {
		t.Fatalf("expected rejection of negative sigma")
	}
	if _, err := parseSigma("11", 2.0); err == nil {
		t.Fatalf("expected rejection above the cap")
	}
}

func TestNewServerAppliesDefaults(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, testLogger(), Options{})
	if srv.opts.Host != "0.0.0.0" {
		t.Fatalf("unexpected default host %q", srv.opts.Host)
	}
	if srv.opts.Port != 8094 {
		t.Fatalf("unexpected default port %d", srv.opts.Port)
	}
	if srv.opts.ReadTimeout <= 0 || srv.opts.WriteTimeout <= 0 || srv.opts.ShutdownTimeout <= 0 {
		t.Fatalf("expected positive default timeouts, got %+v", srv.opts)
	}
}
