package aggregate

import (
	"testing"
	"time"
)

func TestFilterDays(t *testing.T) {
	t.Parallel()

	mk := func(d int) time.Time {
		return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	}
	days := []time.Time{mk(1), mk(2), mk(3), mk(4), mk(5)}

	all := FilterDays(days, nil, nil)
	if len(all) != 5 {
		t.Fatalf("expected all days without bounds, got %d", len(all))
	}

	from := mk(2)
	to := mk(4)
	bounded := FilterDays(days, &from, &to)
	if len(bounded) != 3 || !bounded[0].Equal(mk(2)) || !bounded[2].Equal(mk(4)) {
		t.Fatalf("expected inclusive [2,4] window, got %v", bounded)
	}

	onlyFrom := FilterDays(days, &to, nil)
	if len(onlyFrom) != 2 || !onlyFrom[0].Equal(mk(4)) {
		t.Fatalf("unexpected from-only filter: %v", onlyFrom)
	}

	if got := FilterDays(nil, &from, &to); len(got) != 0 {
		t.Fatalf("expected empty result for no days, got %v", got)
	}
}
