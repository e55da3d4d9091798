package schedule

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 30, 0, time.UTC)
}

func TestMatchCron(t *testing.T) {
	cases := []struct {
		expr string
		t    time.Time
		want bool
	}{
		{"0 20 * * *", at(20, 0), true},
		{"0 20 * * *", at(20, 1), false},
		{"0 20 * * *", at(21, 0), false},
		{"50 20 * * *", at(20, 50), true},
		{"50 20 * * *", at(20, 49), false},
		{"*/15 * * * *", at(9, 30), true},
		{"*/15 * * * *", at(9, 20), false},
		{"0 9-17 * * *", at(12, 0), true},
		{"0 9-17 * * *", at(18, 0), false},
		{"* * * * *", at(3, 33), true},
		{"bad expr", at(3, 33), false},
		{"0 20 * *", at(20, 0), false}, // four fields
	}
	for _, c := range cases {
		if got := matchCron(c.expr, c.t); got != c.want {
			t.Errorf("matchCron(%q, %s) = %v, want %v", c.expr, c.t, got, c.want)
		}
	}
}

func TestIsDue_CronFiresOncePerMinute(t *testing.T) {
	e := &entry{cronExpr: "0 20 * * *"}

	first := at(20, 0)
	if !isDue(e, first) {
		t.Fatal("expected entry to be due at 20:00")
	}
	e.lastRun = first

	// Later ticks in the same minute must not re-fire.
	if isDue(e, first.Add(10*time.Second)) {
		t.Error("cron entry fired twice within the same minute")
	}

	// The next day's 20:00 fires again.
	if !isDue(e, first.Add(24*time.Hour)) {
		t.Error("expected entry to be due the next day")
	}
}

func TestIsDue_IntervalEntries(t *testing.T) {
	e := &entry{interval: time.Hour}

	now := at(9, 0)
	if !isDue(e, now) {
		t.Fatal("interval entries run immediately on first check")
	}
	e.lastRun = now

	if isDue(e, now.Add(30*time.Minute)) {
		t.Error("entry fired before the interval elapsed")
	}
	if !isDue(e, now.Add(time.Hour)) {
		t.Error("entry did not fire after the interval elapsed")
	}
}

func TestAtRewritesToCron(t *testing.T) {
	s := Daily().At("03:15")
	if s.e.cronExpr != "15 3 * * *" {
		t.Errorf("At(03:15) produced %q", s.e.cronExpr)
	}
	if s.e.interval != 0 {
		t.Error("At must clear the rolling interval")
	}
}
