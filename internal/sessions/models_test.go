package sessions

import (
	"testing"
	"time"
)

func TestStatusOf(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		date string
		end  string
		want Status
	}{
		{"past date", "2026-03-09", "23:59", StatusCompleted},
		{"future date", "2026-03-11", "00:01", StatusUpcoming},
		{"today, ended", "2026-03-10", "14:00", StatusCompleted},
		{"today, ends this minute", "2026-03-10", "14:30", StatusUpcoming},
		{"today, still to come", "2026-03-10", "16:00", StatusUpcoming},
		{"today, unparseable end", "2026-03-10", "garbage", StatusUpcoming},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Session{Date: tc.date, EndTime: tc.end}
			if got := StatusOf(s, now); got != tc.want {
				t.Errorf("StatusOf(date=%s end=%s) = %s, want %s", tc.date, tc.end, got, tc.want)
			}
		})
	}
}

func TestClockMinutes(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:30": 570,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ClockMinutes(in)
		if err != nil {
			t.Errorf("ClockMinutes(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ClockMinutes(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "10", "24:00", "12:60", "ab:cd", "-1:30"} {
		if _, err := ClockMinutes(in); err == nil {
			t.Errorf("ClockMinutes(%q) expected error", in)
		}
	}
}
