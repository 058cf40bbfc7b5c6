package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func at(minute int) time.Time {
	return time.Date(2026, 3, 14, 10, minute, 0, 0, time.UTC)
}

func TestDueCollectMinute(t *testing.T) {
	s := New(Options{CollectMinute: 30, AlertMinutes: []int{15}}, zerolog.Nop())

	collect, alert := s.due(at(30))
	if !collect || alert {
		t.Fatalf("minute 30 should fire collect only: collect=%v alert=%v", collect, alert)
	}

	collect, _ = s.due(at(31))
	if collect {
		t.Fatal("minute 31 should not fire collect")
	}
}

func TestDueFiresOncePerMinute(t *testing.T) {
	s := New(Options{CollectMinute: 30, AlertMinutes: []int{30}}, zerolog.Nop())

	tick := at(30)
	collect, alert := s.due(tick)
	if !collect || !alert {
		t.Fatal("both triggers should fire on their minute")
	}

	// A late tick landing in the same minute must not double-fire.
	collect, alert = s.due(tick.Add(20 * time.Second))
	if collect || alert {
		t.Fatalf("same minute should not fire twice: collect=%v alert=%v", collect, alert)
	}
}

func TestDueRefiresNextHour(t *testing.T) {
	s := New(Options{CollectMinute: 30}, zerolog.Nop())

	if collect, _ := s.due(at(30)); !collect {
		t.Fatal("first hour should fire")
	}
	if collect, _ := s.due(at(30).Add(time.Hour)); !collect {
		t.Fatal("the same minute next hour should fire again")
	}
}

func TestDueIndependentTriggers(t *testing.T) {
	s := New(Options{CollectMinute: 30, AlertMinutes: []int{1, 15}}, zerolog.Nop())

	collect, alert := s.due(at(1))
	if collect || !alert {
		t.Fatalf("minute 1 should fire alert only: collect=%v alert=%v", collect, alert)
	}

	collect, alert = s.due(at(15))
	if collect || !alert {
		t.Fatalf("minute 15 should fire alert only: collect=%v alert=%v", collect, alert)
	}
}

func TestNewDropsInvalidAlertMinutes(t *testing.T) {
	s := New(Options{CollectMinute: 30, AlertMinutes: []int{5, 60, -1}}, zerolog.Nop())
	if len(s.alertSet) != 1 {
		t.Fatalf("out-of-range minutes should be dropped, got %v", s.alertSet)
	}
}
