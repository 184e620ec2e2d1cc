package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now_WhenCalled_ThenReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := RealClock{}.Now()
	after := time.Now()

	if result.Before(before) || result.After(after) {
		t.Errorf("expected time between %v and %v, got %v", before, after, result)
	}
}

func TestFixedClock_Now_WhenCalledRepeatedly_ThenAlwaysReturnsSameTime(t *testing.T) {
	fixedTime := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	fixed := NewFixed(fixedTime)

	first := fixed.Now()
	time.Sleep(10 * time.Millisecond)
	second := fixed.Now()

	if !first.Equal(fixedTime) {
		t.Errorf("expected %v, got %v", fixedTime, first)
	}
	if !first.Equal(second) {
		t.Errorf("expected both calls to return the same time, got %v and %v", first, second)
	}
}

func TestFixedClock_Now_WhenZeroTime_ThenReturnsZeroTime(t *testing.T) {
	if !NewFixed(time.Time{}).Now().IsZero() {
		t.Error("expected zero time")
	}
}
