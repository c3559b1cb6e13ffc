package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldFetch(t *testing.T) {
	fetching := []Change{ChangePage, ChangeSize, ChangeSort, ChangeEndpoint, ChangeFilters, ChangeKeyword}
	for _, c := range fetching {
		if !ShouldFetch(c) {
			t.Fatalf("ShouldFetch(%v) = false, want true", c)
		}
	}
	if ShouldFetch(ChangeNone) {
		t.Fatal("ShouldFetch(none) = true, want false")
	}
}

func TestResetsPage(t *testing.T) {
	resets := map[Change]bool{
		ChangePage:     false,
		ChangeSize:     false,
		ChangeSort:     false,
		ChangeEndpoint: true,
		ChangeFilters:  true,
		ChangeKeyword:  true,
	}
	for c, want := range resets {
		if got := ResetsPage(c); got != want {
			t.Fatalf("ResetsPage(%v) = %v, want %v", c, got, want)
		}
	}
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	var fetches int64
	d := NewDebouncer(30*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&fetches, 1)
		return nil
	})
	defer d.Stop()

	d.Trigger(ChangePage)
	d.Trigger(ChangeFilters)
	d.Trigger(ChangeKeyword)

	time.Sleep(120 * time.Millisecond)
	if got := atomic.LoadInt64(&fetches); got != 1 {
		t.Fatalf("fetches = %d, want 1 after a burst", got)
	}
}

func TestDebouncerIgnoresNone(t *testing.T) {
	var fetches int64
	d := NewDebouncer(10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&fetches, 1)
		return nil
	})
	defer d.Stop()

	d.Trigger(ChangeNone)
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt64(&fetches) != 0 {
		t.Fatal("ChangeNone must not schedule a fetch")
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var fetches int64
	d := NewDebouncer(50*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt64(&fetches, 1)
		return nil
	})

	d.Trigger(ChangePage)
	d.Stop()
	time.Sleep(120 * time.Millisecond)
	if atomic.LoadInt64(&fetches) != 0 {
		t.Fatal("Stop must cancel the pending fetch")
	}
}
