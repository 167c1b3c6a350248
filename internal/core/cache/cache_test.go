package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docketlens/internal/platform/testkit"
)

func TestSetGetAndTTLExpiry(t *testing.T) {
	testkit.Serial(t)
	now := time.Unix(1000, 0)
	testkit.Swap(t, &timeNow, func() time.Time { return now })

	c := New(Config{MaxItems: 10})
	c.Set("k", "v", time.Second)

	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("immediate get = %v %v", v, ok)
	}

	now = now.Add(1500 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expired entry returned")
	}
	if c.Has("k") {
		t.Fatalf("has must be false after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("lazy expiry must evict, len=%d", c.Len())
	}
}

func TestItemCeilingEvictsLRU(t *testing.T) {
	c := New(Config{MaxItems: 3})
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	// touch a so b becomes least recently used
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("warm get failed")
	}
	c.Set("d", 4, time.Minute)

	if c.Len() != 3 {
		t.Fatalf("len=%d, want 3", c.Len())
	}
	if c.Has("b") {
		t.Fatalf("lru entry b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !c.Has(k) {
			t.Fatalf("entry %s missing", k)
		}
	}
}

func TestLenNeverExceedsCeiling(t *testing.T) {
	c := New(Config{MaxItems: 5})
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "a", "b"} {
		c.Set(k, strings.Repeat(k, 3), time.Minute)
		if c.Len() > 5 {
			t.Fatalf("len=%d exceeds ceiling", c.Len())
		}
	}
}

func TestByteCeilingEvicts(t *testing.T) {
	c := New(Config{MaxBytes: 64})
	c.Set("big1", strings.Repeat("x", 30), time.Minute)
	c.Set("big2", strings.Repeat("y", 30), time.Minute)
	c.Set("big3", strings.Repeat("z", 30), time.Minute)
	if c.Len() >= 3 {
		t.Fatalf("byte ceiling did not evict, len=%d", c.Len())
	}
	if !c.Has("big3") {
		t.Fatalf("newest entry must survive")
	}
}

func TestDeleteByPattern(t *testing.T) {
	c := New(Config{})
	c.Set("rows?a=1", 1, time.Minute)
	c.Set("rows?a=2", 2, time.Minute)
	c.Set("stats?a=1", 3, time.Minute)

	n := c.DeleteByPattern(func(key string) bool { return strings.HasPrefix(key, "rows") })
	if n != 2 {
		t.Fatalf("deleted %d, want 2", n)
	}
	if c.Has("rows?a=1") || !c.Has("stats?a=1") {
		t.Fatalf("pattern delete touched the wrong entries")
	}
}

func TestGetOrCompute(t *testing.T) {
	testkit.Serial(t)
	now := time.Unix(2000, 0)
	testkit.Swap(t, &timeNow, func() time.Time { return now })

	c := New(Config{})
	calls := 0
	produce := func(context.Context) (any, error) {
		calls++
		return "fresh", nil
	}

	v, err := c.GetOrCompute(context.Background(), "k", time.Second, produce)
	if err != nil || v != "fresh" || calls != 1 {
		t.Fatalf("first compute: v=%v err=%v calls=%d", v, err, calls)
	}
	if _, err := c.GetOrCompute(context.Background(), "k", time.Second, produce); err != nil || calls != 1 {
		t.Fatalf("hit recomputed, calls=%d", calls)
	}

	now = now.Add(2 * time.Second)
	if _, err := c.GetOrCompute(context.Background(), "k", time.Second, produce); err != nil || calls != 2 {
		t.Fatalf("expired key must recompute, calls=%d", calls)
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := New(Config{})
	boom := errors.New("boom")
	_, err := c.GetOrCompute(context.Background(), "k", time.Second, func(context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Has("k") {
		t.Fatalf("failed compute must not cache")
	}
}

func TestDisabledCacheIsAlwaysMiss(t *testing.T) {
	c := New(Config{Disabled: true})
	c.Set("k", "v", time.Minute)
	if _, ok := c.Get("k"); ok || c.Has("k") || c.Len() != 0 {
		t.Fatalf("disabled cache stored an entry")
	}

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := c.GetOrCompute(context.Background(), "k", time.Minute, func(context.Context) (any, error) {
			calls++
			return "v", nil
		})
		if err != nil || v != "v" {
			t.Fatalf("disabled GetOrCompute must still produce")
		}
	}
	if calls != 2 {
		t.Fatalf("disabled cache must always recompute, calls=%d", calls)
	}
}

func TestSetReplacesValueAndSize(t *testing.T) {
	c := New(Config{MaxBytes: 1 << 20})
	c.Set("k", strings.Repeat("a", 100), time.Minute)
	c.Set("k", "tiny", time.Minute)
	if c.Len() != 1 {
		t.Fatalf("replace must not duplicate, len=%d", c.Len())
	}
	if v, _ := c.Get("k"); v != "tiny" {
		t.Fatalf("v=%v", v)
	}
}
