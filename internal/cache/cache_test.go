package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rakunlabs/n8n-mcp/internal/model"
)

func TestKeyIsDeterministicAndHex(t *testing.T) {
	ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k1", InstanceID: "i1"}
	k1 := Key(ctx)
	k2 := Key(ctx)
	if k1 != k2 {
		t.Fatal("Key must be deterministic for the same context")
	}
	if len(k1) != 64 {
		t.Errorf("len(Key) = %d, want 64 (sha256 hex)", len(k1))
	}
}

func TestKeyDiffersOnAnyField(t *testing.T) {
	base := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k1", InstanceID: "i1"}
	variants := []model.InstanceContext{
		{APIURL: "https://b.example.com", APIKey: "k1", InstanceID: "i1"},
		{APIURL: "https://a.example.com", APIKey: "k2", InstanceID: "i1"},
		{APIURL: "https://a.example.com", APIKey: "k1", InstanceID: "i2"},
	}
	baseKey := Key(base)
	for _, v := range variants {
		if Key(v) == baseKey {
			t.Errorf("expected distinct key for variant %+v", v)
		}
	}
}

func TestGetCreatesOnceAndCachesOnHit(t *testing.T) {
	c := New(10, time.Minute)
	ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k", InstanceID: "i"}

	var calls int32
	factory := func(model.InstanceContext) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "client-a", nil
	}

	v1, err := c.Get(ctx, factory)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := c.Get(ctx, factory)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != "client-a" || v2 != "client-a" {
		t.Fatalf("unexpected client values: %v, %v", v1, v2)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}

	m := c.Metrics()
	if m.Hits != 1 || m.Misses != 1 || m.Sets != 1 {
		t.Errorf("metrics = %+v, want hits=1 misses=1 sets=1", m)
	}
}

func TestGetSingleFlightsConcurrentMisses(t *testing.T) {
	c := New(10, time.Minute)
	ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k", InstanceID: "i"}

	var calls int32
	start := make(chan struct{})
	factory := func(model.InstanceContext) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-start
		return "client-a", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(ctx, factory)
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(start)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("factory called %d times under contention, want 1", calls)
	}
	for _, r := range results {
		if r != "client-a" {
			t.Errorf("unexpected result %v", r)
		}
	}
}

func TestGetPropagatesFactoryError(t *testing.T) {
	c := New(10, time.Minute)
	ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k", InstanceID: "i"}
	wantErr := errors.New("boom")

	_, err := c.Get(ctx, func(model.InstanceContext) (any, error) { return nil, wantErr })
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestClearIncrementsCounterAndEmptiesCache(t *testing.T) {
	c := New(10, time.Minute)
	ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k", InstanceID: "i"}
	_, _ = c.Get(ctx, func(model.InstanceContext) (any, error) { return "x", nil })

	c.Clear()
	m := c.Metrics()
	if m.Clears != 1 {
		t.Errorf("Clears = %d, want 1", m.Clears)
	}
	if m.Size != 0 {
		t.Errorf("Size = %d, want 0 after clear", m.Size)
	}
}

func TestHighWaterTracksPeakSize(t *testing.T) {
	c := New(10, time.Minute)
	for i := 0; i < 3; i++ {
		ctx := model.InstanceContext{APIURL: "https://a.example.com", APIKey: "k", InstanceID: string(rune('a' + i))}
		if _, err := c.Get(ctx, func(model.InstanceContext) (any, error) { return "x", nil }); err != nil {
			t.Fatal(err)
		}
	}
	if m := c.Metrics(); m.HighWater != 3 {
		t.Errorf("HighWater = %d, want 3", m.HighWater)
	}
}

func TestSingletonFallbackRebuildsOnURLChange(t *testing.T) {
	var built []string
	factory := func(url string) func() (any, error) {
		return func() (any, error) {
			built = append(built, url)
			return "client-" + url, nil
		}
	}

	v1, err := Singleton("https://one.example.com", factory("https://one.example.com"))
	if err != nil {
		t.Fatal(err)
	}
	v2, err := Singleton("https://one.example.com", factory("https://one.example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Error("singleton should be reused for the same URL")
	}
	if _, err := Singleton("https://two.example.com", factory("https://two.example.com")); err != nil {
		t.Fatal(err)
	}
	if len(built) != 2 {
		t.Errorf("factory invoked %d times, want 2 (one per distinct URL)", len(built))
	}
}
