package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLocalGetSetDelete(t *testing.T) {
	c, err := NewLocal(8, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache must miss")
	}

	c.Set("k", sampleListings())
	got, ok := c.Get("k")
	if !ok || len(got) != 2 {
		t.Fatalf("Get = %v ok=%v", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("deleted key must miss")
	}
}

func TestLocalTTLExpiry(t *testing.T) {
	c, err := NewLocal(8, 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("k", sampleListings())
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry must hit")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry must be evicted on read, len=%d", c.Len())
	}
}

func TestLocalSizeBound(t *testing.T) {
	c, err := NewLocal(4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), sampleListings())
	}
	if c.Len() > 4 {
		t.Fatalf("cache exceeded its bound: len=%d", c.Len())
	}
	// Oldest keys are the ones evicted.
	if _, ok := c.Get("k0"); ok {
		t.Error("oldest key should have been evicted")
	}
	if _, ok := c.Get("k9"); !ok {
		t.Error("newest key should be resident")
	}
}

func TestLocalCopiesValues(t *testing.T) {
	c, err := NewLocal(8, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	in := sampleListings()
	c.Set("k", in)
	in[0].PricePerUnit = 1
	in[0].Materia[0].MateriaID = 999

	got, _ := c.Get("k")
	if got[0].PricePerUnit != 100 {
		t.Error("cached value aliased the caller's slice")
	}
	if got[0].Materia[0].MateriaID != 17 {
		t.Error("cached materia aliased the caller's slice")
	}

	got[0].PricePerUnit = 2
	again, _ := c.Get("k")
	if again[0].PricePerUnit != 100 {
		t.Error("returned value aliased the cached slice")
	}
}

func TestLocalConcurrentAccess(t *testing.T) {
	c, err := NewLocal(64, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			for j := 0; j < 100; j++ {
				c.Set(key, sampleListings())
				c.Get(key)
				c.Delete(key)
			}
		}(i)
	}
	wg.Wait()
}
