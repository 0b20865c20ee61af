package cache

import (
	"testing"
	"time"
)

func TestLayeredBytesBackfillsFront(t *testing.T) {
	front := NewTTLCache()
	back := NewTTLCache()
	c := NewLayeredBytes(front, back, time.Minute)

	if err := back.SetBytes("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("seed back: %v", err)
	}

	b, ok, err := c.GetBytes("k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("layered get failed: %s %v %v", b, ok, err)
	}
	if _, ok, _ := front.GetBytes("k"); !ok {
		t.Fatalf("front not backfilled")
	}
}

func TestLayeredBytesWritesThrough(t *testing.T) {
	front := NewTTLCache()
	back := NewTTLCache()
	c := NewLayeredBytes(front, back, time.Minute)

	if err := c.SetBytes("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := back.GetBytes("k"); !ok {
		t.Fatalf("back missing write")
	}
	if _, ok, _ := front.GetBytes("k"); !ok {
		t.Fatalf("front missing write")
	}
}

func TestLayeredBytesMiss(t *testing.T) {
	c := NewLayeredBytes(NewTTLCache(), NewTTLCache(), time.Minute)
	if _, ok, err := c.GetBytes("missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got %v %v", ok, err)
	}
}
