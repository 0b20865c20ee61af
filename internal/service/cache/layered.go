package cache

import "time"

// LayeredBytes is a two-level response cache: a small in-process front
// absorbs hot keys, Redis remains the shared source of truth.
type LayeredBytes struct {
	front    BytesCache
	back     BytesCache
	frontTTL time.Duration
}

func NewLayeredBytes(front, back BytesCache, frontTTL time.Duration) *LayeredBytes {
	if frontTTL <= 0 {
		frontTTL = 5 * time.Second
	}
	return &LayeredBytes{front: front, back: back, frontTTL: frontTTL}
}

func (c *LayeredBytes) GetBytes(key string) ([]byte, bool, error) {
	if b, ok, err := c.front.GetBytes(key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := c.back.GetBytes(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.front.SetBytes(key, b, c.frontTTL)
	return b, true, nil
}

// SetBytes writes through: the shared layer first, then the front.
func (c *LayeredBytes) SetBytes(key string, value []byte, ttl time.Duration) error {
	if err := c.back.SetBytes(key, value, ttl); err != nil {
		return err
	}
	front := ttl
	if front <= 0 || front > c.frontTTL {
		front = c.frontTTL
	}
	_ = c.front.SetBytes(key, value, front)
	return nil
}
