package service

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing UTC timestamps at millisecond
// precision, matching what BSON datetimes can store.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock() *Clock { return &Clock{now: time.Now} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
