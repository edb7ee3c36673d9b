// Package cache keeps recently fetched conversation slices in memory.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
	"github.com/cognicore/txthistory/pkg/txthistory/store"
)

// DefaultSize is the number of conversation slices kept when no size is configured.
const DefaultSize = 128

// Key identifies a conversation slice.
type Key struct {
	Contact string
	Start   int64 // unix nanoseconds, 0 when open
	End     int64
}

// NewKey builds the cache key for contact over r.
func NewKey(contact string, r store.DateRange) Key {
	k := Key{Contact: contact}
	if !r.Start.IsZero() {
		k.Start = r.Start.UnixNano()
	}
	if !r.End.IsZero() {
		k.End = r.End.UnixNano()
	}
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Contact, k.Start, k.End)
}

// MessageCache is a bounded LRU of message lists. It is safe for concurrent use.
type MessageCache struct {
	lru *lru.Cache[Key, []store.Message]
}

// New creates a cache holding at most size entries.
func New(size int) (*MessageCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be positive, got %d", internalerr.ErrInvalidConfig, size)
	}
	c, err := lru.New[Key, []store.Message](size)
	if err != nil {
		return nil, err
	}
	return &MessageCache{lru: c}, nil
}

// Get returns a copy of the cached messages for k.
func (c *MessageCache) Get(k Key) ([]store.Message, bool) {
	msgs, ok := c.lru.Get(k)
	if !ok {
		return nil, false
	}
	return cloneMessages(msgs), true
}

// Put stores a copy of msgs under k.
func (c *MessageCache) Put(k Key, msgs []store.Message) {
	c.lru.Add(k, cloneMessages(msgs))
}

// Invalidate drops every cached slice of contact.
func (c *MessageCache) Invalidate(contact string) {
	for _, k := range c.lru.Keys() {
		if k.Contact == contact {
			c.lru.Remove(k)
		}
	}
}

// Clear empties the cache.
func (c *MessageCache) Clear() {
	c.lru.Purge()
}

// Len returns the number of cached slices.
func (c *MessageCache) Len() int {
	return c.lru.Len()
}

func cloneMessages(in []store.Message) []store.Message {
	out := make([]store.Message, len(in))
	copy(out, in)
	return out
}
