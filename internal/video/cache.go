// Package video keeps the most recent video frame per drone. It is a plain
// last-value byte cache: no history, no streaming.
package video

import "sync"

type frame struct {
	data        []byte
	contentType string
}

// Cache stores the latest frame per drone id.
type Cache struct {
	mu     sync.RWMutex
	frames map[string]frame
}

// NewCache returns an empty frame cache.
func NewCache() *Cache {
	return &Cache{frames: make(map[string]frame)}
}

// Store replaces the cached frame for the drone.
func (c *Cache) Store(droneID string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[droneID] = frame{data: data, contentType: contentType}
}

// Latest returns the cached frame for the drone, or false if none exists.
func (c *Cache) Latest(droneID string) ([]byte, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.frames[droneID]
	return f.data, f.contentType, ok
}

// Drop removes the drone's cached frame.
func (c *Cache) Drop(droneID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.frames, droneID)
}
