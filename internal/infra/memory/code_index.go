package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

// CodeIndex is the in-memory join-code table.
type CodeIndex struct {
	mu    sync.RWMutex
	codes map[string]string
}

func NewCodeIndex() *CodeIndex {
	return &CodeIndex{codes: make(map[string]string)}
}

func (c *CodeIndex) Reserve(_ context.Context, code, sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.codes[code]; taken {
		return false, nil
	}
	c.codes[code] = sessionID
	return true, nil
}

func (c *CodeIndex) Resolve(_ context.Context, code string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sessionID, ok := c.codes[code]
	if !ok {
		return "", domain.ErrCodeNotFound
	}
	return sessionID, nil
}

func (c *CodeIndex) Release(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, code)
	return nil
}
