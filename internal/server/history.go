package server

import (
	"sync"

	"imsgen/internal/services"
)

// history 保留最近的產生結果，超過上限時淘汰最舊的一筆
type history struct {
	mu    sync.RWMutex
	limit int
	order []string
	items map[string]*services.GenerateResult
}

func newHistory(limit int) *history {
	if limit < 1 {
		limit = 1
	}
	return &history{
		limit: limit,
		items: make(map[string]*services.GenerateResult, limit),
	}
}

func (h *history) put(res *services.GenerateResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.items[res.ID]; !ok {
		h.order = append(h.order, res.ID)
	}
	h.items[res.ID] = res

	for len(h.order) > h.limit {
		oldest := h.order[0]
		h.order = h.order[1:]
		delete(h.items, oldest)
	}
}

func (h *history) get(id string) (*services.GenerateResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res, ok := h.items[id]
	return res, ok
}

func (h *history) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
