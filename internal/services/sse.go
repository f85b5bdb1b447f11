package services

import (
	"sync"
)

const sseClientBuffer = 100

type sseClient struct {
	tenantID uint // 0 receives every tenant
	ch       chan *ReportWeekTask
}

// SSEHub fans report week status events out to connected browsers. It is
// in-process: clients only see events raised by the instance they are
// connected to.
type SSEHub struct {
	clients map[string]*sseClient
	mu      sync.RWMutex
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients: make(map[string]*sseClient),
	}
}

// Subscribe registers a client for one tenant's events, or all tenants when
// tenantID is 0.
func (h *SSEHub) Subscribe(clientID string, tenantID uint) <-chan *ReportWeekTask {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old.ch)
	}
	c := &sseClient{tenantID: tenantID, ch: make(chan *ReportWeekTask, sseClientBuffer)}
	h.clients[clientID] = c
	return c.ch
}

func (h *SSEHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers task to every matching client. A client whose buffer is
// full misses the event.
func (h *SSEHub) Publish(task *ReportWeekTask) {
	if h == nil || task == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.tenantID != 0 && c.tenantID != task.TenantID {
			continue
		}
		select {
		case c.ch <- task:
		default:
		}
	}
}

func (h *SSEHub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
