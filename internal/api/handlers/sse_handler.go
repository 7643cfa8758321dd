package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vitalloop/insight-engine/internal/adapters/events"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

// SSEHandler streams insight lifecycle events to dashboard clients over
// Server-Sent Events.
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.InsightEvent]bool
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler.
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.InsightEvent]bool),
	}
}

// StreamInsightEvents handles SSE connections for insight lifecycle events.
// GET /api/stream/insights?category=sleep
func (h *SSEHandler) StreamInsightEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Optional category filter; empty means all events.
	categoryFilter := entities.InsightCategory(r.URL.Query().Get("category"))
	if categoryFilter != "" && !entities.ValidInsightCategory(categoryFilter) {
		respondWithError(w, http.StatusBadRequest, "unknown insight category")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientChan := make(chan *entities.InsightEvent, 10)
	channel := events.ChannelInsights

	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("failed to subscribe to insight events")
		return
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"category":  categoryFilter,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, categoryFilter)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("client disconnected from insight stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the bus to a client channel, applying
// the category filter.
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.InsightEvent, clientChan chan<- *entities.InsightEvent, category entities.InsightCategory) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if category != "" && event.Category != category {
				continue
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.InsightEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.InsightEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Debug().Str("channel", channel).Int("total", len(h.clients[channel])).Msg("sse client registered")
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.InsightEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		log.Debug().Str("channel", channel).Int("remaining", len(clients)).Msg("sse client unregistered")

		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes one SSE frame to the client.
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal sse event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging.
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
