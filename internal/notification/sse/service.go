// Package sse provides Server-Sent Events support for real-time dashboards.
package sse

import (
	"encoding/json"
	"sync"

	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// EventType represents different types of SSE events.
type EventType string

const (
	EventScoreUpdate      EventType = "score-update"
	EventAnalyticsRefresh EventType = "analytics-refresh"
	EventReplayComplete   EventType = "replay-complete"
)

// Event represents an SSE event payload.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client.
type client struct {
	events chan Event
}

// Service manages SSE connections and event broadcasting. Dashboards are
// unauthenticated viewers; every event goes to every connected client.
type Service struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *logger.Logger
}

// New creates a new SSE service.
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.events)
	}
}

// Broadcast sends an event to every connected client. Clients with a full
// buffer miss the event; dashboards refetch on the next one.
//
// Sends happen under the lock: removeClient closes the client channel, and a
// send racing that close would panic. The sends never block, so the lock is
// held only for a channel write per client.
func (s *Service) Broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, event dropped", "event_type", string(event.Type))
		}
	}
}

// ClientCount reports the number of open connections.
func (s *Service) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Handler returns a Gin handler for SSE connections.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{events: make(chan Event, 32)}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"clients": s.ClientCount()})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event.Data)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts down the SSE service.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		close(c.events)
	}
	s.clients = make(map[*client]struct{})
}
