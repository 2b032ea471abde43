// Package websocket
package websocket

import (
	"context"
	"encoding/json"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
)

const (
	EventPowerSample = "power:sample"
	EventPriceUpdate = "settings:price"
)

type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	log logger.Logger
}

func NewHub(parent context.Context, log logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)

	return &Hub{
		ctx:    ctx,
		cancel: cancel,

		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 100),

		log: log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("ws: hub shutting down...")
			for client := range h.clients {
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("ws: client registered", "total_clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Info("ws: client unregistered", "total_clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.log.Warn("ws: client channel full, force unregister")
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Stop terminates the Run loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.cancel()
}

// BroadcastSample pushes a freshly collected sample to every connected client.
func (h *Hub) BroadcastSample(sample domain.PowerSample) {
	h.publish(Event{Event: EventPowerSample, Payload: sample})
}

// BroadcastPrice notifies clients that the electricity price changed.
func (h *Hub) BroadcastPrice(pricePerKWh float64) {
	h.publish(Event{Event: EventPriceUpdate, Payload: map[string]float64{"price_per_kwh": pricePerKWh}})
}

func (h *Hub) publish(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws: failed to marshal event", "event", event.Event, "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("ws: broadcast queue full, dropping event", "event", event.Event)
	}
}
