package rpc

import (
	"encoding/json"
	"log"
	"sync"
)

// subscriber is one websocket connection's outgoing queue with the
// streams it asked for.
type subscriber struct {
	send    chan []byte
	streams map[SubscriptionType]bool
}

// Publisher fans applied-transaction events out to websocket
// subscribers. A slow subscriber is skipped, never waited on.
type Publisher struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

func NewPublisher() *Publisher {
	return &Publisher{
		subs: make(map[string]*subscriber),
	}
}

// AddSubscriber registers a connection's send queue under its ID.
func (p *Publisher) AddSubscriber(id string, send chan []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[id] = &subscriber{
		send:    send,
		streams: make(map[SubscriptionType]bool),
	}
}

// RemoveSubscriber drops a connection.
func (p *Publisher) RemoveSubscriber(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

// Subscribe adds streams for a connection.
func (p *Publisher) Subscribe(id string, streams []SubscriptionType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	if !ok {
		return
	}
	for _, stream := range streams {
		sub.streams[stream] = true
	}
}

// Unsubscribe removes streams for a connection.
func (p *Publisher) Unsubscribe(id string, streams []SubscriptionType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	if !ok {
		return
	}
	for _, stream := range streams {
		delete(sub.streams, stream)
	}
}

// PublishTransaction broadcasts to the transactions stream.
func (p *Publisher) PublishTransaction(ev TransactionEvent) {
	ev.Type = "transaction"
	p.broadcast(SubTransactions, ev)
	p.broadcast(SubServer, ServerEvent{Type: "server", Sequence: ev.Sequence})
}

func (p *Publisher) broadcast(stream SubscriptionType, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, sub := range p.subs {
		if !sub.streams[stream] {
			continue
		}
		select {
		case sub.send <- data:
		default:
			log.Printf("Skipping slow subscriber %s", id)
		}
	}
}
