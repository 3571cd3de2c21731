package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/log"
)

var (
	// ErrUnknownChannel is returned for joins to a channel that was not
	// declared at startup. Channels are never created at runtime.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrClientGone is returned for operations on a connection that has
	// already been torn down. Callers treat it as a no-op, not a fault.
	ErrClientGone = errors.New("client no longer registered")
)

// Hub owns connection and channel membership. The channel set is fixed at
// construction; only membership and the admin group mutate at runtime.
type Hub struct {
	clients    map[string]*Client            // clientID -> client
	rooms      map[string]map[string]*Client // channel -> clientID -> client
	admins     map[string]*Client            // admin broadcast group
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	config     config.WebSocketConfig

	onDisconnect func(*Client)
}

func NewHub(cfg config.WebSocketConfig, channels []string) *Hub {
	rooms := make(map[string]map[string]*Client, len(channels))
	for _, ch := range channels {
		rooms[ch] = make(map[string]*Client)
	}
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      rooms,
		admins:     make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		config:     cfg,
	}
}

// SetDisconnectHandler installs the teardown hook invoked exactly once per
// connection, after the hub has removed it. Must be called before Run.
func (h *Hub) SetDisconnectHandler(fn func(*Client)) {
	h.onDisconnect = fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.ID]
			if ok {
				if ch := client.Session.CurrentChannel(); ch != "" {
					if room, exists := h.rooms[ch]; exists {
						delete(room, client.ID)
					}
				}
				delete(h.admins, client.ID)
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()

			// A transport may signal disconnect more than once; the map
			// check above makes the teardown run exactly once.
			if ok {
				if h.onDisconnect != nil {
					h.onDisconnect(client)
				}
				l := log.L()
				l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinChannel attaches the client to a channel. A client belongs to at most
// one channel; joining while already a member of another channel is an
// implicit leave-then-join. Returns the channel left (if any) and the new
// member count of the joined channel.
func (h *Hub) JoinChannel(client *Client, channel string) (string, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[channel]
	if !ok {
		return "", 0, ErrUnknownChannel
	}
	if _, ok := h.clients[client.ID]; !ok {
		return "", 0, ErrClientGone
	}

	prev := client.Session.CurrentChannel()
	if prev == channel {
		return "", len(room), nil
	}
	if prev != "" {
		if prevRoom, exists := h.rooms[prev]; exists {
			delete(prevRoom, client.ID)
		}
	}

	room[client.ID] = client
	client.Session.JoinChannel(channel)

	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldChannel, channel).Msg("client joined channel")
	return prev, len(room), nil
}

// LeaveChannel detaches the client from its current channel. Idempotent.
// Returns the channel left, or "".
func (h *Hub) LeaveChannel(client *Client) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := client.Session.CurrentChannel()
	if ch == "" {
		return ""
	}
	if room, ok := h.rooms[ch]; ok {
		delete(room, client.ID)
	}
	client.Session.LeaveChannel()
	return ch
}

// JoinAdmins subscribes the client to the admin broadcast group. The caller
// is responsible for the authorization check.
func (h *Hub) JoinAdmins(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return ErrClientGone
	}
	h.admins[client.ID] = client
	return nil
}

func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[channel]; ok {
		return len(room)
	}
	return 0
}

// Counts returns the member count of every declared channel.
func (h *Hub) Counts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	counts := make(map[string]int, len(h.rooms))
	for ch, room := range h.rooms {
		counts[ch] = len(room)
	}
	return counts
}

// Contains reports whether a connection is still registered.
func (h *Hub) Contains(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

func (h *Hub) HasChannel(channel string) bool {
	_, ok := h.rooms[channel]
	return ok
}

func (h *Hub) BroadcastToChannel(channel string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	room := h.rooms[channel]
	slow := h.fanOut(room, data, exclude)
	h.mu.RUnlock()

	h.evict(slow)
	return nil
}

func (h *Hub) BroadcastToAdmins(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	slow := h.fanOut(h.admins, data, "")
	h.mu.RUnlock()

	h.evict(slow)
	return nil
}

func (h *Hub) BroadcastAll(message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	slow := h.fanOut(h.clients, data, exclude)
	h.mu.RUnlock()

	h.evict(slow)
	return nil
}

// fanOut queues data on every recipient's send channel. Clients whose buffer
// is full are returned for eviction; clients already torn down are skipped.
// Callers hold at least a read lock; the actual network write happens in each
// client's WritePump.
func (h *Hub) fanOut(recipients map[string]*Client, data []byte, exclude string) []*Client {
	var slow []*Client
	for clientID, client := range recipients {
		if clientID == exclude {
			continue
		}
		if queued, alive := client.queue(data); !queued && alive {
			slow = append(slow, client)
		}
	}
	return slow
}

func (h *Hub) evict(slow []*Client) {
	for _, client := range slow {
		go h.Unregister(client)
	}
}
