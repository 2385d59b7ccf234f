package server

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/npezzotti/polyglot-chat/internal/config"
	"github.com/npezzotti/polyglot-chat/internal/registry"
	"github.com/npezzotti/polyglot-chat/internal/stats"
	"github.com/npezzotti/polyglot-chat/internal/translate"
)

// ChatServer is the hub. Run processes connects, disconnects and inbound
// events one at a time and is the only goroutine touching clients and groups.
type ChatServer struct {
	log            *log.Logger
	rooms          *registry.Registry
	translator     translate.Translator
	stats          stats.StatsProvider
	relayMode      string
	clients        map[*Client]struct{}
	groups         map[string]map[*Client]struct{}
	registerChan   chan *Client
	deRegisterChan chan *Client
	eventChan      chan *ClientMessage
	ctx            context.Context
	cancel         context.CancelFunc
	stop           chan struct{}
	stopOnce       sync.Once
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, rooms *registry.Registry, translator translate.Translator, su stats.StatsProvider, relayMode string) (*ChatServer, error) {
	switch relayMode {
	case config.RelayModeSender, config.RelayModeRecipient:
	default:
		return nil, fmt.Errorf("unknown relay mode %q", relayMode)
	}

	su.RegisterMetric(stats.NumActiveRooms)
	su.RegisterMetric(stats.NumActiveClients)
	su.RegisterMetric(stats.NumMessagesRelayed)
	su.RegisterMetric(stats.NumSignalsRelayed)
	su.RegisterMetric(stats.NumTranslationErrors)

	ctx, cancel := context.WithCancel(context.Background())
	return &ChatServer{
		log:            logger,
		rooms:          rooms,
		translator:     translator,
		stats:          su,
		relayMode:      relayMode,
		clients:        make(map[*Client]struct{}),
		groups:         make(map[string]map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		eventChan:      make(chan *ClientMessage, 256),
		ctx:            ctx,
		cancel:         cancel,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case c := <-cs.registerChan:
			cs.handleConnect(c)
		case c := <-cs.deRegisterChan:
			cs.handleDisconnect(c)
		case msg := <-cs.eventChan:
			cs.dispatch(msg)
		case <-cs.stop:
			cs.log.Printf("closing %d client connections", len(cs.clients))
			for c := range cs.clients {
				c.stopClient()
			}

			close(cs.done)
			return
		}
	}
}

// RegisterClient hands a freshly upgraded connection to the hub.
func (cs *ChatServer) RegisterClient(c *Client) {
	select {
	case cs.registerChan <- c:
	case <-cs.done:
	}
}

func (cs *ChatServer) UnregisterClient(c *Client) {
	select {
	case cs.deRegisterChan <- c:
	case <-cs.done:
	}
}

// submit queues an inbound event for the hub. It reports false when the
// queue is full or the hub has stopped.
func (cs *ChatServer) submit(msg *ClientMessage) bool {
	select {
	case <-cs.done:
		return false
	default:
	}

	select {
	case cs.eventChan <- msg:
		return true
	default:
		cs.log.Println("event channel full")
		return false
	}
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.stopOnce.Do(func() {
		cs.cancel()
		close(cs.stop)
	})

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cs *ChatServer) handleConnect(c *Client) {
	cs.clients[c] = struct{}{}
	cs.stats.Incr(stats.NumActiveClients)

	s := c.session
	if !cs.rooms.RoomExists(s.Room) {
		cs.log.Printf("client %s connected to missing room %q, ignoring", c, s.Room)
		return
	}

	cs.attach(c)
	cs.broadcast(s.Room, NewChatMessage(s.Name, enteredRoomText))
	if err := cs.rooms.IncrementMembers(s.Room); err != nil {
		cs.log.Printf("increment members of %q: %v", s.Room, err)
	}

	cs.log.Printf("%s joined room %s", s.Name, s.Room)
}

func (cs *ChatServer) handleDisconnect(c *Client) {
	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	cs.stats.Decr(stats.NumActiveClients)

	s := c.session
	wasAttached := c.attached
	cs.detach(c)

	if wasAttached && cs.rooms.RoomExists(s.Room) {
		deleted, err := cs.rooms.DecrementMembers(s.Room)
		if err != nil {
			cs.log.Printf("decrement members of %q: %v", s.Room, err)
		}
		if deleted {
			cs.stats.Decr(stats.NumActiveRooms)
			cs.log.Printf("room %s is empty, removed", s.Room)
		}
	}

	cs.broadcast(s.Room, NewChatMessage(s.Name, leftRoomText))
	cs.log.Printf("%s has left the room %s", s.Name, s.Room)
}

func (cs *ChatServer) attach(c *Client) {
	group, ok := cs.groups[c.session.Room]
	if !ok {
		group = make(map[*Client]struct{})
		cs.groups[c.session.Room] = group
	}

	group[c] = struct{}{}
	c.attached = true
}

func (cs *ChatServer) detach(c *Client) {
	c.attached = false
	group, ok := cs.groups[c.session.Room]
	if !ok {
		return
	}

	delete(group, c)
	if len(group) == 0 {
		delete(cs.groups, c.session.Room)
	}
}

// broadcast queues msg for every client attached to room.
func (cs *ChatServer) broadcast(room string, msg *ServerMessage) {
	for c := range cs.groups[room] {
		c.queueMessage(msg)
	}
}

// relay queues msg for the connections of one member of room and returns
// how many connections it reached.
func (cs *ChatServer) relay(room, name string, msg *ServerMessage) int {
	n := 0
	for c := range cs.groups[room] {
		if c.session.Name != name {
			continue
		}

		if c.queueMessage(msg) {
			n++
		}
	}

	return n
}
