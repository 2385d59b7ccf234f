package server

import (
	"fmt"

	"github.com/npezzotti/polyglot-chat/internal/config"
	"github.com/npezzotti/polyglot-chat/internal/stats"
	"github.com/npezzotti/polyglot-chat/internal/translate"
	"github.com/npezzotti/polyglot-chat/internal/types"
)

func (cs *ChatServer) dispatch(msg *ClientMessage) {
	switch {
	case msg.Message != nil:
		cs.handleChat(msg)
	case msg.Offer != nil:
		cs.handleOffer(msg)
	case msg.Answer != nil:
		cs.handleAnswer(msg)
	case msg.IceCandidate != nil:
		cs.handleIceCandidate(msg)
	}
}

func (cs *ChatServer) handleChat(msg *ClientMessage) {
	s := msg.client.session
	if !cs.rooms.RoomExists(s.Room) {
		cs.log.Printf("dropping message from %s: room not found", msg.client)
		return
	}

	text := msg.Message.Data

	var err error
	switch cs.relayMode {
	case config.RelayModeRecipient:
		err = cs.relayPerRecipient(s, text)
	default:
		err = cs.relayPerSender(s, text)
	}
	if err != nil {
		cs.stats.Incr(stats.NumTranslationErrors)
		cs.log.Printf("message from %s not sent: %v", msg.client, err)
		return
	}

	if err := cs.rooms.AppendMessage(s.Room, types.Message{Name: s.Name, Message: text}); err != nil {
		cs.log.Printf("append message to %q: %v", s.Room, err)
		return
	}

	cs.log.Printf("%s said: %s", s.Name, text)
}

// relayPerSender renders text in the sender's own language and broadcasts
// it to the whole room once per entry of the room's language mapping.
func (cs *ChatServer) relayPerSender(s types.Session, text string) error {
	members, err := cs.rooms.Languages(s.Room)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	out, err := cs.translate(translate.DefaultLanguage, s.Language, text)
	if err != nil {
		return err
	}

	for range members {
		cs.broadcast(s.Room, NewChatMessage(s.Name, out))
		cs.stats.Incr(stats.NumMessagesRelayed)
	}

	return nil
}

// relayPerRecipient translates text once per distinct language among the
// connected clients and delivers each client a single copy in its own
// language. Nothing is sent unless every translation succeeds.
func (cs *ChatServer) relayPerRecipient(s types.Session, text string) error {
	group := cs.groups[s.Room]
	rendered := make(map[string]*ServerMessage)
	for c := range group {
		lang := c.session.Language
		if _, ok := rendered[lang]; ok {
			continue
		}

		out, err := cs.translate(s.Language, lang, text)
		if err != nil {
			return err
		}
		rendered[lang] = NewChatMessage(s.Name, out)
	}

	for c := range group {
		c.queueMessage(rendered[c.session.Language])
		cs.stats.Incr(stats.NumMessagesRelayed)
	}

	return nil
}

func (cs *ChatServer) translate(source, target, text string) (string, error) {
	if source == target {
		return text, nil
	}

	out, err := cs.translator.Translate(cs.ctx, source, target, text)
	if err != nil {
		return "", fmt.Errorf("translate %s to %s: %w", source, target, err)
	}

	return out, nil
}

func (cs *ChatServer) handleOffer(msg *ClientMessage) {
	s := msg.client.session
	if !cs.rooms.RoomExists(s.Room) {
		return
	}

	target, ok := cs.rooms.OtherMember(s.Room, s.Name)
	if !ok {
		cs.log.Printf("offer from %s has no peer", msg.client)
		return
	}

	cs.relaySignal(s.Room, target, Signal{
		Type:  SignalOffer,
		Offer: msg.Offer.Offer,
		From:  s.Name,
	})
}

func (cs *ChatServer) handleAnswer(msg *ClientMessage) {
	s := msg.client.session
	if !cs.rooms.RoomExists(s.Room) {
		return
	}

	cs.relaySignal(s.Room, msg.Answer.From, Signal{
		Type:   SignalAnswer,
		Answer: msg.Answer.Answer,
		From:   s.Name,
	})
}

func (cs *ChatServer) handleIceCandidate(msg *ClientMessage) {
	s := msg.client.session
	if !cs.rooms.RoomExists(s.Room) {
		return
	}

	cs.relaySignal(s.Room, msg.IceCandidate.To, Signal{
		Type:      SignalIceCandidate,
		Candidate: msg.IceCandidate.Candidate,
		From:      s.Name,
	})
}

func (cs *ChatServer) relaySignal(room, target string, sig Signal) {
	if n := cs.relay(room, target, NewSignal(sig)); n == 0 {
		cs.log.Printf("%s from %s: %q not connected in room %s", sig.Type, sig.From, target, room)
		return
	}

	cs.stats.Incr(stats.NumSignalsRelayed)
}
