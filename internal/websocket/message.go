package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/storyverse/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypeResourceCreated MessageType = "RESOURCE_CREATED"
	MessageTypeResourceUpdated MessageType = "RESOURCE_UPDATED"
	MessageTypeResourceDeleted MessageType = "RESOURCE_DELETED"
	MessageTypePong            MessageType = "PONG"
	MessageTypeError           MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload any) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

type ResourcePayload struct {
	Resource string `json:"resource"`
	ID       int64  `json:"id"`
	Data     any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func messageTypeFor(action domain.EventAction) MessageType {
	switch action {
	case domain.EventCreated:
		return MessageTypeResourceCreated
	case domain.EventDeleted:
		return MessageTypeResourceDeleted
	default:
		return MessageTypeResourceUpdated
	}
}

// eventMessage encodes a domain event for the wire. Deletions carry no data.
func eventMessage(event domain.Event) ([]byte, error) {
	payload := ResourcePayload{Resource: event.Resource, ID: event.ID}
	if event.Action != domain.EventDeleted {
		payload.Data = event.Data
	}
	msg, err := NewMessage(messageTypeFor(event.Action), payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
