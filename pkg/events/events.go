// Package events defines the session lifecycle notifications published for
// the console's live test panel.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every session lifecycle event.
const Topic = "botfluent.sessions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	SessionStartedEvent   EventType = "session.started"
	BotMessageSentEvent   EventType = "session.bot_message"
	SessionSuspendedEvent EventType = "session.suspended"
	SessionEndedEvent     EventType = "session.ended"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type SessionStarted struct {
	BaseEvent

	FlowName  string         `json:"flow_name"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (s SessionStarted) GetType() EventType {
	return SessionStartedEvent
}

type BotMessageSent struct {
	BaseEvent

	Kind     string `json:"kind"`
	Text     string `json:"text,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
	Options  int    `json:"options,omitempty"`
}

func (b BotMessageSent) GetType() EventType {
	return BotMessageSentEvent
}

type SessionSuspended struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	Awaiting string `json:"awaiting"`
}

func (s SessionSuspended) GetType() EventType {
	return SessionSuspendedEvent
}

type SessionEnded struct {
	BaseEvent

	Reason     string `json:"reason"`
	DurationMs int64  `json:"duration_ms"`
}

func (s SessionEnded) GetType() EventType {
	return SessionEndedEvent
}

func NewBaseEvent(eventType EventType, flowID, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		SessionID: sessionID,
		Metadata:  make(map[string]any),
	}
}
