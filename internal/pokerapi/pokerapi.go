// Package pokerapi defines the client-facing wire protocol: the JSON
// envelope every WebSocket frame uses, the request/event type constants,
// and validated request payloads.
package pokerapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"poker-platform/internal/hub"
)

// Request/event type tags carried in Envelope.Type.
const (
	TypeJoinTable    = "join_table"
	TypeLeaveTable   = "leave_table"
	TypeSitOut       = "sit_out"
	TypeAction       = "action"
	TypeJoinQueue    = "join_queue"
	TypeReconnect    = "reconnect"
	TypePing         = "ping"

	TypeJoined       = "joined"
	TypeLeft         = "left"
	TypeStateUpdate  = "state_update"
	TypeQueued       = "queued"
	TypeReconnected  = "reconnected"
	TypeError        = "error"
	TypePong         = "pong"
)

var validate = validator.New()

// JoinTableRequest seats a player at a specific table.
type JoinTableRequest struct {
	TableID string `json:"tableId" validate:"required"`
	Name    string `json:"name" validate:"required,min=1,max=32"`
	BuyIn   int64  `json:"buyIn" validate:"required,gt=0"`
}

// ActionRequest submits a betting decision for the current hand.
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=fold check call raise allin"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

// JoinQueueRequest enters matchmaking for a stake bucket.
type JoinQueueRequest struct {
	Bucket string `json:"bucket" validate:"required"`
	Name   string `json:"name" validate:"required,min=1,max=32"`
	BuyIn  int64  `json:"buyIn" validate:"required,gt=0"`
}

// ReconnectRequest resumes a session dropped within the grace window.
type ReconnectRequest struct {
	TableID string `json:"tableId" validate:"required"`
}

// ErrorPayload is the Data contents of a TypeError envelope.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Decode unmarshals env.Data into dst and validates it against its struct
// tags.
func Decode(env hub.Envelope, dst interface{}) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("empty payload for envelope type %q", env.Type)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("malformed payload for envelope type %q: %w", env.Type, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid payload for envelope type %q: %w", env.Type, err)
	}
	return nil
}

// Encode builds an envelope of the given type carrying data as its payload.
func Encode(typ string, roomID string, data interface{}) (hub.Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return hub.Envelope{}, fmt.Errorf("failed to marshal %q payload: %w", typ, err)
	}
	return hub.Envelope{
		Type:      typ,
		RoomID:    roomID,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
