package pokerapi

import (
	"encoding/json"
	"testing"

	"poker-platform/internal/hub"
)

func envelopeWith(t *testing.T, typ string, data interface{}) hub.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal test payload: %v", err)
	}
	return hub.Envelope{Type: typ, Data: raw}
}

func TestDecodeValidJoinTableRequest(t *testing.T) {
	env := envelopeWith(t, TypeJoinTable, map[string]interface{}{
		"tableId": "t1",
		"name":    "Alice",
		"buyIn":   500,
	})

	var req JoinTableRequest
	if err := Decode(env, &req); err != nil {
		t.Fatalf("expected valid request to decode, got %v", err)
	}
	if req.TableID != "t1" || req.Name != "Alice" || req.BuyIn != 500 {
		t.Fatalf("unexpected decoded request: %+v", req)
	}
}

func TestDecodeRejectsMissingRequiredField(t *testing.T) {
	env := envelopeWith(t, TypeJoinTable, map[string]interface{}{
		"name":  "Alice",
		"buyIn": 500,
	})

	var req JoinTableRequest
	if err := Decode(env, &req); err == nil {
		t.Fatal("expected validation error for missing tableId")
	}
}

func TestDecodeRejectsInvalidActionKeyword(t *testing.T) {
	env := envelopeWith(t, TypeAction, map[string]interface{}{
		"action": "bluff",
		"amount": 0,
	})

	var req ActionRequest
	if err := Decode(env, &req); err == nil {
		t.Fatal("expected validation error for unknown action keyword")
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	env, err := Encode(TypeStateUpdate, "t1", map[string]string{"phase": "preflop"})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if env.Type != TypeStateUpdate || env.RoomID != "t1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	var decoded map[string]string
	if err := json.Unmarshal(env.Data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal encoded payload: %v", err)
	}
	if decoded["phase"] != "preflop" {
		t.Fatalf("unexpected payload contents: %+v", decoded)
	}
}
