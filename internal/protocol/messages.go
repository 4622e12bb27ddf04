// Package protocol defines the network message types for client-server communication.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of message.
type MessageType string

// Authentication message types
const (
	TypeAuthenticate MessageType = "authenticate"
	TypeAuthResult   MessageType = "auth_result"
)

// Lobby message types
const (
	TypeCreateGame   MessageType = "create_game"
	TypeGameCreated  MessageType = "game_created"
	TypeJoinGame     MessageType = "join_game"
	TypeJoinByCode   MessageType = "join_by_code"
	TypeJoinedGame   MessageType = "joined_game"
	TypeLeaveGame    MessageType = "leave_game"
	TypeDeleteGame   MessageType = "delete_game"
	TypeGameDeleted  MessageType = "game_deleted"
	TypePlayerReady  MessageType = "player_ready"
	TypeStartGame    MessageType = "start_game"
	TypeListGames    MessageType = "list_games"
	TypeGameList     MessageType = "game_list"
	TypeYourGames    MessageType = "your_games"
	TypeLobbyState   MessageType = "lobby_state"
	TypePlayerJoined MessageType = "player_joined"
	TypePlayerLeft   MessageType = "player_left"
)

// Game flow message types
const (
	TypeGameStarted MessageType = "game_started"
	TypeGameState   MessageType = "game_state"
	TypeTurnChanged MessageType = "turn_changed"
	TypeGameOver    MessageType = "game_over"
)

// Action message types
const (
	TypeMoveRange       MessageType = "move_range"
	TypeMoveRangeResult MessageType = "move_range_result"
	TypeMoveUnit        MessageType = "move_unit"
	TypeUnitMoved       MessageType = "unit_moved"
	TypeEndTurn         MessageType = "end_turn"
	TypeForfeit         MessageType = "forfeit"
	TypeGetGameLog      MessageType = "get_game_log"
	TypeGameLog         MessageType = "game_log"
)

// Scenario message types
const (
	TypeListScenarios    MessageType = "list_scenarios"
	TypeScenarioList     MessageType = "scenario_list"
	TypeGetScenario      MessageType = "get_scenario"
	TypeScenarioData     MessageType = "scenario_data"
	TypeSaveScenario     MessageType = "save_scenario"
	TypeScenarioSaved    MessageType = "scenario_saved"
	TypeGenerateScenario MessageType = "generate_scenario"
)

// System message types
const (
	TypeWelcome    MessageType = "welcome"
	TypeError      MessageType = "error"
	TypeDisconnect MessageType = "disconnect"
	TypePing       MessageType = "ping"
	TypePong       MessageType = "pong"
)

// Message is the envelope for all messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
	}, nil
}

// ParsePayload unmarshals the payload into the given type.
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// ErrorCode represents an error type.
type ErrorCode string

const (
	ErrCodeInvalidAction    ErrorCode = "invalid_action"
	ErrCodeNotYourTurn      ErrorCode = "not_your_turn"
	ErrCodeNotYourUnit      ErrorCode = "not_your_unit"
	ErrCodeUnitExhausted    ErrorCode = "unit_exhausted"
	ErrCodeCannotReach      ErrorCode = "cannot_reach"
	ErrCodeUnitNotFound     ErrorCode = "unit_not_found"
	ErrCodeGameNotFound     ErrorCode = "game_not_found"
	ErrCodeScenarioNotFound ErrorCode = "scenario_not_found"
	ErrCodeGameFull         ErrorCode = "game_full"
	ErrCodeGameOver         ErrorCode = "game_over"
	ErrCodeNotAuthenticated ErrorCode = "not_authenticated"
	ErrCodeInternalError    ErrorCode = "internal_error"
)

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
