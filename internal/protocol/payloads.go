package protocol

import "encoding/json"

// ==================== Authentication Payloads ====================

// AuthenticatePayload is sent to authenticate/register a player.
type AuthenticatePayload struct {
	Token string `json:"token,omitempty"` // Existing token for returning players
	Name  string `json:"name"`            // Display name
}

// AuthResultPayload is the response to authentication.
type AuthResultPayload struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"` // Save this for reconnecting
	Name     string `json:"name"`
	Error    string `json:"error,omitempty"`
}

// ==================== Lobby Payloads ====================

// GeneratorSettings mirrors the scenario generator options on the wire.
type GeneratorSettings struct {
	Width        int   `json:"width,omitempty"`
	Height       int   `json:"height,omitempty"`
	Seed         int64 `json:"seed,omitempty"`
	WaterPercent int   `json:"water_percent,omitempty"`
	Rivers       int   `json:"rivers,omitempty"`
	Towns        int   `json:"towns,omitempty"`
	UnitsPerSide int   `json:"units_per_side,omitempty"`
}

// CreateGamePayload is sent to create a new game. At most one of
// ScenarioID or Generator should be set; with neither, the server's
// default scenario is used.
type CreateGamePayload struct {
	Name       string             `json:"name"`
	IsPublic   bool               `json:"is_public"`
	ScenarioID string             `json:"scenario_id,omitempty"`
	Generator  *GeneratorSettings `json:"generator,omitempty"`
}

// GameCreatedPayload is the response when a game is created.
type GameCreatedPayload struct {
	GameID   string `json:"game_id"`
	JoinCode string `json:"join_code"`
}

// JoinGamePayload is sent to join an existing game by ID.
type JoinGamePayload struct {
	GameID string `json:"game_id"`
}

// JoinByCodePayload is sent to join a game using a join code.
type JoinByCodePayload struct {
	JoinCode string `json:"join_code"`
}

// JoinedGamePayload confirms that the player joined a game.
type JoinedGamePayload struct {
	GameID   string `json:"game_id"`
	JoinCode string `json:"join_code"`
	Side     string `json:"side"` // "player_one" or "player_two"
}

// DeleteGamePayload is sent by the host to delete a game that hasn't started.
type DeleteGamePayload struct {
	GameID string `json:"game_id"`
}

// GameDeletedPayload notifies players that a game was deleted.
type GameDeletedPayload struct {
	GameID string `json:"game_id"`
	Reason string `json:"reason,omitempty"`
}

// PlayerReadyPayload toggles the player's ready state in the lobby.
type PlayerReadyPayload struct {
	Ready bool `json:"ready"`
}

// GameListItem describes one game in a game list.
type GameListItem struct {
	GameID      string `json:"game_id"`
	Name        string `json:"name"`
	JoinCode    string `json:"join_code,omitempty"`
	Status      string `json:"status"`
	ScenarioID  string `json:"scenario_id"`
	HostName    string `json:"host_name"`
	PlayerCount int    `json:"player_count"`
	YourTurn    bool   `json:"your_turn,omitempty"`
	CreatedAt   int64  `json:"created_at"` // Unix seconds
}

// GameListPayload lists public games waiting for an opponent.
type GameListPayload struct {
	Games []GameListItem `json:"games"`
}

// YourGamesPayload lists the requesting player's games.
type YourGamesPayload struct {
	Games []GameListItem `json:"games"`
}

// LobbyPlayer describes a player in a game lobby.
type LobbyPlayer struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Side        string `json:"side"`
	Ready       bool   `json:"ready"`
	IsConnected bool   `json:"is_connected"`
}

// LobbyStatePayload carries the full lobby state of a game.
type LobbyStatePayload struct {
	GameID       string        `json:"game_id"`
	Name         string        `json:"name"`
	JoinCode     string        `json:"join_code"`
	IsPublic     bool          `json:"is_public"`
	HostPlayerID string        `json:"host_player_id"`
	ScenarioID   string        `json:"scenario_id"`
	ScenarioName string        `json:"scenario_name"`
	Players      []LobbyPlayer `json:"players"`
}

// PlayerJoinedPayload notifies lobby members that a player joined.
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Side     string `json:"side"`
}

// PlayerLeftPayload notifies lobby members that a player left.
type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

// ==================== Game Flow Payloads ====================

// GameStartedPayload notifies players that the game has started.
type GameStartedPayload struct {
	GameID string `json:"game_id"`
}

// GameStatePayload carries the full game state.
type GameStatePayload struct {
	GameID string      `json:"game_id"`
	State  interface{} `json:"state"`
}

// TurnChangedPayload notifies players that the turn passed to the other side.
type TurnChangedPayload struct {
	GameID string `json:"game_id"`
	Turn   string `json:"turn"`
	Round  int    `json:"round"`
}

// GameOverPayload notifies players that the game ended.
type GameOverPayload struct {
	GameID     string `json:"game_id"`
	WinnerSide string `json:"winner_side,omitempty"`
	WinnerID   string `json:"winner_id,omitempty"`
	Reason     string `json:"reason"`
}

// ==================== Action Payloads ====================

// MoveRangePayload requests the set of hexes a unit can reach this turn.
type MoveRangePayload struct {
	UnitID string `json:"unit_id"`
}

// MoveRangeHex is one reachable hex with its accumulated entry cost.
type MoveRangeHex struct {
	Col  int `json:"col"`
	Row  int `json:"row"`
	Cost int `json:"cost"`
}

// MoveRangeResultPayload answers a move_range request. Hexes are sorted
// by column then row; the unit's own hex is never included.
type MoveRangeResultPayload struct {
	UnitID string         `json:"unit_id"`
	Hexes  []MoveRangeHex `json:"hexes"`
}

// MoveUnitPayload requests moving a unit to a destination hex.
type MoveUnitPayload struct {
	UnitID string `json:"unit_id"`
	Col    int    `json:"col"`
	Row    int    `json:"row"`
}

// UnitMovedPayload notifies players that a unit moved.
type UnitMovedPayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	UnitID   string `json:"unit_id"`
	FromCol  int    `json:"from_col"`
	FromRow  int    `json:"from_row"`
	ToCol    int    `json:"to_col"`
	ToRow    int    `json:"to_row"`
}

// GetGameLogPayload requests the action log of the current game.
type GetGameLogPayload struct {
	SinceID int64 `json:"since_id,omitempty"`
}

// GameLogEntry is one logged action.
type GameLogEntry struct {
	ID         int64           `json:"id"`
	PlayerID   string          `json:"player_id"`
	ActionType string          `json:"action_type"`
	Action     json.RawMessage `json:"action,omitempty"`
	Timestamp  int64           `json:"timestamp"` // Unix milliseconds
}

// GameLogPayload answers a get_game_log request.
type GameLogPayload struct {
	GameID  string         `json:"game_id"`
	Entries []GameLogEntry `json:"entries"`
}

// ==================== Scenario Payloads ====================

// ScenarioListItem describes one scenario in a scenario list.
type ScenarioListItem struct {
	ScenarioID string `json:"scenario_id"`
	Name       string `json:"name"`
	Author     string `json:"author,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	BuiltIn    bool   `json:"built_in"`
}

// ScenarioListPayload lists available scenarios.
type ScenarioListPayload struct {
	Scenarios []ScenarioListItem `json:"scenarios"`
}

// GetScenarioPayload requests a scenario document by ID.
type GetScenarioPayload struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioDataPayload carries a full scenario document.
type ScenarioDataPayload struct {
	ScenarioID string          `json:"scenario_id"`
	Scenario   json.RawMessage `json:"scenario"`
}

// SaveScenarioPayload stores a scenario document authored by the player.
type SaveScenarioPayload struct {
	Scenario json.RawMessage `json:"scenario"`
}

// ScenarioSavedPayload confirms that a scenario was saved.
type ScenarioSavedPayload struct {
	ScenarioID string `json:"scenario_id"`
}

// GenerateScenarioPayload requests a generated scenario. The server
// replies with scenario_data; the document is not persisted.
type GenerateScenarioPayload struct {
	Settings GeneratorSettings `json:"settings"`
}

// ==================== System Payloads ====================

// WelcomePayload is sent when a client first connects.
type WelcomePayload struct {
	ServerVersion string `json:"server_version"`
	Message       string `json:"message,omitempty"`
}

// DisconnectPayload notifies that a player disconnected.
type DisconnectPayload struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason,omitempty"`
}
