package database

import "time"

// ActionRecord is a single logged game action.
type ActionRecord struct {
	ID         int64     `db:"id"`
	GameID     string    `db:"game_id"`
	PlayerID   string    `db:"player_id"`
	ActionType string    `db:"action_type"`
	ActionJSON string    `db:"action_json"`
	ResultJSON string    `db:"result_json"`
	CreatedAt  time.Time `db:"created_at"`
}

// Action types for the game log
const (
	ActionGameStarted = "game_started"
	ActionMoveUnit    = "move_unit"
	ActionEndTurn     = "end_turn"
	ActionForfeit     = "forfeit"
	ActionGameOver    = "game_over"
)

// LogAction logs a game action.
func (db *DB) LogAction(gameID, playerID, actionType, actionJSON, resultJSON string) error {
	_, err := db.conn.Exec(`
		INSERT INTO game_actions (game_id, player_id, action_type, action_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, gameID, playerID, actionType, actionJSON, resultJSON, time.Now())
	return err
}

// GetGameActions retrieves all logged actions for a game, ordered chronologically.
func (db *DB) GetGameActions(gameID string) ([]*ActionRecord, error) {
	var actions []*ActionRecord
	err := db.conn.Select(&actions, `
		SELECT id, game_id, COALESCE(player_id, '') AS player_id, action_type,
		       action_json, COALESCE(result_json, '') AS result_json, created_at
		FROM game_actions
		WHERE game_id = ?
		ORDER BY id ASC
	`, gameID)
	return actions, err
}

// GetGameActionsSince retrieves actions after a given ID (for incremental updates).
func (db *DB) GetGameActionsSince(gameID string, afterID int64) ([]*ActionRecord, error) {
	var actions []*ActionRecord
	err := db.conn.Select(&actions, `
		SELECT id, game_id, COALESCE(player_id, '') AS player_id, action_type,
		       action_json, COALESCE(result_json, '') AS result_json, created_at
		FROM game_actions
		WHERE game_id = ? AND id > ?
		ORDER BY id ASC
	`, gameID, afterID)
	return actions, err
}
