package database

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GameStatus represents the current status of a game.
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"  // In lobby, waiting for an opponent
	GameStatusStarted  GameStatus = "started"  // Game in progress
	GameStatusFinished GameStatus = "finished" // Game completed
)

// Games are strictly two-player.
const gameSides = 2

// GameInfo contains basic game information for listings.
type GameInfo struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	JoinCode     string     `db:"join_code"`
	IsPublic     bool       `db:"is_public"`
	Status       GameStatus `db:"status"`
	HostPlayerID string     `db:"host_player_id"`
	ScenarioID   string     `db:"scenario_id"`
	PlayerCount  int        `db:"player_count"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Game contains full game data, including the scenario snapshot taken
// at creation time.
type Game struct {
	GameInfo
	ScenarioJSON string     `db:"scenario_json"`
	StartedAt    *time.Time `db:"started_at"`
	EndedAt      *time.Time `db:"ended_at"`
}

// GamePlayer represents a player in a game. Side is 1 (host) or 2.
type GamePlayer struct {
	GameID      string    `db:"game_id"`
	PlayerID    string    `db:"player_id"`
	PlayerName  string    `db:"player_name"`
	Side        int       `db:"side"`
	IsReady     bool      `db:"is_ready"`
	IsConnected bool      `db:"is_connected"`
	JoinedAt    time.Time `db:"joined_at"`
}

// ErrGameNotFound is returned when a game is not found.
var ErrGameNotFound = errors.New("game not found")

// ErrJoinCodeNotFound is returned when a join code is invalid.
var ErrJoinCodeNotFound = errors.New("invalid join code")

// ErrGameFull is returned when a game already has both players.
var ErrGameFull = errors.New("game is full")

// ErrAlreadyInGame is returned when player is already in the game.
var ErrAlreadyInGame = errors.New("already in game")

// ErrGameStarted is returned when joining a game that is no longer in the lobby.
var ErrGameStarted = errors.New("game already started")

// CreateGame creates a new game with a snapshot of its scenario.
func (db *DB) CreateGame(name, hostPlayerID, scenarioID, scenarioJSON string, isPublic bool) (*Game, error) {
	id := uuid.New().String()
	joinCode := generateJoinCode()

	now := time.Now()
	_, err := db.conn.Exec(`
		INSERT INTO games (id, name, join_code, is_public, status, host_player_id, scenario_id, scenario_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, name, joinCode, isPublic, GameStatusWaiting, hostPlayerID, scenarioID, scenarioJSON, now)
	if err != nil {
		return nil, err
	}

	return &Game{
		GameInfo: GameInfo{
			ID:           id,
			Name:         name,
			JoinCode:     joinCode,
			IsPublic:     isPublic,
			Status:       GameStatusWaiting,
			HostPlayerID: hostPlayerID,
			ScenarioID:   scenarioID,
			PlayerCount:  0,
			CreatedAt:    now,
		},
		ScenarioJSON: scenarioJSON,
	}, nil
}

// GetGame retrieves a game by ID.
func (db *DB) GetGame(id string) (*Game, error) {
	var g Game
	err := db.conn.Get(&g, `
		SELECT id, name, join_code, is_public, status, host_player_id,
		       scenario_id, scenario_json, created_at, started_at, ended_at,
		       (SELECT COUNT(*) FROM game_players WHERE game_id = games.id) AS player_count
		FROM games WHERE id = ?
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGameByJoinCode retrieves a game by its join code.
func (db *DB) GetGameByJoinCode(code string) (*Game, error) {
	var id string
	err := db.conn.Get(&id, `SELECT id FROM games WHERE join_code = ?`, strings.ToUpper(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJoinCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.GetGame(id)
}

// ListPublicGames returns all public games that are waiting for an opponent.
func (db *DB) ListPublicGames() ([]*GameInfo, error) {
	var games []*GameInfo
	err := db.conn.Select(&games, `
		SELECT g.id, g.name, g.join_code, g.is_public, g.status,
		       g.host_player_id, g.scenario_id, g.created_at,
		       (SELECT COUNT(*) FROM game_players WHERE game_id = g.id) AS player_count
		FROM games g
		WHERE g.is_public = TRUE AND g.status = ?
		ORDER BY g.created_at DESC
	`, GameStatusWaiting)
	return games, err
}

// GetPlayerGames retrieves all unfinished games a player is participating in.
func (db *DB) GetPlayerGames(playerID string) ([]*GameInfo, error) {
	var games []*GameInfo
	err := db.conn.Select(&games, `
		SELECT g.id, g.name, g.join_code, g.is_public, g.status,
		       g.host_player_id, g.scenario_id, g.created_at,
		       (SELECT COUNT(*) FROM game_players WHERE game_id = g.id) AS player_count
		FROM games g
		INNER JOIN game_players gp ON gp.game_id = g.id
		WHERE gp.player_id = ?
		AND g.status != ?
		ORDER BY g.created_at DESC
	`, playerID, GameStatusFinished)
	return games, err
}

// JoinGame adds a player to a game and returns the side they were
// assigned. The host always holds side 1, so a joining opponent
// normally receives side 2.
func (db *DB) JoinGame(gameID, playerID string) (int, error) {
	game, err := db.GetGame(gameID)
	if err != nil {
		return 0, err
	}

	if game.Status != GameStatusWaiting {
		return 0, ErrGameStarted
	}

	var exists int
	db.conn.Get(&exists, `SELECT COUNT(*) FROM game_players WHERE game_id = ? AND player_id = ?`,
		gameID, playerID)
	if exists > 0 {
		return 0, ErrAlreadyInGame
	}

	var taken []int
	if err := db.conn.Select(&taken, `SELECT side FROM game_players WHERE game_id = ?`, gameID); err != nil {
		return 0, err
	}

	side := 0
	for s := 1; s <= gameSides; s++ {
		free := true
		for _, t := range taken {
			if t == s {
				free = false
				break
			}
		}
		if free {
			side = s
			break
		}
	}
	if side == 0 {
		return 0, ErrGameFull
	}

	_, err = db.conn.Exec(`
		INSERT INTO game_players (game_id, player_id, side, is_ready, is_connected, joined_at)
		VALUES (?, ?, ?, FALSE, FALSE, ?)
	`, gameID, playerID, side, time.Now())
	if err != nil {
		return 0, err
	}
	return side, nil
}

// LeaveGame removes a player from a game.
func (db *DB) LeaveGame(gameID, playerID string) error {
	result, err := db.conn.Exec(`
		DELETE FROM game_players WHERE game_id = ? AND player_id = ?
	`, gameID, playerID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New("player not in game")
	}
	return nil
}

// GetGamePlayers returns all players in a game ordered by side.
func (db *DB) GetGamePlayers(gameID string) ([]*GamePlayer, error) {
	var players []*GamePlayer
	err := db.conn.Select(&players, `
		SELECT gp.game_id, gp.player_id, p.name AS player_name, gp.side,
		       gp.is_ready, gp.is_connected, gp.joined_at
		FROM game_players gp
		JOIN players p ON gp.player_id = p.id
		WHERE gp.game_id = ?
		ORDER BY gp.side
	`, gameID)
	return players, err
}

// SetPlayerReady sets a player's ready status.
func (db *DB) SetPlayerReady(gameID, playerID string, ready bool) error {
	_, err := db.conn.Exec(`
		UPDATE game_players SET is_ready = ? WHERE game_id = ? AND player_id = ?
	`, ready, gameID, playerID)
	return err
}

// SetPlayerConnected sets a player's connection status.
func (db *DB) SetPlayerConnected(gameID, playerID string, connected bool) error {
	_, err := db.conn.Exec(`
		UPDATE game_players SET is_connected = ? WHERE game_id = ? AND player_id = ?
	`, connected, gameID, playerID)
	return err
}

// StartGame marks a game as started.
func (db *DB) StartGame(gameID string) error {
	now := time.Now()
	_, err := db.conn.Exec(`
		UPDATE games SET status = ?, started_at = ? WHERE id = ?
	`, GameStatusStarted, now, gameID)
	return err
}

// EndGame marks a game as finished.
func (db *DB) EndGame(gameID string) error {
	now := time.Now()
	_, err := db.conn.Exec(`
		UPDATE games SET status = ?, ended_at = ? WHERE id = ?
	`, GameStatusFinished, now, gameID)
	return err
}

// SaveGameState saves the current game state.
func (db *DB) SaveGameState(gameID, stateJSON, turn string, round int) error {
	_, err := db.conn.Exec(`
		INSERT INTO game_state (game_id, state_json, turn, round, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			state_json = excluded.state_json,
			turn = excluded.turn,
			round = excluded.round,
			updated_at = excluded.updated_at
	`, gameID, stateJSON, turn, round, time.Now())
	return err
}

// GetGameState retrieves the current game state. Returns an empty
// string when no state has been saved yet.
func (db *DB) GetGameState(gameID string) (string, error) {
	var stateJSON string
	err := db.conn.Get(&stateJSON, `
		SELECT state_json FROM game_state WHERE game_id = ?
	`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return stateJSON, err
}

// GetGameScenarioJSON retrieves the scenario snapshot stored on a game.
func (db *DB) GetGameScenarioJSON(gameID string) (string, error) {
	var scenarioJSON string
	err := db.conn.Get(&scenarioJSON, `
		SELECT scenario_json FROM games WHERE id = ?
	`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrGameNotFound
	}
	return scenarioJSON, err
}

// DeleteGame permanently deletes a game and all associated data.
func (db *DB) DeleteGame(gameID string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Delete in order of dependencies
	_, err = tx.Exec(`DELETE FROM game_actions WHERE game_id = ?`, gameID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM game_state WHERE game_id = ?`, gameID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM game_players WHERE game_id = ?`, gameID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM games WHERE id = ?`, gameID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// CleanupAbandonedLobbies removes lobby games where no player is connected.
func (db *DB) CleanupAbandonedLobbies() error {
	_, err := db.conn.Exec(`
		DELETE FROM games
		WHERE id IN (
			SELECT g.id FROM games g
			WHERE g.status = ?
			AND NOT EXISTS (
				SELECT 1 FROM game_players gp
				WHERE gp.game_id = g.id
				AND gp.is_connected = 1
			)
		)
	`, GameStatusWaiting)
	return err
}

// generateJoinCode creates a human-readable join code.
func generateJoinCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Removed ambiguous chars (0,O,1,I)
	bytes := make([]byte, 8)
	rand.Read(bytes)

	code := make([]byte, 8)
	for i := range code {
		code[i] = chars[bytes[i]%byte(len(chars))]
	}
	// Format as XXXX-XXXX
	return string(code[:4]) + "-" + string(code[4:])
}
