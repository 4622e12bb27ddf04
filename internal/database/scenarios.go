package database

import (
	"database/sql"
	"errors"
	"time"
)

// ScenarioInfo contains scenario metadata for listings.
type ScenarioInfo struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	AuthorID  string    `db:"author_id"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ScenarioRecord is a full player-authored scenario row.
type ScenarioRecord struct {
	ScenarioInfo
	DataJSON  string    `db:"data_json"`
	CreatedAt time.Time `db:"created_at"`
}

// ErrScenarioNotFound is returned when a scenario is not found.
var ErrScenarioNotFound = errors.New("scenario not found")

// SaveScenario inserts or updates a player-authored scenario.
func (db *DB) SaveScenario(id, name, authorID string, width, height int, dataJSON string) error {
	now := time.Now()
	_, err := db.conn.Exec(`
		INSERT INTO scenarios (id, name, author_id, width, height, data_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			width = excluded.width,
			height = excluded.height,
			data_json = excluded.data_json,
			updated_at = excluded.updated_at
	`, id, name, authorID, width, height, dataJSON, now, now)
	return err
}

// GetScenario retrieves a stored scenario by ID.
func (db *DB) GetScenario(id string) (*ScenarioRecord, error) {
	var rec ScenarioRecord
	err := db.conn.Get(&rec, `
		SELECT id, name, author_id, width, height, data_json, created_at, updated_at
		FROM scenarios WHERE id = ?
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListScenarios returns metadata for all stored scenarios.
func (db *DB) ListScenarios() ([]*ScenarioInfo, error) {
	var infos []*ScenarioInfo
	err := db.conn.Select(&infos, `
		SELECT id, name, author_id, width, height, updated_at
		FROM scenarios
		ORDER BY updated_at DESC
	`)
	return infos, err
}

// DeleteScenario removes a stored scenario.
func (db *DB) DeleteScenario(id string) error {
	result, err := db.conn.Exec(`DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrScenarioNotFound
	}
	return nil
}
