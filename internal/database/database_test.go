package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Expected database to open, got %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPlayer(t *testing.T, db *DB, name string) *Player {
	t.Helper()
	p, err := db.CreatePlayer(name)
	if err != nil {
		t.Fatalf("Expected player creation to succeed, got %v", err)
	}
	return p
}

func testGame(t *testing.T, db *DB, hostID string, isPublic bool) *Game {
	t.Helper()
	g, err := db.CreateGame("Test Game", hostID, "crossing-at-dawn", `{"id":"crossing-at-dawn"}`, isPublic)
	if err != nil {
		t.Fatalf("Expected game creation to succeed, got %v", err)
	}
	return g
}

func TestPlayers(t *testing.T) {
	db := testDB(t)

	p := testPlayer(t, db, "Alice")
	if p.ID == "" || p.Token == "" {
		t.Fatal("Expected player to have an ID and token")
	}
	if len(p.Token) != 64 {
		t.Errorf("Expected a 32-byte hex token, got %d chars", len(p.Token))
	}

	byToken, err := db.GetPlayerByToken(p.Token)
	if err != nil {
		t.Fatalf("Expected lookup by token to succeed, got %v", err)
	}
	if byToken.ID != p.ID || byToken.Name != "Alice" {
		t.Errorf("Expected %s/Alice, got %s/%s", p.ID, byToken.ID, byToken.Name)
	}

	byID, err := db.GetPlayerByID(p.ID)
	if err != nil {
		t.Fatalf("Expected lookup by ID to succeed, got %v", err)
	}
	if byID.Token != p.Token {
		t.Error("Expected same token from both lookups")
	}

	if _, err := db.GetPlayerByToken("bogus"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
	if _, err := db.GetPlayerByID("bogus"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}

	if err := db.UpdatePlayerName(p.ID, "Alicia"); err != nil {
		t.Fatalf("Expected rename to succeed, got %v", err)
	}
	renamed, _ := db.GetPlayerByID(p.ID)
	if renamed.Name != "Alicia" {
		t.Errorf("Expected name Alicia, got %q", renamed.Name)
	}
	if err := db.UpdatePlayerName("bogus", "X"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound on unknown rename, got %v", err)
	}

	if err := db.UpdatePlayerLastSeen(p.ID); err != nil {
		t.Errorf("Expected last-seen update to succeed, got %v", err)
	}
}

func TestCreateAndGetGame(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")

	g := testGame(t, db, host.ID, true)
	if len(g.JoinCode) != 9 || g.JoinCode[4] != '-' {
		t.Errorf("Expected join code like XXXX-XXXX, got %q", g.JoinCode)
	}

	got, err := db.GetGame(g.ID)
	if err != nil {
		t.Fatalf("Expected game lookup to succeed, got %v", err)
	}
	if got.Name != "Test Game" || got.Status != GameStatusWaiting || !got.IsPublic {
		t.Errorf("Unexpected game row: %+v", got.GameInfo)
	}
	if got.HostPlayerID != host.ID || got.ScenarioID != "crossing-at-dawn" {
		t.Errorf("Unexpected host/scenario: %s / %s", got.HostPlayerID, got.ScenarioID)
	}
	if got.ScenarioJSON == "" {
		t.Error("Expected scenario snapshot to be stored")
	}
	if got.PlayerCount != 0 {
		t.Errorf("Expected no players yet, got %d", got.PlayerCount)
	}

	// Join codes are case-insensitive on lookup
	byCode, err := db.GetGameByJoinCode(strings.ToLower(g.JoinCode))
	if err != nil || byCode.ID != g.ID {
		t.Fatalf("Expected join code lookup to find the game, got %v", err)
	}

	if _, err := db.GetGame("bogus"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
	if _, err := db.GetGameByJoinCode("XXXX-XXXX"); !errors.Is(err, ErrJoinCodeNotFound) {
		t.Errorf("Expected ErrJoinCodeNotFound, got %v", err)
	}
}

func TestJoinGame(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	opponent := testPlayer(t, db, "Opponent")
	third := testPlayer(t, db, "Third")

	g := testGame(t, db, host.ID, true)

	side, err := db.JoinGame(g.ID, host.ID)
	if err != nil || side != 1 {
		t.Fatalf("Expected host on side 1, got side %d err %v", side, err)
	}
	if _, err := db.JoinGame(g.ID, host.ID); !errors.Is(err, ErrAlreadyInGame) {
		t.Errorf("Expected ErrAlreadyInGame, got %v", err)
	}

	side, err = db.JoinGame(g.ID, opponent.ID)
	if err != nil || side != 2 {
		t.Fatalf("Expected opponent on side 2, got side %d err %v", side, err)
	}
	if _, err := db.JoinGame(g.ID, third.ID); !errors.Is(err, ErrGameFull) {
		t.Errorf("Expected ErrGameFull, got %v", err)
	}

	players, err := db.GetGamePlayers(g.ID)
	if err != nil {
		t.Fatalf("Expected player listing to succeed, got %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(players))
	}
	if players[0].Side != 1 || players[1].Side != 2 {
		t.Errorf("Expected players ordered by side, got %d then %d", players[0].Side, players[1].Side)
	}
	if players[0].PlayerName != "Host" || players[1].PlayerName != "Opponent" {
		t.Errorf("Expected joined names, got %q and %q", players[0].PlayerName, players[1].PlayerName)
	}

	if err := db.StartGame(g.ID); err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}
	started, _ := db.GetGame(g.ID)
	if started.Status != GameStatusStarted || started.StartedAt == nil {
		t.Errorf("Expected started status with timestamp, got %s", started.Status)
	}
	if _, err := db.JoinGame(g.ID, third.ID); !errors.Is(err, ErrGameStarted) {
		t.Errorf("Expected ErrGameStarted after start, got %v", err)
	}
}

func TestLeaveGame(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	opponent := testPlayer(t, db, "Opponent")
	g := testGame(t, db, host.ID, false)

	db.JoinGame(g.ID, host.ID)
	db.JoinGame(g.ID, opponent.ID)

	if err := db.LeaveGame(g.ID, opponent.ID); err != nil {
		t.Fatalf("Expected leave to succeed, got %v", err)
	}
	players, _ := db.GetGamePlayers(g.ID)
	if len(players) != 1 || players[0].PlayerID != host.ID {
		t.Errorf("Expected only the host to remain, got %d players", len(players))
	}

	if err := db.LeaveGame(g.ID, opponent.ID); err == nil {
		t.Error("Expected error when leaving a game twice")
	}

	// The freed side is reassigned to the next joiner
	side, err := db.JoinGame(g.ID, opponent.ID)
	if err != nil || side != 2 {
		t.Errorf("Expected rejoin on side 2, got side %d err %v", side, err)
	}
}

func TestReadyAndConnectedFlags(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	g := testGame(t, db, host.ID, false)
	db.JoinGame(g.ID, host.ID)

	if err := db.SetPlayerReady(g.ID, host.ID, true); err != nil {
		t.Fatalf("Expected ready update to succeed, got %v", err)
	}
	if err := db.SetPlayerConnected(g.ID, host.ID, true); err != nil {
		t.Fatalf("Expected connected update to succeed, got %v", err)
	}

	players, _ := db.GetGamePlayers(g.ID)
	if !players[0].IsReady || !players[0].IsConnected {
		t.Errorf("Expected ready and connected, got ready=%v connected=%v",
			players[0].IsReady, players[0].IsConnected)
	}

	db.SetPlayerReady(g.ID, host.ID, false)
	players, _ = db.GetGamePlayers(g.ID)
	if players[0].IsReady {
		t.Error("Expected ready flag to clear")
	}
}

func TestGameStateRoundTrip(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	g := testGame(t, db, host.ID, false)

	state, err := db.GetGameState(g.ID)
	if err != nil {
		t.Fatalf("Expected state lookup to succeed, got %v", err)
	}
	if state != "" {
		t.Errorf("Expected no state before the game starts, got %q", state)
	}

	if err := db.SaveGameState(g.ID, `{"round":1}`, "player_one", 1); err != nil {
		t.Fatalf("Expected state save to succeed, got %v", err)
	}
	if err := db.SaveGameState(g.ID, `{"round":2}`, "player_two", 2); err != nil {
		t.Fatalf("Expected state update to succeed, got %v", err)
	}

	state, _ = db.GetGameState(g.ID)
	if state != `{"round":2}` {
		t.Errorf("Expected latest snapshot, got %q", state)
	}

	snapshot, err := db.GetGameScenarioJSON(g.ID)
	if err != nil || snapshot != `{"id":"crossing-at-dawn"}` {
		t.Errorf("Expected stored scenario snapshot, got %q err %v", snapshot, err)
	}
	if _, err := db.GetGameScenarioJSON("bogus"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestGameListings(t *testing.T) {
	db := testDB(t)
	alice := testPlayer(t, db, "Alice")
	bob := testPlayer(t, db, "Bob")

	public := testGame(t, db, alice.ID, true)
	db.JoinGame(public.ID, alice.ID)
	private := testGame(t, db, bob.ID, false)
	db.JoinGame(private.ID, bob.ID)

	games, err := db.ListPublicGames()
	if err != nil {
		t.Fatalf("Expected listing to succeed, got %v", err)
	}
	if len(games) != 1 || games[0].ID != public.ID {
		t.Fatalf("Expected only the public game, got %d games", len(games))
	}
	if games[0].PlayerCount != 1 {
		t.Errorf("Expected player count 1, got %d", games[0].PlayerCount)
	}

	// Started games leave the public listing
	db.JoinGame(public.ID, bob.ID)
	db.StartGame(public.ID)
	games, _ = db.ListPublicGames()
	if len(games) != 0 {
		t.Errorf("Expected no public games after start, got %d", len(games))
	}

	// Both players still see the started game as theirs
	mine, err := db.GetPlayerGames(bob.ID)
	if err != nil {
		t.Fatalf("Expected player games to succeed, got %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Expected bob in 2 unfinished games, got %d", len(mine))
	}

	// Finished games drop out
	db.EndGame(public.ID)
	mine, _ = db.GetPlayerGames(bob.ID)
	if len(mine) != 1 || mine[0].ID != private.ID {
		t.Errorf("Expected only the private lobby to remain, got %d games", len(mine))
	}
}

func TestDeleteGameCascades(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	g := testGame(t, db, host.ID, false)
	db.JoinGame(g.ID, host.ID)
	db.SaveGameState(g.ID, `{}`, "player_one", 1)
	db.LogAction(g.ID, host.ID, ActionGameStarted, "{}", "")

	if err := db.DeleteGame(g.ID); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	if _, err := db.GetGame(g.ID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
	if state, _ := db.GetGameState(g.ID); state != "" {
		t.Errorf("Expected state to be deleted, got %q", state)
	}
	actions, _ := db.GetGameActions(g.ID)
	if len(actions) != 0 {
		t.Errorf("Expected actions to be deleted, got %d", len(actions))
	}
	players, _ := db.GetGamePlayers(g.ID)
	if len(players) != 0 {
		t.Errorf("Expected roster to be deleted, got %d", len(players))
	}
}

func TestCleanupAbandonedLobbies(t *testing.T) {
	db := testDB(t)
	alice := testPlayer(t, db, "Alice")
	bob := testPlayer(t, db, "Bob")

	abandoned := testGame(t, db, alice.ID, true)
	db.JoinGame(abandoned.ID, alice.ID)

	active := testGame(t, db, bob.ID, true)
	db.JoinGame(active.ID, bob.ID)
	db.SetPlayerConnected(active.ID, bob.ID, true)

	started := testGame(t, db, bob.ID, true)
	db.StartGame(started.ID)

	if err := db.CleanupAbandonedLobbies(); err != nil {
		t.Fatalf("Expected cleanup to succeed, got %v", err)
	}

	if _, err := db.GetGame(abandoned.ID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected abandoned lobby to be removed, got %v", err)
	}
	if _, err := db.GetGame(active.ID); err != nil {
		t.Errorf("Expected active lobby to survive, got %v", err)
	}
	if _, err := db.GetGame(started.ID); err != nil {
		t.Errorf("Expected started game to survive, got %v", err)
	}
}

func TestActionLog(t *testing.T) {
	db := testDB(t)
	host := testPlayer(t, db, "Host")
	g := testGame(t, db, host.ID, false)

	db.LogAction(g.ID, host.ID, ActionGameStarted, "{}", "")
	db.LogAction(g.ID, host.ID, ActionMoveUnit, `{"unit_id":"u1"}`, `{"to_col":3}`)
	db.LogAction(g.ID, host.ID, ActionEndTurn, "{}", "")

	actions, err := db.GetGameActions(g.ID)
	if err != nil {
		t.Fatalf("Expected action listing to succeed, got %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("Expected 3 actions, got %d", len(actions))
	}
	if actions[0].ActionType != ActionGameStarted || actions[2].ActionType != ActionEndTurn {
		t.Errorf("Expected chronological order, got %s ... %s",
			actions[0].ActionType, actions[2].ActionType)
	}
	if actions[1].ActionJSON != `{"unit_id":"u1"}` || actions[1].ResultJSON != `{"to_col":3}` {
		t.Errorf("Unexpected logged payloads: %q / %q", actions[1].ActionJSON, actions[1].ResultJSON)
	}

	since, err := db.GetGameActionsSince(g.ID, actions[0].ID)
	if err != nil {
		t.Fatalf("Expected incremental listing to succeed, got %v", err)
	}
	if len(since) != 2 || since[0].ID != actions[1].ID {
		t.Errorf("Expected the 2 actions after the first, got %d", len(since))
	}
}

func TestScenarioStore(t *testing.T) {
	db := testDB(t)
	author := testPlayer(t, db, "Author")

	err := db.SaveScenario("my-map", "My Map", author.ID, 16, 12, `{"id":"my-map"}`)
	if err != nil {
		t.Fatalf("Expected scenario save to succeed, got %v", err)
	}

	rec, err := db.GetScenario("my-map")
	if err != nil {
		t.Fatalf("Expected scenario lookup to succeed, got %v", err)
	}
	if rec.Name != "My Map" || rec.AuthorID != author.ID || rec.Width != 16 || rec.Height != 12 {
		t.Errorf("Unexpected scenario row: %+v", rec.ScenarioInfo)
	}
	if rec.DataJSON != `{"id":"my-map"}` {
		t.Errorf("Unexpected scenario data: %q", rec.DataJSON)
	}

	// Saving again with the same ID updates in place
	err = db.SaveScenario("my-map", "My Map v2", author.ID, 20, 14, `{"id":"my-map","v":2}`)
	if err != nil {
		t.Fatalf("Expected scenario update to succeed, got %v", err)
	}
	rec, _ = db.GetScenario("my-map")
	if rec.Name != "My Map v2" || rec.Width != 20 {
		t.Errorf("Expected updated row, got %+v", rec.ScenarioInfo)
	}

	infos, err := db.ListScenarios()
	if err != nil || len(infos) != 1 {
		t.Fatalf("Expected 1 stored scenario, got %d err %v", len(infos), err)
	}

	if err := db.DeleteScenario("my-map"); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	if _, err := db.GetScenario("my-map"); !errors.Is(err, ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound, got %v", err)
	}
	if err := db.DeleteScenario("my-map"); !errors.Is(err, ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound on double delete, got %v", err)
	}
}
