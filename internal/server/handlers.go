package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"hexfront/internal/database"
	"hexfront/internal/game"
	"hexfront/internal/protocol"
	"hexfront/pkg/hexgrid"
	"hexfront/pkg/scenario"
)

// Handler-level errors, mapped to protocol error codes by errorCode.
var (
	errNotAuthenticated = errors.New("not authenticated")
	errNotInGame        = errors.New("not in a game")
	errNotInThisGame    = errors.New("not a player in this game")
	errGameNotStarted   = errors.New("game not started")
	errNotHost          = errors.New("only the host can do that")
	errGameInProgress   = errors.New("game is in progress")
	errNeedTwoPlayers   = errors.New("need two players to start")
	errPlayersNotReady  = errors.New("not all players are ready")
	errScenarioReserved = errors.New("scenario ID is reserved by a built-in scenario")
	errScenarioOwned    = errors.New("scenario belongs to another author")
)

// Handlers processes incoming messages.
type Handlers struct {
	hub *Hub
}

// NewHandlers creates a new handler set.
func NewHandlers(hub *Hub) *Handlers {
	return &Handlers{hub: hub}
}

// Handle routes a message to the appropriate handler.
func (h *Handlers) Handle(client *Client, msg *protocol.Message) {
	var err error

	switch msg.Type {
	case protocol.TypeAuthenticate:
		err = h.handleAuthenticate(client, msg)
	case protocol.TypeCreateGame:
		err = h.handleCreateGame(client, msg)
	case protocol.TypeJoinGame:
		err = h.handleJoinGame(client, msg)
	case protocol.TypeJoinByCode:
		err = h.handleJoinByCode(client, msg)
	case protocol.TypeLeaveGame:
		err = h.handleLeaveGame(client, msg)
	case protocol.TypeDeleteGame:
		err = h.handleDeleteGame(client, msg)
	case protocol.TypePlayerReady:
		err = h.handlePlayerReady(client, msg)
	case protocol.TypeStartGame:
		err = h.handleStartGame(client, msg)
	case protocol.TypeListGames:
		err = h.handleListGames(client, msg)
	case protocol.TypeYourGames:
		err = h.handleYourGames(client, msg)
	case protocol.TypeMoveRange:
		err = h.handleMoveRange(client, msg)
	case protocol.TypeMoveUnit:
		err = h.handleMoveUnit(client, msg)
	case protocol.TypeEndTurn:
		err = h.handleEndTurn(client, msg)
	case protocol.TypeForfeit:
		err = h.handleForfeit(client, msg)
	case protocol.TypeGetGameLog:
		err = h.handleGetGameLog(client, msg)
	case protocol.TypeListScenarios:
		err = h.handleListScenarios(client, msg)
	case protocol.TypeGetScenario:
		err = h.handleGetScenario(client, msg)
	case protocol.TypeSaveScenario:
		err = h.handleSaveScenario(client, msg)
	case protocol.TypeGenerateScenario:
		err = h.handleGenerateScenario(client, msg)
	case protocol.TypePing:
		err = h.handlePing(client, msg)
	default:
		err = errors.New("unknown message type")
	}

	if err != nil {
		h.sendError(client, msg.ID, err)
	}
}

// ==================== Authentication ====================

// handleAuthenticate handles player authentication/registration.
func (h *Handlers) handleAuthenticate(client *Client, msg *protocol.Message) error {
	var payload protocol.AuthenticatePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	db := h.hub.server.db
	var player *database.Player
	var err error

	// Try to find existing player by token
	if payload.Token != "" {
		player, err = db.GetPlayerByToken(payload.Token)
		if err != nil && !errors.Is(err, database.ErrPlayerNotFound) {
			return err
		}
	}

	// Create new player if not found
	if player == nil {
		name := payload.Name
		if name == "" {
			name = "Player"
		}
		player, err = db.CreatePlayer(name)
		if err != nil {
			return err
		}
		log.Printf("Created new player: %s (%s)", player.Name, player.ID)
	} else {
		// Update name if provided
		if payload.Name != "" && payload.Name != player.Name {
			db.UpdatePlayerName(player.ID, payload.Name)
			player.Name = payload.Name
		}
		db.UpdatePlayerLastSeen(player.ID)
		log.Printf("Player reconnected: %s (%s)", player.Name, player.ID)
	}

	// Associate client with player
	h.hub.SetClientPlayer(client, player.ID)
	client.Name = player.Name

	response := protocol.AuthResultPayload{
		Success:  true,
		PlayerID: player.ID,
		Token:    player.Token,
		Name:     player.Name,
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeAuthResult, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	// Send the player's unfinished games so the client can offer rejoin
	games, _ := db.GetPlayerGames(player.ID)
	if len(games) > 0 {
		listMsg, _ := protocol.NewMessage(protocol.TypeYourGames, protocol.YourGamesPayload{
			Games: h.buildGameList(player.ID, games),
		})
		client.Send(listMsg)
	}

	return nil
}

// ==================== Lobby ====================

// handleCreateGame handles game creation. The game stores a snapshot
// of its scenario, so later edits never affect running games.
func (h *Handlers) handleCreateGame(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	var payload protocol.CreateGamePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	doc, err := h.resolveScenario(&payload)
	if err != nil {
		return err
	}

	scenarioJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	name := payload.Name
	if name == "" {
		name = doc.Name
	}

	db := h.hub.server.db
	gameRec, err := db.CreateGame(name, client.PlayerID, doc.ID, string(scenarioJSON), payload.IsPublic)
	if err != nil {
		return err
	}

	// The host takes side one
	if _, err := db.JoinGame(gameRec.ID, client.PlayerID); err != nil {
		return err
	}

	h.hub.AddClientToGame(client, gameRec.ID)
	db.SetPlayerConnected(gameRec.ID, client.PlayerID, true)

	log.Printf("Game created: %s (%s) by %s", gameRec.Name, gameRec.ID, client.Name)

	response := protocol.GameCreatedPayload{
		GameID:   gameRec.ID,
		JoinCode: gameRec.JoinCode,
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeGameCreated, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	h.sendLobbyState(client, gameRec.ID)

	return nil
}

// resolveScenario produces the scenario a new game will play on: one
// named by ID, a generated one, or the server default.
func (h *Handlers) resolveScenario(payload *protocol.CreateGamePayload) (*scenario.Document, error) {
	switch {
	case payload.Generator != nil:
		return scenario.NewGenerator(generatorOptions(*payload.Generator)).Generate(), nil
	case payload.ScenarioID != "":
		return h.findScenario(payload.ScenarioID)
	default:
		return h.findScenario(h.hub.server.cfg.Game.DefaultScenario)
	}
}

// findScenario looks a scenario up in the built-in registry, then in
// the stored scenarios.
func (h *Handlers) findScenario(id string) (*scenario.Document, error) {
	if doc := scenario.Get(id); doc != nil {
		return doc, nil
	}

	rec, err := h.hub.server.db.GetScenario(id)
	if err != nil {
		return nil, err
	}
	return scenario.LoadFromJSON([]byte(rec.DataJSON))
}

// generatorOptions maps wire settings onto generator options, using
// the generator defaults for anything unset.
func generatorOptions(s protocol.GeneratorSettings) scenario.Options {
	opts := scenario.DefaultOptions()
	if s.Width > 0 {
		opts.Width = s.Width
	}
	if s.Height > 0 {
		opts.Height = s.Height
	}
	if s.Seed != 0 {
		opts.Seed = s.Seed
	}
	if s.WaterPercent > 0 {
		opts.WaterPercent = s.WaterPercent
	}
	if s.Rivers > 0 {
		opts.Rivers = s.Rivers
	}
	if s.Towns > 0 {
		opts.Towns = s.Towns
	}
	if s.UnitsPerSide > 0 {
		opts.UnitsPerSide = s.UnitsPerSide
	}
	return opts
}

// handleJoinGame handles joining a game by ID.
func (h *Handlers) handleJoinGame(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	var payload protocol.JoinGamePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	return h.joinGame(client, msg.ID, payload.GameID)
}

// handleJoinByCode handles joining a game by join code.
func (h *Handlers) handleJoinByCode(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	var payload protocol.JoinByCodePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	gameRec, err := h.hub.server.db.GetGameByJoinCode(payload.JoinCode)
	if err != nil {
		return err
	}

	return h.joinGame(client, msg.ID, gameRec.ID)
}

// joinGame is the common logic for joining a game. Players already on
// the roster rejoin their side; new players take the free one.
func (h *Handlers) joinGame(client *Client, msgID string, gameID string) error {
	db := h.hub.server.db

	players, err := db.GetGamePlayers(gameID)
	if err != nil {
		return err
	}

	side := 0
	for _, p := range players {
		if p.PlayerID == client.PlayerID {
			side = p.Side
			break
		}
	}

	if side == 0 {
		side, err = db.JoinGame(gameID, client.PlayerID)
		if err != nil {
			return err
		}
		log.Printf("Player %s joined game %s as %s", client.Name, gameID, game.Side(side))
	}

	h.hub.AddClientToGame(client, gameID)
	db.SetPlayerConnected(gameID, client.PlayerID, true)

	gameRec, err := db.GetGame(gameID)
	if err != nil {
		return err
	}

	response := protocol.JoinedGamePayload{
		GameID:   gameID,
		JoinCode: gameRec.JoinCode,
		Side:     game.Side(side).String(),
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeJoinedGame, response)
	respMsg.ID = msgID
	client.Send(respMsg)

	if gameRec.Status == database.GameStatusStarted {
		// Reconnecting mid-game
		log.Printf("Player %s reconnecting to started game %s", client.Name, gameID)
		h.broadcastGameState(gameID)
	} else {
		h.broadcastLobbyState(gameID)
		h.hub.notifyGamePlayers(gameID, protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
			PlayerID: client.PlayerID,
			Name:     client.Name,
			Side:     game.Side(side).String(),
		})
	}

	return nil
}

// handleLeaveGame handles leaving a game.
func (h *Handlers) handleLeaveGame(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	gameID := client.GameID
	db := h.hub.server.db

	gameRec, err := db.GetGame(gameID)
	if err != nil {
		return err
	}

	if gameRec.Status == database.GameStatusStarted {
		// Started games keep their roster; leaving just stops watching.
		h.hub.RemoveClientFromGame(client, gameID)
		db.SetPlayerConnected(gameID, client.PlayerID, false)
	} else {
		db.LeaveGame(gameID, client.PlayerID)
		h.hub.RemoveClientFromGame(client, gameID)

		h.hub.notifyGamePlayers(gameID, protocol.TypePlayerLeft, protocol.PlayerLeftPayload{
			PlayerID: client.PlayerID,
		})
		h.broadcastLobbyState(gameID)
	}

	log.Printf("Player %s left game %s", client.Name, gameID)
	return nil
}

// handleDeleteGame allows the host to delete a game that is not running.
func (h *Handlers) handleDeleteGame(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	var payload protocol.DeleteGamePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	db := h.hub.server.db
	gameRec, err := db.GetGame(payload.GameID)
	if err != nil {
		return err
	}

	if gameRec.HostPlayerID != client.PlayerID {
		return errNotHost
	}
	if gameRec.Status == database.GameStatusStarted {
		return errGameInProgress
	}

	if err := db.DeleteGame(payload.GameID); err != nil {
		return err
	}
	h.hub.server.dropGame(payload.GameID)

	log.Printf("Game %s deleted by host %s", payload.GameID, client.PlayerID)

	h.hub.notifyGamePlayers(payload.GameID, protocol.TypeGameDeleted, protocol.GameDeletedPayload{
		GameID: payload.GameID,
		Reason: "deleted by host",
	})

	// Detach all clients from the deleted game
	h.hub.mu.Lock()
	if clients, ok := h.hub.gameClients[payload.GameID]; ok {
		for c := range clients {
			c.GameID = ""
		}
		delete(h.hub.gameClients, payload.GameID)
	}
	h.hub.mu.Unlock()

	respMsg, _ := protocol.NewMessage(protocol.TypeGameDeleted, protocol.GameDeletedPayload{
		GameID: payload.GameID,
	})
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// handlePlayerReady handles ready state toggle.
func (h *Handlers) handlePlayerReady(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	var payload protocol.PlayerReadyPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	if err := h.hub.server.db.SetPlayerReady(client.GameID, client.PlayerID, payload.Ready); err != nil {
		return err
	}

	h.broadcastLobbyState(client.GameID)

	return nil
}

// handleStartGame starts the game once both players are ready.
func (h *Handlers) handleStartGame(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	db := h.hub.server.db
	gameID := client.GameID

	gameRec, err := db.GetGame(gameID)
	if err != nil {
		return err
	}
	if gameRec.HostPlayerID != client.PlayerID {
		return errNotHost
	}
	if gameRec.Status != database.GameStatusWaiting {
		return errGameInProgress
	}

	players, err := db.GetGamePlayers(gameID)
	if err != nil {
		return err
	}
	if len(players) != 2 {
		return errNeedTwoPlayers
	}
	for _, p := range players {
		if !p.IsReady {
			return errPlayersNotReady
		}
	}

	if _, err := h.initializeGameState(gameID, gameRec, players); err != nil {
		return err
	}

	if err := db.StartGame(gameID); err != nil {
		return err
	}

	log.Printf("Game started: %s (%s vs %s)", gameID, players[0].PlayerName, players[1].PlayerName)

	h.logAction(gameID, client.PlayerID, database.ActionGameStarted, nil, nil)

	h.hub.notifyGamePlayers(gameID, protocol.TypeGameStarted, protocol.GameStartedPayload{
		GameID: gameID,
	})
	h.broadcastGameState(gameID)

	return nil
}

// initializeGameState builds the live state from the game's scenario
// snapshot and caches it.
func (h *Handlers) initializeGameState(gameID string, gameRec *database.Game, players []*database.GamePlayer) (*game.GameState, error) {
	doc, err := scenario.LoadFromJSON([]byte(gameRec.ScenarioJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid scenario snapshot: %w", err)
	}

	board, units := doc.Build()
	state := game.NewGame(gameID, doc.ID, board, units)
	for _, p := range players {
		state.AssignPlayer(game.Side(p.Side), p.PlayerID)
	}

	if err := h.hub.server.installGame(state); err != nil {
		return nil, err
	}
	return state, nil
}

// handleListGames handles listing public games.
func (h *Handlers) handleListGames(client *Client, msg *protocol.Message) error {
	db := h.hub.server.db

	// Reap dead lobbies before listing
	if err := db.CleanupAbandonedLobbies(); err != nil {
		log.Printf("Warning: failed to clean up abandoned lobbies: %v", err)
	}

	games, err := db.ListPublicGames()
	if err != nil {
		return err
	}

	response := protocol.GameListPayload{Games: h.buildGameList(client.PlayerID, games)}
	respMsg, _ := protocol.NewMessage(protocol.TypeGameList, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// handleYourGames returns games the player is participating in.
func (h *Handlers) handleYourGames(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	games, err := h.hub.server.db.GetPlayerGames(client.PlayerID)
	if err != nil {
		return err
	}

	response := protocol.YourGamesPayload{Games: h.buildGameList(client.PlayerID, games)}
	respMsg, _ := protocol.NewMessage(protocol.TypeYourGames, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// buildGameList converts game rows into list items, resolving host
// names and whose turn it is.
func (h *Handlers) buildGameList(playerID string, games []*database.GameInfo) []protocol.GameListItem {
	db := h.hub.server.db

	items := make([]protocol.GameListItem, len(games))
	for i, g := range games {
		item := protocol.GameListItem{
			GameID:      g.ID,
			Name:        g.Name,
			JoinCode:    g.JoinCode,
			Status:      string(g.Status),
			ScenarioID:  g.ScenarioID,
			PlayerCount: g.PlayerCount,
			CreatedAt:   g.CreatedAt.Unix(),
		}

		if host, err := db.GetPlayerByID(g.HostPlayerID); err == nil {
			item.HostName = host.Name
		}

		if playerID != "" && g.Status == database.GameStatusStarted {
			h.hub.server.viewGame(g.ID, func(state *game.GameState) error {
				item.YourTurn = state.PlayerFor(state.Turn) == playerID
				return nil
			})
		}

		items[i] = item
	}
	return items
}

// sendLobbyState sends the current lobby state to one client.
func (h *Handlers) sendLobbyState(client *Client, gameID string) {
	if msg := h.lobbyStateMessage(gameID); msg != nil {
		client.Send(msg)
	}
}

// broadcastLobbyState sends lobby state to all clients in a game.
func (h *Handlers) broadcastLobbyState(gameID string) {
	h.hub.mu.RLock()
	clients := h.hub.gameClients[gameID]
	h.hub.mu.RUnlock()

	msg := h.lobbyStateMessage(gameID)
	if msg == nil {
		return
	}
	for client := range clients {
		client.Send(msg)
	}
}

// lobbyStateMessage assembles the lobby_state message for a game.
func (h *Handlers) lobbyStateMessage(gameID string) *protocol.Message {
	db := h.hub.server.db

	gameRec, err := db.GetGame(gameID)
	if err != nil {
		return nil
	}
	players, err := db.GetGamePlayers(gameID)
	if err != nil {
		return nil
	}

	lobbyPlayers := make([]protocol.LobbyPlayer, len(players))
	for i, p := range players {
		lobbyPlayers[i] = protocol.LobbyPlayer{
			PlayerID:    p.PlayerID,
			Name:        p.PlayerName,
			Side:        game.Side(p.Side).String(),
			Ready:       p.IsReady,
			IsConnected: p.IsConnected,
		}
	}

	scenarioName := h.scenarioName(gameRec.ScenarioID)
	if scenarioName == "" {
		// Generated scenarios live only in the game's snapshot
		if doc, err := scenario.LoadFromJSON([]byte(gameRec.ScenarioJSON)); err == nil {
			scenarioName = doc.Name
		}
	}

	payload := protocol.LobbyStatePayload{
		GameID:       gameRec.ID,
		Name:         gameRec.Name,
		JoinCode:     gameRec.JoinCode,
		IsPublic:     gameRec.IsPublic,
		HostPlayerID: gameRec.HostPlayerID,
		ScenarioID:   gameRec.ScenarioID,
		ScenarioName: scenarioName,
		Players:      lobbyPlayers,
	}

	msg, _ := protocol.NewMessage(protocol.TypeLobbyState, payload)
	return msg
}

// scenarioName resolves a scenario's display name, best effort.
func (h *Handlers) scenarioName(id string) string {
	if doc := scenario.Get(id); doc != nil {
		return doc.Name
	}
	if rec, err := h.hub.server.db.GetScenario(id); err == nil {
		return rec.Name
	}
	return ""
}

// ==================== Game Actions ====================

// handleMoveRange answers with the hexes a unit can reach this turn.
func (h *Handlers) handleMoveRange(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	var payload protocol.MoveRangePayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	var hexes []protocol.MoveRangeHex
	err := h.hub.server.viewGame(client.GameID, func(state *game.GameState) error {
		rng, err := state.MovementRangeFor(payload.UnitID)
		if err != nil {
			return err
		}
		hexes = rangeHexes(rng)
		return nil
	})
	if err != nil {
		return err
	}

	response := protocol.MoveRangeResultPayload{
		UnitID: payload.UnitID,
		Hexes:  hexes,
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeMoveRangeResult, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// rangeHexes flattens a movement range into sorted wire form.
func rangeHexes(rng game.MovementRange) []protocol.MoveRangeHex {
	hexes := make([]protocol.MoveRangeHex, 0, len(rng))
	for c, cost := range rng {
		hexes = append(hexes, protocol.MoveRangeHex{Col: c.Col, Row: c.Row, Cost: cost})
	}
	sort.Slice(hexes, func(i, j int) bool {
		if hexes[i].Col != hexes[j].Col {
			return hexes[i].Col < hexes[j].Col
		}
		return hexes[i].Row < hexes[j].Row
	})
	return hexes
}

// handleMoveUnit executes a move and tells both players.
func (h *Handlers) handleMoveUnit(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	var payload protocol.MoveUnitPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	gameID := client.GameID
	dest := hexgrid.Coord{Col: payload.Col, Row: payload.Row}

	var moved protocol.UnitMovedPayload
	err := h.hub.server.withGame(gameID, func(state *game.GameState) error {
		side, ok := state.SideOf(client.PlayerID)
		if !ok {
			return errNotInThisGame
		}

		u, ok := state.Units[payload.UnitID]
		if !ok {
			return game.ErrUnitNotFound
		}
		from := u.Coord

		if err := state.MoveUnit(side, payload.UnitID, dest); err != nil {
			return err
		}

		moved = protocol.UnitMovedPayload{
			GameID:   gameID,
			PlayerID: client.PlayerID,
			UnitID:   payload.UnitID,
			FromCol:  from.Col,
			FromRow:  from.Row,
			ToCol:    dest.Col,
			ToRow:    dest.Row,
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.logAction(gameID, client.PlayerID, database.ActionMoveUnit, msg.Payload, moved)

	h.hub.notifyGamePlayers(gameID, protocol.TypeUnitMoved, moved)
	h.broadcastGameState(gameID)

	return nil
}

// handleEndTurn passes the turn to the opponent.
func (h *Handlers) handleEndTurn(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	gameID := client.GameID
	var turn protocol.TurnChangedPayload
	var over *protocol.GameOverPayload
	var nextPlayerID string

	err := h.hub.server.withGame(gameID, func(state *game.GameState) error {
		side, ok := state.SideOf(client.PlayerID)
		if !ok {
			return errNotInThisGame
		}
		if err := state.EndTurn(side); err != nil {
			return err
		}

		turn = protocol.TurnChangedPayload{
			GameID: gameID,
			Turn:   state.Turn.String(),
			Round:  state.Round,
		}
		nextPlayerID = state.PlayerFor(state.Turn)
		if state.IsGameOver() {
			over = gameOverPayload(gameID, state)
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.logAction(gameID, client.PlayerID, database.ActionEndTurn, msg.Payload, turn)

	h.hub.notifyGamePlayers(gameID, protocol.TypeTurnChanged, turn)
	h.broadcastGameState(gameID)

	// Poke the opponent directly if they are connected but browsing
	// elsewhere, so asynchronous games keep moving.
	if c := h.hub.playerClient(nextPlayerID); c != nil && c.GameID != gameID {
		h.hub.sendToPlayer(nextPlayerID, protocol.TypeTurnChanged, turn)
	}

	if over != nil {
		h.finishGame(gameID, client.PlayerID, over)
	}

	return nil
}

// handleForfeit concedes the game to the opponent.
func (h *Handlers) handleForfeit(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	gameID := client.GameID
	var over *protocol.GameOverPayload

	err := h.hub.server.withGame(gameID, func(state *game.GameState) error {
		side, ok := state.SideOf(client.PlayerID)
		if !ok {
			return errNotInThisGame
		}
		if state.IsGameOver() {
			return game.ErrGameOver
		}
		state.Forfeit(side)
		over = gameOverPayload(gameID, state)
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Player %s forfeited game %s", client.Name, gameID)

	h.logAction(gameID, client.PlayerID, database.ActionForfeit, msg.Payload, nil)
	h.broadcastGameState(gameID)
	h.finishGame(gameID, client.PlayerID, over)

	return nil
}

// handleGetGameLog returns the action log, optionally after a known ID.
func (h *Handlers) handleGetGameLog(client *Client, msg *protocol.Message) error {
	if client.GameID == "" {
		return errNotInGame
	}

	var payload protocol.GetGameLogPayload
	if len(msg.Payload) > 0 {
		if err := msg.ParsePayload(&payload); err != nil {
			return err
		}
	}

	db := h.hub.server.db
	var records []*database.ActionRecord
	var err error
	if payload.SinceID > 0 {
		records, err = db.GetGameActionsSince(client.GameID, payload.SinceID)
	} else {
		records, err = db.GetGameActions(client.GameID)
	}
	if err != nil {
		return err
	}

	entries := make([]protocol.GameLogEntry, len(records))
	for i, rec := range records {
		entries[i] = protocol.GameLogEntry{
			ID:         rec.ID,
			PlayerID:   rec.PlayerID,
			ActionType: rec.ActionType,
			Action:     json.RawMessage(rec.ActionJSON),
			Timestamp:  rec.CreatedAt.UnixMilli(),
		}
	}

	response := protocol.GameLogPayload{GameID: client.GameID, Entries: entries}
	respMsg, _ := protocol.NewMessage(protocol.TypeGameLog, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// logAction records an action and its result in the game log.
func (h *Handlers) logAction(gameID, playerID, actionType string, action json.RawMessage, result interface{}) {
	actionJSON := string(action)
	if actionJSON == "" {
		actionJSON = "{}"
	}

	resultJSON := ""
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			resultJSON = string(data)
		}
	}

	if err := h.hub.server.db.LogAction(gameID, playerID, actionType, actionJSON, resultJSON); err != nil {
		log.Printf("Failed to log %s action for game %s: %v", actionType, gameID, err)
	}
}

// ==================== Scenarios ====================

// handleListScenarios lists built-in and player-authored scenarios.
func (h *Handlers) handleListScenarios(client *Client, msg *protocol.Message) error {
	items, err := h.hub.server.scenarioList()
	if err != nil {
		return err
	}

	respMsg, _ := protocol.NewMessage(protocol.TypeScenarioList, protocol.ScenarioListPayload{Scenarios: items})
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// scenarioList returns built-in scenarios followed by stored ones.
func (s *Server) scenarioList() ([]protocol.ScenarioListItem, error) {
	var items []protocol.ScenarioListItem

	builtins := scenario.List()
	sort.Slice(builtins, func(i, j int) bool { return builtins[i].ID < builtins[j].ID })
	for _, info := range builtins {
		items = append(items, protocol.ScenarioListItem{
			ScenarioID: info.ID,
			Name:       info.Name,
			Width:      info.Width,
			Height:     info.Height,
			BuiltIn:    true,
		})
	}

	stored, err := s.db.ListScenarios()
	if err != nil {
		return nil, err
	}
	for _, rec := range stored {
		item := protocol.ScenarioListItem{
			ScenarioID: rec.ID,
			Name:       rec.Name,
			Width:      rec.Width,
			Height:     rec.Height,
		}
		if author, err := s.db.GetPlayerByID(rec.AuthorID); err == nil {
			item.Author = author.Name
		}
		items = append(items, item)
	}

	return items, nil
}

// handleGetScenario returns a full scenario document.
func (h *Handlers) handleGetScenario(client *Client, msg *protocol.Message) error {
	var payload protocol.GetScenarioPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	var raw json.RawMessage
	if doc := scenario.Get(payload.ScenarioID); doc != nil {
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		raw = data
	} else {
		rec, err := h.hub.server.db.GetScenario(payload.ScenarioID)
		if err != nil {
			return err
		}
		raw = json.RawMessage(rec.DataJSON)
	}

	response := protocol.ScenarioDataPayload{
		ScenarioID: payload.ScenarioID,
		Scenario:   raw,
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeScenarioData, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// handleSaveScenario validates and stores a player-authored scenario.
func (h *Handlers) handleSaveScenario(client *Client, msg *protocol.Message) error {
	if client.PlayerID == "" {
		return errNotAuthenticated
	}

	var payload protocol.SaveScenarioPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	doc, err := scenario.LoadFromJSON(payload.Scenario)
	if err != nil {
		return err
	}

	if scenario.Get(doc.ID) != nil {
		return errScenarioReserved
	}

	db := h.hub.server.db

	// Saving over someone else's scenario is not allowed
	if existing, err := db.GetScenario(doc.ID); err == nil && existing.AuthorID != client.PlayerID {
		return errScenarioOwned
	}

	if err := db.SaveScenario(doc.ID, doc.Name, client.PlayerID, doc.Width, doc.Height, string(payload.Scenario)); err != nil {
		return err
	}

	log.Printf("Scenario %s saved by %s", doc.ID, client.Name)

	respMsg, _ := protocol.NewMessage(protocol.TypeScenarioSaved, protocol.ScenarioSavedPayload{ScenarioID: doc.ID})
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// handleGenerateScenario generates a scenario for preview. Nothing is
// persisted; creating a game from it snapshots the document.
func (h *Handlers) handleGenerateScenario(client *Client, msg *protocol.Message) error {
	var payload protocol.GenerateScenarioPayload
	if err := msg.ParsePayload(&payload); err != nil {
		return err
	}

	doc := scenario.NewGenerator(generatorOptions(payload.Settings)).Generate()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	response := protocol.ScenarioDataPayload{
		ScenarioID: doc.ID,
		Scenario:   data,
	}
	respMsg, _ := protocol.NewMessage(protocol.TypeScenarioData, response)
	respMsg.ID = msg.ID
	client.Send(respMsg)

	return nil
}

// ==================== System ====================

// handlePing answers keepalive probes.
func (h *Handlers) handlePing(client *Client, msg *protocol.Message) error {
	respMsg, _ := protocol.NewMessage(protocol.TypePong, struct{}{})
	respMsg.ID = msg.ID
	client.Send(respMsg)
	return nil
}

// ==================== Shared ====================

// broadcastGameState sends the current game state to everyone in the game.
func (h *Handlers) broadcastGameState(gameID string) {
	err := h.hub.server.viewGame(gameID, func(state *game.GameState) error {
		h.hub.notifyGamePlayers(gameID, protocol.TypeGameState, protocol.GameStatePayload{
			GameID: gameID,
			State:  state,
		})
		return nil
	})
	if err != nil {
		log.Printf("Failed to broadcast game state for %s: %v", gameID, err)
	}
}

// gameOverPayload builds the game_over notification from a finished state.
func gameOverPayload(gameID string, state *game.GameState) *protocol.GameOverPayload {
	return &protocol.GameOverPayload{
		GameID:     gameID,
		WinnerSide: state.Winner.String(),
		WinnerID:   state.PlayerFor(state.Winner),
		Reason:     state.WinReason,
	}
}

// finishGame marks the game finished and tells both players.
func (h *Handlers) finishGame(gameID, playerID string, over *protocol.GameOverPayload) {
	if err := h.hub.server.db.EndGame(gameID); err != nil {
		log.Printf("Failed to finish game %s: %v", gameID, err)
	}

	h.logAction(gameID, playerID, database.ActionGameOver, nil, over)
	h.hub.notifyGamePlayers(gameID, protocol.TypeGameOver, over)

	// Players not watching the game still learn it ended
	if over.WinnerID != "" {
		if c := h.hub.playerClient(over.WinnerID); c != nil && c.GameID != gameID {
			h.hub.sendToPlayer(over.WinnerID, protocol.TypeGameOver, over)
		}
	}

	h.hub.server.dropGame(gameID)
}

// sendError sends an error response with a code the client can act on.
func (h *Handlers) sendError(client *Client, msgID string, err error) {
	payload := protocol.ErrorPayload{
		Code:    errorCode(err),
		Message: err.Error(),
	}
	msg, _ := protocol.NewMessage(protocol.TypeError, payload)
	msg.ID = msgID
	client.Send(msg)
}

// errorCode maps rule and storage errors onto protocol error codes.
func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, errNotAuthenticated):
		return protocol.ErrCodeNotAuthenticated
	case errors.Is(err, game.ErrNotYourTurn):
		return protocol.ErrCodeNotYourTurn
	case errors.Is(err, game.ErrNotYourUnit):
		return protocol.ErrCodeNotYourUnit
	case errors.Is(err, game.ErrUnitExhausted):
		return protocol.ErrCodeUnitExhausted
	case errors.Is(err, game.ErrCannotReach):
		return protocol.ErrCodeCannotReach
	case errors.Is(err, game.ErrUnitNotFound):
		return protocol.ErrCodeUnitNotFound
	case errors.Is(err, game.ErrGameOver):
		return protocol.ErrCodeGameOver
	case errors.Is(err, database.ErrGameNotFound), errors.Is(err, database.ErrJoinCodeNotFound):
		return protocol.ErrCodeGameNotFound
	case errors.Is(err, database.ErrGameFull):
		return protocol.ErrCodeGameFull
	case errors.Is(err, database.ErrScenarioNotFound):
		return protocol.ErrCodeScenarioNotFound
	case errors.Is(err, errNotInGame), errors.Is(err, errNotInThisGame),
		errors.Is(err, errGameNotStarted), errors.Is(err, errNotHost),
		errors.Is(err, errGameInProgress), errors.Is(err, errNeedTwoPlayers),
		errors.Is(err, errPlayersNotReady), errors.Is(err, errScenarioReserved),
		errors.Is(err, errScenarioOwned), errors.Is(err, database.ErrGameStarted),
		errors.Is(err, database.ErrAlreadyInGame):
		return protocol.ErrCodeInvalidAction
	default:
		return protocol.ErrCodeInternalError
	}
}
