// Package server implements the Hexfront game server: a WebSocket hub
// for lobby and game traffic, backed by SQLite persistence.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hexfront/internal/config"
	"hexfront/internal/database"
	"hexfront/internal/game"
	"hexfront/internal/protocol"
)

const serverVersion = "0.1.0"

// Server is the main game server.
type Server struct {
	cfg      *config.Config
	db       *database.DB
	hub      *Hub
	upgrader websocket.Upgrader
	addr     string
	server   *http.Server

	// Live game states, keyed by game ID. Each entry has its own lock
	// so actions on the same game never interleave between the rules
	// check and the snapshot write.
	gamesMu sync.Mutex
	games   map[string]*liveGame
}

// liveGame is one cached game state with its access lock.
type liveGame struct {
	mu    sync.Mutex
	state *game.GameState
}

// New creates a new server.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Server{
		cfg:   cfg,
		db:    db,
		addr:  cfg.Addr(),
		games: make(map[string]*liveGame),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}

	s.hub = NewHub(s)

	return s, nil
}

// Start starts the server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Read-only HTTP endpoints, usable without a socket
	mux.HandleFunc("/api/games", s.handleListGames)
	mux.HandleFunc("/api/scenarios", s.handleListScenarios)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	log.Printf("Hexfront server %s listening on %s", serverVersion, s.addr)
	log.Printf("  database: %s", s.cfg.Database.Path)
	log.Printf("  websocket endpoint: /ws")

	// Start the hub
	go s.hub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.Register(client)

	// Start client goroutines
	go client.WritePump()
	go client.ReadPump()
}

// handleListGames returns the public games waiting for an opponent.
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	games, err := s.db.ListPublicGames()
	if err != nil {
		http.Error(w, "Failed to list games", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(games)
}

// handleListScenarios returns all available scenarios, built-in and stored.
func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := s.scenarioList()
	if err != nil {
		http.Error(w, "Failed to list scenarios", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// ==================== Live Game Cache ====================

// loadGame returns the cached entry for a game, loading the persisted
// snapshot on first access. The registry lock is held across the load
// so concurrent callers share one entry.
func (s *Server) loadGame(gameID string) (*liveGame, error) {
	s.gamesMu.Lock()
	defer s.gamesMu.Unlock()

	if lg, ok := s.games[gameID]; ok {
		return lg, nil
	}

	stateJSON, err := s.db.GetGameState(gameID)
	if err != nil {
		return nil, err
	}
	if stateJSON == "" {
		return nil, errGameNotStarted
	}

	var state game.GameState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("corrupt game state for %s: %w", gameID, err)
	}

	lg := &liveGame{state: &state}
	s.games[gameID] = lg
	return lg, nil
}

// withGame runs fn with exclusive access to a game's state and
// persists the state when fn succeeds.
func (s *Server) withGame(gameID string, fn func(*game.GameState) error) error {
	lg, err := s.loadGame(gameID)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	if err := fn(lg.state); err != nil {
		return err
	}
	return s.persistGame(lg.state)
}

// viewGame runs fn with access to a game's state without persisting.
func (s *Server) viewGame(gameID string, fn func(*game.GameState) error) error {
	lg, err := s.loadGame(gameID)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()
	return fn(lg.state)
}

// installGame caches a freshly started game and persists its initial
// snapshot.
func (s *Server) installGame(state *game.GameState) error {
	s.gamesMu.Lock()
	s.games[state.ID] = &liveGame{state: state}
	s.gamesMu.Unlock()

	return s.persistGame(state)
}

// dropGame evicts a game from the cache. The persisted snapshot stays.
func (s *Server) dropGame(gameID string) {
	s.gamesMu.Lock()
	delete(s.games, gameID)
	s.gamesMu.Unlock()
}

// persistGame snapshots a game state to the database.
func (s *Server) persistGame(state *game.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.SaveGameState(state.ID, string(data), state.Turn.String(), state.Round)
}

// ==================== Hub ====================

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	server *Server

	// Registered clients
	clients map[*Client]bool

	// Clients by player ID
	playerClients map[string]*Client

	// Clients in each game
	gameClients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Inbound messages from clients
	inbound chan *ClientMessage

	mu sync.RWMutex
}

// ClientMessage wraps a message with its source client.
type ClientMessage struct {
	Client  *Client
	Message *protocol.Message
}

// NewHub creates a new Hub.
func NewHub(server *Server) *Hub {
	return &Hub{
		server:        server,
		clients:       make(map[*Client]bool),
		playerClients: make(map[string]*Client),
		gameClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		inbound:       make(chan *ClientMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			h.sendWelcome(client)

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case msg := <-h.inbound:
			// Handle messages in a goroutine to avoid blocking the hub
			go h.handleMessage(msg)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Receive queues an inbound message from a client.
func (h *Hub) Receive(client *Client, msg *protocol.Message) {
	h.inbound <- &ClientMessage{Client: client, Message: msg}
}

// sendWelcome sends a welcome message to a new client.
func (h *Hub) sendWelcome(client *Client) {
	payload := protocol.WelcomePayload{
		ServerVersion: serverVersion,
	}
	msg, _ := protocol.NewMessage(protocol.TypeWelcome, payload)
	client.Send(msg)
}

// handleDisconnect handles a client disconnecting. It runs on the hub
// goroutine: the maps are mutated under the lock, the opponent notify
// runs on its own goroutine (a Send that drops a slow client re-enters
// Unregister, which the hub must be free to receive), and the client is
// torn down by closing its connection so both pumps exit. The send
// channel is never closed; a racing broadcast lands in the buffer of a
// dead client instead of panicking.
func (h *Hub) handleDisconnect(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client)

	gameID := ""
	if client.PlayerID != "" {
		delete(h.playerClients, client.PlayerID)

		if client.GameID != "" {
			gameID = client.GameID
			if gameClients, ok := h.gameClients[gameID]; ok {
				delete(gameClients, client)
			}
		}
	}
	h.mu.Unlock()

	if gameID != "" {
		h.server.db.SetPlayerConnected(gameID, client.PlayerID, false)

		// Notify the opponent
		go h.notifyGamePlayers(gameID, protocol.TypeDisconnect, protocol.DisconnectPayload{
			PlayerID: client.PlayerID,
			Reason:   "disconnected",
		})
	}

	if client.conn != nil {
		client.conn.Close()
	}
}

// handleMessage routes incoming messages.
func (h *Hub) handleMessage(cm *ClientMessage) {
	handlers := NewHandlers(h)
	handlers.Handle(cm.Client, cm.Message)
}

// notifyGamePlayers sends a message to all clients in a game.
func (h *Hub) notifyGamePlayers(gameID string, msgType protocol.MessageType, payload interface{}) {
	h.mu.RLock()
	clients := h.gameClients[gameID]
	h.mu.RUnlock()

	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return
	}

	for client := range clients {
		client.Send(msg)
	}
}

// sendToPlayer sends a message to a specific player.
func (h *Hub) sendToPlayer(playerID string, msgType protocol.MessageType, payload interface{}) {
	h.mu.RLock()
	client := h.playerClients[playerID]
	h.mu.RUnlock()

	if client == nil {
		return
	}

	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return
	}

	client.Send(msg)
}

// playerClient returns the connected client for a player, if any.
func (h *Hub) playerClient(playerID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.playerClients[playerID]
}

// AddClientToGame adds a client to a game's client list.
func (h *Hub) AddClientToGame(client *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gameClients[gameID] == nil {
		h.gameClients[gameID] = make(map[*Client]bool)
	}
	h.gameClients[gameID][client] = true
	client.GameID = gameID
}

// RemoveClientFromGame removes a client from a game.
func (h *Hub) RemoveClientFromGame(client *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.gameClients[gameID]; ok {
		delete(clients, client)
	}
	if client.GameID == gameID {
		client.GameID = ""
	}
}

// SetClientPlayer associates a client with a player ID.
func (h *Hub) SetClientPlayer(client *Client, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.PlayerID = playerID
	h.playerClients[playerID] = client
}

// ==================== Client ====================

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan *protocol.Message

	PlayerID string
	GameID   string
	Name     string
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Scenario uploads are the largest inbound messages; a full-size
	// board runs to about a megabyte of JSON.
	maxMessageSize = 2 << 20
)

// NewClient creates a new client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan *protocol.Message, 256),
	}
}

// Send queues a message to be sent to the client.
func (c *Client) Send(msg *protocol.Message) {
	select {
	case c.send <- msg:
	default:
		// Channel full, client too slow
		c.hub.Unregister(c)
	}
}

// ReadPump pumps messages from the WebSocket to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid message: %v", err)
			continue
		}

		c.hub.Receive(c, &msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
