package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"kiatere/internal/models"
	"kiatere/internal/services"
	"kiatere/internal/timer"
	"kiatere/pkg/logger"
)

type Options struct {
	CleanupInterval time.Duration
	TickInterval    time.Duration
	MessageRate     float64
	MessageBurst    int
	MaxMessageSize  int64
	Tickers         timer.TickerCreator
}

func DefaultOptions() Options {
	return Options{
		CleanupInterval: 5 * time.Minute,
		TickInterval:    time.Second,
		MessageRate:     10,
		MessageBurst:    20,
		MaxMessageSize:  4096,
	}
}

type playerKey struct {
	roomCode   string
	playerName string
}

type inboundMessage struct {
	client    *Client
	data      []byte
	throttled bool
}

// Hub is the single event loop that owns every connection and applies
// player messages, disconnects and timer ticks one at a time.
type Hub struct {
	rooms  *services.RoomService
	timers *timer.Timers
	opts   Options
	ctx    context.Context

	clients     map[*Client]bool
	players     map[playerKey]*Client
	clientCount atomic.Int64

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	done       chan struct{}
}

func NewHub(rooms *services.RoomService, opts Options) *Hub {
	return &Hub{
		rooms:      rooms,
		timers:     timer.New(opts.TickInterval, opts.Tickers),
		opts:       opts,
		ctx:        context.Background(),
		clients:    make(map[*Client]bool),
		players:    make(map[playerKey]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	ticker := time.NewTicker(h.opts.CleanupInterval)
	defer func() {
		ticker.Stop()
		h.timers.StopAll()
		for c := range h.clients {
			c.closeSend()
		}
		close(h.done)
		logger.Info("Hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.clientCount.Add(1)
			logger.Debug("Client %s connected", c.connID)

		case c := <-h.unregister:
			h.handleDisconnect(c)

		case in := <-h.inbound:
			if in.throttled {
				h.sendError(in.client, ErrRateLimited)
				continue
			}
			h.handleMessage(in.client, in.data)

		case tick := <-h.timers.Events():
			h.handleTick(tick)

		case <-ticker.C:
			h.cleanup()
		}
	}
}

// Register hands a new connection to the hub. It reports false once the hub
// has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submit(in inboundMessage) bool {
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

func (h *Hub) handleDisconnect(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	h.clientCount.Add(-1)
	c.closeSend()
	h.detach(c)
	logger.Debug("Client %s disconnected", c.connID)
}

// detach unbinds c from its player. The player is marked disconnected only if
// c is still the connection on record for them.
func (h *Hub) detach(c *Client) {
	if !c.bound() {
		return
	}
	key := playerKey{c.roomCode, c.playerName}
	c.roomCode, c.playerName = "", ""

	if h.players[key] != c {
		return
	}
	delete(h.players, key)

	room, err := h.rooms.RemovePlayer(key.roomCode, key.playerName)
	if err != nil {
		return
	}
	logger.Info("Player %s disconnected from room %s", key.playerName, key.roomCode)
	h.broadcast(room, models.NewPlayerLeft(room), nil)
}

func (h *Hub) bind(c *Client, roomCode, playerName string) {
	if c.bound() && (c.roomCode != roomCode || c.playerName != playerName) {
		h.detach(c)
	}

	key := playerKey{roomCode, playerName}
	if old, ok := h.players[key]; ok && old != c {
		old.roomCode, old.playerName = "", ""
		h.sendError(old, ErrDisplaced)
		logger.Info("Player %s in room %s moved to connection %s", playerName, roomCode, c.connID)
	}

	h.players[key] = c
	c.roomCode, c.playerName = roomCode, playerName
}

func (h *Hub) handleMessage(c *Client, data []byte) {
	msg, err := models.DecodeClientMessage(data)
	if err != nil {
		logger.Debug("Rejected message from %s: %v", c.connID, err)
		h.sendError(c, err)
		return
	}

	switch m := msg.(type) {
	case models.CreateRoomMessage:
		err = h.createRoom(c, m)
	case models.JoinRoomMessage:
		err = h.joinRoom(c, m)
	case models.StartGameMessage:
		err = h.startGame(c, m)
	case models.SetDifficultyMessage:
		err = h.setDifficulty(c, m)
	case models.RefreshCategoryMessage:
		err = h.refreshCategory(c)
	case models.StartTurnMessage:
		err = h.startTurn(c)
	case models.EndTurnMessage:
		err = h.endTurn(c, m)
	case models.PlayerSelectedLetterMessage:
		err = h.previewLetter(c, m)
	case models.TimeUpMessage:
		err = h.timeUp(c)
	case models.LeaveRoomMessage:
		err = h.leaveRoom(c)
	}

	if err != nil {
		logger.Debug("%s from %s failed: %v", msg.Type(), c.connID, err)
		h.sendError(c, err)
	}
}

func (h *Hub) createRoom(c *Client, m models.CreateRoomMessage) error {
	room := h.rooms.CreateRoom(m.PlayerName)
	h.bind(c, room.RoomCode, m.PlayerName)
	h.sendTo(c, models.NewRoomCreated(room))
	return nil
}

func (h *Hub) joinRoom(c *Client, m models.JoinRoomMessage) error {
	room, err := h.rooms.JoinRoom(m.RoomCode, m.PlayerName)
	if err != nil {
		return err
	}
	// A repeated join from the already bound connection only resyncs it.
	rejoin := h.players[playerKey{room.RoomCode, m.PlayerName}] == c
	h.bind(c, room.RoomCode, m.PlayerName)

	logger.Info("Player %s joined room %s", m.PlayerName, room.RoomCode)
	h.sendTo(c, models.NewRoomJoined(room))
	if !rejoin {
		h.broadcast(room, models.NewPlayerJoined(room), nil)
	}
	if room.GameState.GameStarted {
		h.sendTo(c, models.NewGameStarted(room.GameState))
	}
	return nil
}

func (h *Hub) startGame(c *Client, m models.StartGameMessage) error {
	room, err := h.hostRoom(c)
	if err != nil {
		return err
	}
	if len(room.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	if room.GameState.RoundActive {
		return services.ErrGameInProgress
	}

	room, err = h.rooms.StartGame(room.RoomCode, m.Difficulty, m.TurnTime)
	if err != nil {
		return err
	}
	h.timers.Stop(room.RoomCode)
	h.broadcast(room, models.NewGameStarted(room.GameState), nil)
	return nil
}

func (h *Hub) setDifficulty(c *Client, m models.SetDifficultyMessage) error {
	room, err := h.hostRoom(c)
	if err != nil {
		return err
	}
	room, err = h.rooms.SetDifficulty(room.RoomCode, m.Difficulty)
	if err != nil {
		return err
	}
	h.broadcast(room, models.NewGameStateUpdate(room.GameState), nil)
	return nil
}

func (h *Hub) refreshCategory(c *Client) error {
	room, err := h.hostRoom(c)
	if err != nil {
		return err
	}
	room, err = h.rooms.RefreshCategory(room.RoomCode)
	if err != nil {
		return err
	}
	h.broadcast(room, models.NewGameStateUpdate(room.GameState), nil)
	return nil
}

func (h *Hub) startTurn(c *Client) error {
	room, err := h.currentPlayerRoom(c)
	if err != nil {
		return err
	}
	if room.GameState.IsTimerRunning {
		return services.ErrTimerAlreadyRunning
	}

	room, err = h.rooms.StartTurn(room.RoomCode)
	if err != nil {
		return err
	}
	h.timers.Start(h.ctx, room.RoomCode)
	h.broadcast(room, models.NewGameStateUpdate(room.GameState), nil)
	return nil
}

func (h *Hub) endTurn(c *Client, m models.EndTurnMessage) error {
	room, err := h.currentPlayerRoom(c)
	if err != nil {
		return err
	}
	if !room.GameState.IsTimerRunning {
		return services.ErrTimerNotRunning
	}

	res, err := h.rooms.EndTurn(room.RoomCode, m.SelectedLetter)
	if err != nil {
		return err
	}
	h.applyTurnResult(res)
	return nil
}

func (h *Hub) previewLetter(c *Client, m models.PlayerSelectedLetterMessage) error {
	room, err := h.currentPlayerRoom(c)
	if err != nil {
		return err
	}
	h.broadcast(room, models.NewLetterPreview(c.playerName, m.Letter), c)
	return nil
}

func (h *Hub) timeUp(c *Client) error {
	room, err := h.currentPlayerRoom(c)
	if err != nil {
		return err
	}
	if !room.GameState.IsTimerRunning {
		return services.ErrTimerNotRunning
	}
	h.expireTurn(room.RoomCode)
	return nil
}

func (h *Hub) leaveRoom(c *Client) error {
	if !c.bound() {
		return ErrNotInRoom
	}
	key := playerKey{c.roomCode, c.playerName}
	c.roomCode, c.playerName = "", ""
	if h.players[key] == c {
		delete(h.players, key)
	}

	res, err := h.rooms.LeaveRoom(key.roomCode, key.playerName)
	if err != nil {
		return err
	}
	logger.Info("Player %s left room %s", key.playerName, key.roomCode)

	if res.Deleted {
		h.timers.Stop(key.roomCode)
		return nil
	}
	if res.TurnInterrupted {
		h.timers.Stop(key.roomCode)
	}

	h.broadcast(res.Room, models.NewPlayerLeft(res.Room), nil)
	switch {
	case res.Turn != nil:
		h.applyTurnResult(res.Turn)
	case res.Room.GameState.GameStarted:
		h.broadcast(res.Room, models.NewGameStateUpdate(res.Room.GameState), nil)
	}
	return nil
}

func (h *Hub) handleTick(tick timer.Tick) {
	if !h.timers.IsCurrent(tick) {
		return
	}

	left, expired, err := h.rooms.Tick(tick.RoomCode)
	if err != nil {
		h.timers.Stop(tick.RoomCode)
		logger.Debug("Timer for room %s stopped: %v", tick.RoomCode, err)
		return
	}

	room, err := h.rooms.GetRoom(tick.RoomCode)
	if err != nil {
		h.timers.Stop(tick.RoomCode)
		return
	}
	h.broadcast(room, models.NewTimerUpdate(left), nil)

	if expired {
		h.expireTurn(tick.RoomCode)
	}
}

// expireTurn eliminates the current player of roomCode. It has no requester
// to report to, so failures are only logged.
func (h *Hub) expireTurn(roomCode string) {
	h.timers.Stop(roomCode)

	res, err := h.rooms.EliminatePlayer(roomCode)
	if err != nil {
		logger.Warn("Could not eliminate player in room %s: %v", roomCode, err)
		return
	}
	h.broadcast(res.Room, models.NewPlayerEliminated(res.Eliminated), nil)
	h.applyTurnResult(res)
}

func (h *Hub) applyTurnResult(res *services.TurnResult) {
	room := res.Room
	gs := room.GameState

	switch res.Type {
	case services.ResultContinue:
		if gs.IsTimerRunning {
			h.timers.Start(h.ctx, room.RoomCode)
		} else {
			h.timers.Stop(room.RoomCode)
		}
		h.broadcast(room, models.NewGameStateUpdate(gs), nil)
	case services.ResultOvertimeStart:
		h.timers.Stop(room.RoomCode)
		h.broadcast(room, models.NewOvertimeStart(gs), nil)
	case services.ResultRoundEnd:
		h.timers.Stop(room.RoomCode)
		h.broadcast(room, models.NewRoundEnd(gs, res.Winner), nil)
	case services.ResultGameEnd:
		h.timers.Stop(room.RoomCode)
		h.broadcast(room, models.NewGameEnd(gs, res.Winner), nil)
	}
}

func (h *Hub) cleanup() {
	removed := h.rooms.CleanupRooms()
	if len(removed) == 0 {
		return
	}

	gone := make(map[string]bool, len(removed))
	for _, code := range removed {
		gone[code] = true
		h.timers.Stop(code)
	}
	for key, c := range h.players {
		if gone[key.roomCode] {
			delete(h.players, key)
			c.roomCode, c.playerName = "", ""
		}
	}
	logger.Info("Cleanup removed %d rooms", len(removed))
}

func (h *Hub) boundRoom(c *Client) (*models.Room, error) {
	if !c.bound() {
		return nil, ErrNotInRoom
	}
	return h.rooms.GetRoom(c.roomCode)
}

func (h *Hub) hostRoom(c *Client) (*models.Room, error) {
	room, err := h.boundRoom(c)
	if err != nil {
		return nil, err
	}
	if room.Host != c.playerName {
		return nil, ErrNotHost
	}
	return room, nil
}

// currentPlayerRoom checks c's turn against the state at the moment of
// execution, so an action that arrives after the turn moved on is refused.
func (h *Hub) currentPlayerRoom(c *Client) (*models.Room, error) {
	room, err := h.boundRoom(c)
	if err != nil {
		return nil, err
	}
	if !room.GameState.RoundActive {
		return nil, services.ErrRoundNotActive
	}
	if cur, ok := room.GameState.CurrentPlayer(); !ok || cur != c.playerName {
		return nil, ErrNotYourTurn
	}
	return room, nil
}

// broadcast sends msg to every connected member of room except skip.
func (h *Hub) broadcast(room *models.Room, msg any, skip *Client) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Error marshaling broadcast for room %s: %v", room.RoomCode, err)
		return
	}
	for _, name := range room.ConnectedPlayers {
		c, ok := h.players[playerKey{room.RoomCode, name}]
		if !ok || c == skip {
			continue
		}
		c.deliver(data)
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Error marshaling message for %s: %v", c.connID, err)
		return
	}
	c.deliver(data)
}

func (h *Hub) sendError(c *Client, err error) {
	h.sendTo(c, models.NewError(err.Error()))
}
