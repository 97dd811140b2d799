// Package timer runs the per-room turn countdowns. Countdowns do not touch
// game state themselves: each tick is delivered on Events for the owner's
// event loop to apply.
package timer

import (
	"context"
	"sync"
	"time"

	"kiatere/pkg/logger"
)

// TickerCreator builds the periodic source behind a countdown. The returned
// func releases it.
type TickerCreator interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type systemTickers struct{}

func (systemTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// SystemTickers is backed by time.NewTicker.
var SystemTickers TickerCreator = systemTickers{}

// Tick is one elapsed interval of a room's countdown. Gen identifies the
// countdown that produced it so ticks from a replaced countdown can be told
// apart.
type Tick struct {
	RoomCode string
	Gen      uint64
}

type countdown struct {
	gen  uint64
	stop chan struct{}
}

type Timers struct {
	interval time.Duration
	tickers  TickerCreator
	events   chan Tick

	mu      sync.Mutex
	gen     uint64
	running map[string]*countdown
}

func New(interval time.Duration, tickers TickerCreator) *Timers {
	if tickers == nil {
		tickers = SystemTickers
	}
	return &Timers{
		interval: interval,
		tickers:  tickers,
		events:   make(chan Tick),
		running:  make(map[string]*countdown),
	}
}

func (t *Timers) Events() <-chan Tick {
	return t.events
}

// Start replaces any countdown already running for roomCode.
func (t *Timers) Start(ctx context.Context, roomCode string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked(roomCode)

	t.gen++
	cd := &countdown{gen: t.gen, stop: make(chan struct{})}
	t.running[roomCode] = cd

	ch, release := t.tickers.Create(t.interval)
	go t.run(ctx, roomCode, cd, ch, release)

	logger.Debug("Timer %d started for room %s", cd.gen, roomCode)
	return cd.gen
}

func (t *Timers) Stop(roomCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked(roomCode)
}

// IsCurrent reports whether tick came from the countdown currently running
// for its room.
func (t *Timers) IsCurrent(tick Tick) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cd, ok := t.running[tick.RoomCode]
	return ok && cd.gen == tick.Gen
}

func (t *Timers) Running(roomCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[roomCode]
	return ok
}

// StopAll cancels every countdown.
func (t *Timers) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for code := range t.running {
		t.stopLocked(code)
	}
}

func (t *Timers) stopLocked(roomCode string) {
	cd, ok := t.running[roomCode]
	if !ok {
		return
	}
	close(cd.stop)
	delete(t.running, roomCode)
	logger.Debug("Timer %d stopped for room %s", cd.gen, roomCode)
}

func (t *Timers) run(ctx context.Context, roomCode string, cd *countdown, ch <-chan time.Time, release func()) {
	defer release()

	tick := Tick{RoomCode: roomCode, Gen: cd.gen}
	for {
		select {
		case <-cd.stop:
			return
		case <-ctx.Done():
			return
		case <-ch:
			select {
			case t.events <- tick:
			case <-cd.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
