package arena

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arena-backend/internal/engine"
	"github.com/DoyleJ11/arena-backend/internal/types"
	pkgtypes "github.com/DoyleJ11/arena-backend/pkg/types"
)

type Msg interface{ isArenaMsg() }

type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage // closed by the arena when the client is gone
}

func (Join) isArenaMsg() {}

type Leave struct{ ClientID string }

func (Leave) isArenaMsg() {}

// FromClient carries one decoded client command. Cmd.PlayerID is overwritten
// with ClientID so a client can only act for itself.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isArenaMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isArenaMsg() {}

type Shutdown struct{}

func (Shutdown) isArenaMsg() {}

// CloseIfEmpty stops the arena only if no client is attached once the
// message is processed. Joins queued ahead of it win.
type CloseIfEmpty struct {
	Reply chan bool
}

func (CloseIfEmpty) isArenaMsg() {}

// View is a copy of the arena state, safe to read outside the arena goroutine.
type View struct {
	Tick        uint64
	NumClients  int
	Players     []engine.Player
	Projectiles []engine.Projectile
}

const (
	DefaultTickRate   = 60
	DefaultMaxPlayers = 64
)

type Config struct {
	Code       string
	TickRate   int
	MaxPlayers int // 0 means unlimited
	Rules      engine.Rules
	Logger     *zap.Logger

	// NewTicker defaults to a time.Ticker. Tests swap in a manual one.
	NewTicker    func(time.Duration) Ticker
	WorldOptions []engine.Option

	// OnEmpty runs on the arena goroutine after the last client leaves, and
	// again every IdleTimeout while the arena stays empty.
	OnEmpty func(code string)
	// IdleTimeout is measured in ticks at TickRate. 0 disables idle reports.
	IdleTimeout time.Duration
}

type Arena struct {
	inbox   chan Msg
	world   *engine.World
	clients map[string]chan types.ServerMessage
	cfg     Config
	log     *zap.Logger
	players atomic.Int32

	idleTicks int
	idleLimit int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewArena(parent context.Context, cfg Config) *Arena {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if cfg.Rules == (engine.Rules{}) {
		cfg.Rules = engine.DefaultRules()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	a := &Arena{
		inbox:   make(chan Msg, 256),
		world:   engine.NewWorld(cfg.Rules, cfg.WorldOptions...),
		clients: make(map[string]chan types.ServerMessage),
		cfg:     cfg,
		log:     log.With(zap.String("arena", cfg.Code)),
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.IdleTimeout > 0 {
		a.idleLimit = max(int(cfg.IdleTimeout*time.Duration(cfg.TickRate)/time.Second), 1)
	}

	go a.loop()
	return a
}

func (a *Arena) loop() {
	ticker := a.cfg.NewTicker(time.Second / time.Duration(a.cfg.TickRate))
	defer ticker.Stop()

	a.log.Info("arena started", zap.Int("tick_rate", a.cfg.TickRate))

	for {
		select {
		case <-a.ctx.Done():
			a.shutdown()
			return

		case m := <-a.inbox:
			switch msg := m.(type) {
			case Join:
				a.join(msg)

			case Leave:
				a.removeClient(msg.ClientID, "left")

			case FromClient:
				cmd := msg.Cmd
				cmd.PlayerID = msg.ClientID
				events, err := a.world.Apply(cmd)
				if err != nil {
					// Stale or invalid input has nobody to report to.
					a.log.Debug("command dropped",
						zap.String("client", msg.ClientID),
						zap.String("cmd", string(cmd.Type)),
						zap.Error(err))
					break
				}
				a.publish(events)

			case GetState:
				msg.Reply <- a.view()

			case Shutdown:
				a.shutdown()
				return

			case CloseIfEmpty:
				if len(a.clients) > 0 {
					msg.Reply <- false
					break
				}
				msg.Reply <- true
				a.shutdown()
				return
			}

		case <-ticker.C():
			a.tick()
		}
	}
}

// tick runs one simulation step and publishes its outcome.
func (a *Arena) tick() {
	start := time.Now()
	a.publish(a.world.Step())
	a.broadcast(types.ServerMessage{Type: pkgtypes.MsgSwordsUpdate, Payload: projectilesPayload(a.world.Store())}, "")

	if budget := time.Second / time.Duration(a.cfg.TickRate); time.Since(start) > budget {
		a.log.Warn("tick over budget",
			zap.Uint64("tick", a.world.Tick),
			zap.Duration("took", time.Since(start)),
			zap.Int("projectiles", a.world.Store().NumProjectiles()))
	}

	a.checkIdle()
}

// checkIdle reports an arena that has had no clients for idleLimit ticks,
// including one nobody ever joined.
func (a *Arena) checkIdle() {
	if a.idleLimit == 0 || a.cfg.OnEmpty == nil {
		return
	}
	if len(a.clients) > 0 {
		a.idleTicks = 0
		return
	}
	a.idleTicks++
	if a.idleTicks >= a.idleLimit {
		a.idleTicks = 0
		a.log.Debug("arena idle")
		a.cfg.OnEmpty(a.cfg.Code)
	}
}

func (a *Arena) join(msg Join) {
	if _, dup := a.clients[msg.ClientID]; dup {
		a.reject(msg, "duplicate client id")
		return
	}
	if a.cfg.MaxPlayers > 0 && len(a.clients) >= a.cfg.MaxPlayers {
		a.reject(msg, "arena full")
		return
	}
	p, err := a.world.Join(msg.ClientID)
	if err != nil {
		a.reject(msg, err.Error())
		return
	}

	a.clients[msg.ClientID] = msg.Outbox
	a.players.Store(int32(len(a.clients)))
	a.log.Info("player joined",
		zap.String("client", p.ID),
		zap.String("team", string(p.Team)),
		zap.Int("players", len(a.clients)))

	a.send(msg.ClientID, types.ServerMessage{Type: pkgtypes.MsgCurrentPlayers, Payload: playersPayload(a.world.Store())})
	a.send(msg.ClientID, types.ServerMessage{Type: pkgtypes.MsgYouAre, Payload: youAre(p)})
	if _, ok := a.clients[msg.ClientID]; !ok {
		// Evicted while greeting; playerLeft already went out.
		return
	}
	a.broadcast(types.ServerMessage{Type: pkgtypes.MsgNewPlayer, Payload: playerState(p)}, msg.ClientID)
}

func (a *Arena) reject(msg Join, reason string) {
	a.log.Info("join rejected", zap.String("client", msg.ClientID), zap.String("reason", reason))
	select {
	case msg.Outbox <- errorMessage(reason):
	default:
	}
	close(msg.Outbox)
}

// removeClient tears the player down immediately, independent of the tick.
func (a *Arena) removeClient(id, reason string) {
	ch, ok := a.clients[id]
	if !ok {
		return
	}
	close(ch)
	delete(a.clients, id)
	a.world.Leave(id)
	a.players.Store(int32(len(a.clients)))
	a.log.Info("player removed",
		zap.String("client", id),
		zap.String("reason", reason),
		zap.Int("players", len(a.clients)))

	a.broadcast(types.ServerMessage{Type: pkgtypes.MsgPlayerLeft, Payload: id}, "")

	if len(a.clients) == 0 && a.cfg.OnEmpty != nil {
		a.cfg.OnEmpty(a.cfg.Code)
	}
}

func (a *Arena) shutdown() {
	for id, ch := range a.clients {
		close(ch) // Tell client no more messages
		delete(a.clients, id)
		a.world.Leave(id)
	}
	a.players.Store(0)
	a.cancel()
	a.log.Info("arena stopped")
}

func (a *Arena) view() View {
	v := View{
		Tick:       a.world.Tick,
		NumClients: len(a.clients),
	}
	for _, p := range a.world.Store().Players() {
		v.Players = append(v.Players, *p)
	}
	for _, pr := range a.world.Store().Projectiles() {
		v.Projectiles = append(v.Projectiles, *pr)
	}
	return v
}

// Inbox exposes the raw inbox for tests. Transport code should use Send.
func (a *Arena) Inbox() chan<- Msg { return a.inbox }

// Send delivers m unless the arena has stopped.
func (a *Arena) Send(m Msg) bool {
	if a.ctx.Err() != nil {
		return false
	}
	select {
	case a.inbox <- m:
		return true
	case <-a.ctx.Done():
		return false
	}
}

func (a *Arena) Code() string { return a.cfg.Code }

// NumPlayers may be called from any goroutine.
func (a *Arena) NumPlayers() int { return int(a.players.Load()) }

// CloseIfEmpty asks the arena to stop if it has no clients and reports
// whether it is stopped. A stopped arena counts as closed.
func (a *Arena) CloseIfEmpty() bool {
	reply := make(chan bool, 1)
	if !a.Send(CloseIfEmpty{Reply: reply}) {
		return true
	}
	select {
	case closed := <-reply:
		return closed
	case <-a.ctx.Done():
		return true
	}
}

// Stop cancels the arena without going through the inbox.
func (a *Arena) Stop() { a.cancel() }

func (a *Arena) Done() <-chan struct{} { return a.ctx.Done() }
