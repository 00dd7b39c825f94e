package hub

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arena-backend/internal/arena"
)

// DefaultArena always exists and is never removed.
const DefaultArena = "main"

type HubMsg interface{ isHubMsg() }

// CreateArena replies with nil when the hub is at its arena limit.
type CreateArena struct {
	Code  string
	Reply chan *arena.Arena
}

type GetArena struct {
	Code  string
	Reply chan *arena.Arena
}

type RemoveArena struct {
	Code string
}

type ListArenas struct {
	Reply chan []ArenaInfo
}

type ShutdownHub struct{}

func (CreateArena) isHubMsg() {}
func (GetArena) isHubMsg()    {}
func (RemoveArena) isHubMsg() {}
func (ListArenas) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type ArenaInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

type Option func(*Hub)

// WithMaxArenas caps live arenas, the default one included. 0 means unlimited.
func WithMaxArenas(n int) Option {
	return func(h *Hub) { h.maxArenas = n }
}

type Hub struct {
	inbox     chan HubMsg
	arenas    map[string]*arena.Arena
	template  arena.Config
	maxArenas int
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewHub starts the hub and its default arena. Every arena is built from
// template with only the code changed.
func NewHub(parent context.Context, template arena.Config, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := template.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		arenas:   make(map[string]*arena.Arena),
		template: template,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.arenas[DefaultArena] = h.newArena(DefaultArena)
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers m unless the hub has stopped.
func (h *Hub) Send(m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) newArena(code string) *arena.Arena {
	cfg := h.template
	cfg.Code = code
	if code != DefaultArena {
		cfg.OnEmpty = func(c string) {
			// Runs on the arena goroutine; never block it on the hub.
			select {
			case h.inbox <- RemoveArena{Code: c}:
			default:
				h.log.Warn("hub inbox full, empty arena kept", zap.String("arena", c))
			}
		}
	}
	return arena.NewArena(h.ctx, cfg)
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			clear(h.arenas)
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateArena:
				if a := h.arenas[msg.Code]; a != nil {
					msg.Reply <- a
					break
				}
				if h.maxArenas > 0 && len(h.arenas) >= h.maxArenas {
					h.log.Warn("arena limit reached", zap.Int("arenas", len(h.arenas)))
					msg.Reply <- nil
					break
				}
				a := h.newArena(msg.Code)
				h.arenas[msg.Code] = a
				h.log.Info("arena created", zap.String("arena", msg.Code))
				msg.Reply <- a

			case GetArena:
				msg.Reply <- h.arenas[msg.Code] // May be nil

			case RemoveArena:
				a := h.arenas[msg.Code]
				if a == nil || msg.Code == DefaultArena {
					break
				}
				// The arena decides on its own goroutine, so a Join already
				// queued in its inbox keeps it alive.
				if !a.CloseIfEmpty() {
					break
				}
				delete(h.arenas, msg.Code)
				h.log.Info("arena removed", zap.String("arena", msg.Code))

			case ListArenas:
				out := make([]ArenaInfo, 0, len(h.arenas))
				for code, a := range h.arenas {
					out = append(out, ArenaInfo{Code: code, Players: a.NumPlayers()})
				}
				sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
				msg.Reply <- out

			case ShutdownHub:
				for _, a := range h.arenas {
					a.Stop()
				}
				clear(h.arenas)
				h.cancel()
				return
			}
		}
	}
}
