package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/arena-backend/internal/arena"
	"github.com/DoyleJ11/arena-backend/internal/engine"
	"github.com/DoyleJ11/arena-backend/internal/hub"
	"github.com/DoyleJ11/arena-backend/internal/types"
	pkgtypes "github.com/DoyleJ11/arena-backend/pkg/types"
)

type Options struct {
	Logger         *zap.Logger
	OriginPatterns []string
	OutboxSize     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	return o
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("arena")
		if code == "" {
			code = hub.DefaultArena
		}
		codec, err := types.CodecFor(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		reply := make(chan *arena.Arena, 1)
		if !h.Send(hub.GetArena{Code: code, Reply: reply}) {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		a := <-reply
		if a == nil {
			http.Error(w, "arena not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := opts.Logger.With(zap.String("client", clientID), zap.String("arena", code), zap.String("codec", codec.Name()))

		out := make(chan types.ServerMessage, opts.OutboxSize)
		if !a.Send(arena.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusTryAgainLater, "arena closed")
			return
		}
		defer a.Send(arena.Leave{ClientID: clientID})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go writeLoop(ctx, cancel, conn, codec, out, a.Done(), opts, log)
		go pingLoop(ctx, cancel, conn, opts, log)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed")
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read failed", zap.Error(err))
					}
				}
				return
			}

			var cm types.ClientMessage
			if err := codec.Decode(data, &cm); err != nil {
				writeError(ctx, conn, codec, "bad message", opts)
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				writeError(ctx, conn, codec, "unknown type", opts)
				continue
			}

			if !a.Send(arena.FromClient{ClientID: clientID, Cmd: cmd}) {
				return
			}
		}
	}
}

// writeLoop drains the outbox until the arena closes it or the connection dies.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, codec types.Codec,
	out <-chan types.ServerMessage, arenaDone <-chan struct{}, opts Options, log *zap.Logger) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-arenaDone:
			conn.Close(websocket.StatusGoingAway, "arena closed")
			return
		case msg, ok := <-out:
			if !ok {
				// Evicted, rejected or arena shut down.
				conn.Close(websocket.StatusPolicyViolation, "disconnected by server")
				return
			}
			payload, err := codec.Encode(msg)
			if err != nil {
				log.Error("encode failed", zap.String("type", msg.Type), zap.Error(err))
				continue
			}
			if err := write(ctx, conn, codec, payload, opts.WriteTimeout); err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}
		}
	}
}

func pingLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, opts Options, log *zap.Logger) {
	ticker := time.NewTicker(opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				log.Debug("ping failed", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, codec types.Codec, payload []byte, timeout time.Duration) error {
	typ := websocket.MessageText
	if codec.Binary() {
		typ = websocket.MessageBinary
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(wctx, typ, payload)
}

func writeError(ctx context.Context, conn *websocket.Conn, codec types.Codec, reason string, opts Options) {
	payload, err := codec.Encode(types.ServerMessage{Type: pkgtypes.MsgError, Payload: pkgtypes.Error{Error: reason}})
	if err != nil {
		return
	}
	_ = write(ctx, conn, codec, payload, opts.WriteTimeout)
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case pkgtypes.MsgPlayerMove:
		return engine.Command{Type: engine.CmdMove, X: m.X, Y: m.Y, Angle: m.Angle}, true
	case pkgtypes.MsgShoot:
		return engine.Command{Type: engine.CmdFire, X: m.X, Y: m.Y, VX: m.VX, VY: m.VY, Angle: m.Angle}, true
	default:
		return engine.Command{}, false
	}
}
