package arena

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/arena-backend/internal/engine"
	"github.com/DoyleJ11/arena-backend/internal/types"
	pkgtypes "github.com/DoyleJ11/arena-backend/pkg/types"
)

// publish turns engine events into client notices.
func (a *Arena) publish(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPlayerMoved:
			a.broadcast(types.ServerMessage{Type: pkgtypes.MsgPlayerMoved, Payload: pkgtypes.PlayerMoved{
				ID: ev.PlayerID, X: ev.X, Y: ev.Y, Angle: ev.Angle,
			}}, ev.PlayerID)

		case engine.EvtProjectileCreated:
			pr, ok := a.world.Store().Projectile(ev.ProjectileID)
			if !ok {
				break
			}
			a.broadcast(types.ServerMessage{Type: pkgtypes.MsgSwordShot, Payload: projectileState(pr)}, "")

		case engine.EvtPlayerHit:
			a.broadcast(types.ServerMessage{Type: pkgtypes.MsgPlayerHit, Payload: pkgtypes.PlayerHit{
				ID: ev.PlayerID, Health: ev.Health,
			}}, "")

		case engine.EvtPlayerDied:
			a.log.Info("player killed",
				zap.String("victim", ev.PlayerID),
				zap.String("killer", ev.KillerID),
				zap.Uint64("tick", a.world.Tick))
			a.broadcast(types.ServerMessage{Type: pkgtypes.MsgPlayerDied, Payload: pkgtypes.PlayerDied{
				ID: ev.PlayerID, Killer: ev.KillerID,
			}}, "")
			// Everyone, the victim included, learns the respawn point.
			p, ok := a.world.Store().Player(ev.PlayerID)
			if !ok {
				break
			}
			a.broadcast(types.ServerMessage{Type: pkgtypes.MsgPlayerMoved, Payload: pkgtypes.PlayerMoved{
				ID: p.ID, X: p.X, Y: p.Y, Angle: p.Angle,
			}}, "")
		}
	}
}

// send delivers to one client. A full outbox means the client is too slow and gets dropped.
func (a *Arena) send(id string, msg types.ServerMessage) {
	ch, ok := a.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		a.removeClient(id, "slow")
	}
}

// broadcast delivers to every client except the one named by except.
func (a *Arena) broadcast(msg types.ServerMessage, except string) {
	var slow []string
	for id, ch := range a.clients {
		if id == except {
			continue
		}
		select {
		case ch <- msg:
			//ok
		default:
			// Client is slow/full - drop them after the fan-out.
			slow = append(slow, id)
		}
	}
	for _, id := range slow {
		a.removeClient(id, "slow")
	}
}

func errorMessage(reason string) types.ServerMessage {
	return types.ServerMessage{Type: pkgtypes.MsgError, Payload: pkgtypes.Error{Error: reason}}
}

func playerState(p *engine.Player) pkgtypes.PlayerState {
	return pkgtypes.PlayerState{
		ID:     p.ID,
		X:      p.X,
		Y:      p.Y,
		Angle:  p.Angle,
		Team:   string(p.Team),
		Health: p.Health,
		Kills:  p.Kills,
		Deaths: p.Deaths,
	}
}

func youAre(p *engine.Player) pkgtypes.YouAre {
	return pkgtypes.YouAre{ID: p.ID, Team: string(p.Team)}
}

func projectileState(pr *engine.Projectile) pkgtypes.ProjectileState {
	return pkgtypes.ProjectileState{
		ID:    pr.ID,
		X:     pr.X,
		Y:     pr.Y,
		VX:    pr.VX,
		VY:    pr.VY,
		Angle: pr.Angle,
		Owner: pr.Owner,
		Team:  string(pr.Team),
		Life:  pr.Life,
	}
}

func playersPayload(s *engine.Store) pkgtypes.Players {
	out := make(pkgtypes.Players, s.NumPlayers())
	for _, p := range s.Players() {
		out[p.ID] = playerState(p)
	}
	return out
}

func projectilesPayload(s *engine.Store) pkgtypes.Projectiles {
	out := make(pkgtypes.Projectiles, s.NumProjectiles())
	for _, pr := range s.Projectiles() {
		out[pr.ID] = projectileState(pr)
	}
	return out
}
