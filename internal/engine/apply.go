package engine

// Apply validates one client command against the world and mutates it.
// A returned error means nothing changed.
func (w *World) Apply(cmd Command) ([]Event, error) {
	p, ok := w.store.Player(cmd.PlayerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}

	switch cmd.Type {
	case CmdMove:
		if !finite(cmd.X, cmd.Y, cmd.Angle) {
			return nil, ErrInvalidInput
		}

		// Client positions are trusted apart from the clamp.
		x := clamp(cmd.X, w.Rules.MoveMargin, w.Rules.WorldWidth-w.Rules.MoveMargin)
		y := clamp(cmd.Y, w.Rules.MoveMargin, w.Rules.WorldHeight-w.Rules.MoveMargin)
		if p.X == x && p.Y == y && p.Angle == cmd.Angle {
			return nil, nil
		}

		p.X, p.Y, p.Angle = x, y, cmd.Angle
		return []Event{
			{Type: EvtPlayerMoved, PlayerID: p.ID, X: x, Y: y, Angle: cmd.Angle},
		}, nil

	case CmdFire:
		if p.Health <= 0 {
			return nil, ErrPlayerDead
		}
		if !finite(cmd.X, cmd.Y, cmd.VX, cmd.VY, cmd.Angle) {
			return nil, ErrInvalidInput
		}
		if !w.inBounds(cmd.X, cmd.Y) {
			return nil, ErrOutOfBounds
		}
		if w.Rules.MaxProjectiles > 0 && w.store.NumProjectiles() >= w.Rules.MaxProjectiles {
			return nil, ErrProjectileLimit
		}

		pr := &Projectile{
			ID:    w.newID(),
			X:     cmd.X,
			Y:     cmd.Y,
			VX:    cmd.VX,
			VY:    cmd.VY,
			Angle: cmd.Angle,
			Life:  w.Rules.ProjectileLife,
			Owner: p.ID,
			Team:  p.Team,
		}
		w.store.InsertProjectile(pr)
		return []Event{
			{Type: EvtProjectileCreated, PlayerID: p.ID, ProjectileID: pr.ID, X: pr.X, Y: pr.Y, Angle: pr.Angle},
		}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}
