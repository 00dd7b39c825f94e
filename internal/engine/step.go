package engine

import "math"

// Step advances the world by one tick: projectile integration, expiry,
// bounds pruning, collisions, damage and respawn.
func (w *World) Step() []Event {
	w.Tick++

	var events []Event
	type removal struct {
		id     string
		reason RemovalReason
	}
	var removed []removal

	players := w.store.Players()
	for _, pr := range w.store.Projectiles() {
		pr.X += pr.VX
		pr.Y += pr.VY
		pr.Life--

		if pr.Life <= 0 {
			removed = append(removed, removal{pr.ID, RemovedExpired})
			continue
		}
		if !w.inBounds(pr.X, pr.Y) {
			removed = append(removed, removal{pr.ID, RemovedOutOfBounds})
			continue
		}

		target := w.nearestTarget(pr, players)
		if target == nil {
			continue
		}
		removed = append(removed, removal{pr.ID, RemovedHit})
		events = append(events, w.hit(pr, target)...)
	}

	for _, r := range removed {
		w.store.RemoveProjectile(r.id)
		events = append(events, Event{Type: EvtProjectileRemoved, ProjectileID: r.id, Reason: r.reason})
	}
	return events
}

// nearestTarget picks the closest enemy inside the hit radius. Equal
// distances resolve to the earlier joiner.
func (w *World) nearestTarget(pr *Projectile, players []*Player) *Player {
	var best *Player
	bestDist := math.Inf(1)
	for _, p := range players {
		if p.Team == pr.Team {
			continue
		}
		d := math.Hypot(p.X-pr.X, p.Y-pr.Y)
		if d < w.Rules.HitRadius && d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

func (w *World) hit(pr *Projectile, target *Player) []Event {
	target.Health = max(target.Health-w.Rules.Damage, 0)
	if target.Health > 0 {
		return []Event{
			{Type: EvtPlayerHit, PlayerID: target.ID, ProjectileID: pr.ID, KillerID: pr.Owner, Health: target.Health},
		}
	}

	// Owner may have disconnected; the kill goes uncredited.
	if owner, ok := w.store.Player(pr.Owner); ok {
		owner.Kills++
	}
	target.Deaths++
	target.Health = w.Rules.MaxHealth
	target.X, target.Y = w.randomPoint()

	return []Event{
		{Type: EvtPlayerHit, PlayerID: target.ID, ProjectileID: pr.ID, KillerID: pr.Owner, Health: target.Health},
		{Type: EvtPlayerDied, PlayerID: target.ID, ProjectileID: pr.ID, KillerID: pr.Owner, X: target.X, Y: target.Y},
	}
}
