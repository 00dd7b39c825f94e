package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_LifetimeDecrementsUntilExpiry(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 100)
	id := fire(t, w, "a", 1000, 700, 0, 0)

	for i := 1; i < 60; i++ {
		events := w.Step()
		assert.False(t, ContainsEvent(events, EvtProjectileRemoved), "removed early at tick %d", i)
		pr, ok := w.Store().Projectile(id)
		require.True(t, ok)
		assert.Equal(t, 60-i, pr.Life)
	}

	events := w.Step()
	removed := FilterEvents(events, EvtProjectileRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, RemovedExpired, removed[0].Reason)
	assert.Equal(t, 0, w.Store().NumProjectiles())
}

func TestStep_BoundsPruning(t *testing.T) {
	cases := []struct {
		name        string
		x, y        float64
		vx, vy      float64
		wantRemoved bool
	}{
		{name: "crosses right edge", x: 1995, y: 700, vx: 10, wantRemoved: true},
		{name: "crosses top edge", x: 500, y: 3, vy: -4, wantRemoved: true},
		{name: "crosses bottom edge", x: 500, y: 1499, vy: 2, wantRemoved: true},
		{name: "lands exactly on the edge", x: 1990, y: 700, vx: 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorld(t)
			place(t, w, "a", TeamGrok, 100, 100)
			fire(t, w, "a", tc.x, tc.y, tc.vx, tc.vy)

			removed := FilterEvents(w.Step(), EvtProjectileRemoved)
			if !tc.wantRemoved {
				assert.Empty(t, removed)
				assert.Equal(t, 1, w.Store().NumProjectiles())
				return
			}
			require.Len(t, removed, 1)
			assert.Equal(t, RemovedOutOfBounds, removed[0].Reason)
			assert.Equal(t, 0, w.Store().NumProjectiles())
		})
	}
}

func TestStep_HitDamagesEnemyAndRemovesProjectile(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 500)
	b := place(t, w, "b", TeamPopcorn, 300, 500)
	id := fire(t, w, "a", 100, 500, 12, 0)

	// Distance 200 closes at 12 per tick; it first drops under 30 on tick 15.
	ticks, events := stepUntil(t, w, EvtPlayerHit, 60)
	assert.Equal(t, 15, ticks)
	assert.Equal(t, 60, b.Health)

	hits := FilterEvents(events, EvtPlayerHit)
	require.Len(t, hits, 1)
	assert.Equal(t, Event{Type: EvtPlayerHit, PlayerID: "b", ProjectileID: id, KillerID: "a", Health: 60}, hits[0])
	assert.False(t, ContainsEvent(events, EvtPlayerDied))

	removed := FilterEvents(events, EvtProjectileRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, RemovedHit, removed[0].Reason)
	_, ok := w.Store().Projectile(id)
	assert.False(t, ok)
}

func TestStep_ThirdHitKillsAndRespawns(t *testing.T) {
	w := newTestWorld(t)
	a := place(t, w, "a", TeamGrok, 100, 500)
	b := place(t, w, "b", TeamPopcorn, 300, 500)

	wantHealth := []int{60, 20}
	for i, want := range wantHealth {
		b.X, b.Y = 300, 500
		fire(t, w, "a", 100, 500, 12, 0)
		_, events := stepUntil(t, w, EvtPlayerHit, 60)
		assert.False(t, ContainsEvent(events, EvtPlayerDied), "hit %d", i+1)
		assert.Equal(t, want, b.Health)
	}

	fire(t, w, "a", 100, 500, 12, 0)
	_, events := stepUntil(t, w, EvtPlayerHit, 60)

	assert.Equal(t, 100, b.Health)
	assert.Equal(t, 1, b.Deaths)
	assert.Equal(t, 1, a.Kills)
	assert.Equal(t, 0, a.Deaths)
	assert.Equal(t, 500.0, b.X)
	assert.Equal(t, 375.0, b.Y)

	hits := FilterEvents(events, EvtPlayerHit)
	died := FilterEvents(events, EvtPlayerDied)
	require.Len(t, hits, 1)
	require.Len(t, died, 1)
	assert.Equal(t, 100, hits[0].Health)
	assert.Equal(t, "b", died[0].PlayerID)
	assert.Equal(t, "a", died[0].KillerID)
}

func TestStep_NoFriendlyFire(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 500)
	mate := place(t, w, "mate", TeamGrok, 160, 500)
	enemy := place(t, w, "enemy", TeamPopcorn, 400, 500)
	fire(t, w, "a", 100, 500, 12, 0)

	_, events := stepUntil(t, w, EvtPlayerHit, 60)
	hits := FilterEvents(events, EvtPlayerHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "enemy", hits[0].PlayerID)
	assert.Equal(t, 100, mate.Health)
	assert.Equal(t, 60, enemy.Health)
}

func TestStep_TeamIsCapturedAtFireTime(t *testing.T) {
	w := newTestWorld(t)
	a := place(t, w, "a", TeamGrok, 100, 500)
	b := place(t, w, "b", TeamPopcorn, 300, 500)
	fire(t, w, "a", 100, 500, 12, 0)

	// Switching the shooter's team after firing must not change who the shot can hurt.
	a.Team = TeamPopcorn
	a.X, a.Y = 100, 900

	_, events := stepUntil(t, w, EvtPlayerHit, 60)
	hits := FilterEvents(events, EvtPlayerHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].PlayerID)
	assert.Equal(t, 60, b.Health)
	assert.Equal(t, 100, a.Health)
}

func TestStep_ShooterWhoSwitchesTeamIsAnEnemyOfTheShot(t *testing.T) {
	w := newTestWorld(t)
	a := place(t, w, "a", TeamGrok, 100, 500)
	b := place(t, w, "b", TeamPopcorn, 300, 500)
	fire(t, w, "a", 100, 500, 12, 0)

	// The shot keeps team grok, so the shooter standing in its path is now fair game.
	a.Team = TeamPopcorn

	events := w.Step()
	hits := FilterEvents(events, EvtPlayerHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].PlayerID)
	assert.Equal(t, "a", hits[0].KillerID)
	assert.Equal(t, 60, a.Health)
	assert.Equal(t, 100, b.Health)
	assert.Equal(t, 0, w.Store().NumProjectiles())
}

func TestStep_NearestTargetWinsWhenSeveralInRange(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 500)
	far := place(t, w, "far", TeamPopcorn, 125, 520)
	near := place(t, w, "near", TeamPopcorn, 112, 505)
	fire(t, w, "a", 100, 500, 10, 0)

	events := w.Step()
	hits := FilterEvents(events, EvtPlayerHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].PlayerID)
	assert.Equal(t, 60, near.Health)
	assert.Equal(t, 100, far.Health)
	assert.Equal(t, 0, w.Store().NumProjectiles())
}

func TestStep_OwnerLeftMidFlight(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 500)
	bystander := place(t, w, "c", TeamGrok, 900, 900)
	b := place(t, w, "b", TeamPopcorn, 300, 500)
	b.Health = 40
	fire(t, w, "a", 100, 500, 12, 0)

	require.True(t, w.Leave("a"))

	_, events := stepUntil(t, w, EvtPlayerDied, 60)
	died := FilterEvents(events, EvtPlayerDied)
	require.Len(t, died, 1)
	assert.Equal(t, "a", died[0].KillerID)
	assert.Equal(t, 1, b.Deaths)
	assert.Equal(t, 100, b.Health)
	assert.Equal(t, 0, bystander.Kills)
}

func TestStep_HealthStaysInRange(t *testing.T) {
	w := newTestWorld(t)
	place(t, w, "a", TeamGrok, 100, 500)
	b := place(t, w, "b", TeamPopcorn, 300, 500)

	for i := 0; i < 10; i++ {
		b.X, b.Y = 300, 500
		fire(t, w, "a", 100, 500, 12, 0)
		for w.Store().NumProjectiles() > 0 {
			w.Step()
			require.GreaterOrEqual(t, b.Health, 0)
			require.LessOrEqual(t, b.Health, 100)
			require.Greater(t, b.Health, 0, "a dead player must respawn in the same tick")
		}
	}
	// 10 hits of 40 is three full kills (3 hits each) plus one.
	assert.Equal(t, 3, b.Deaths)
	assert.Equal(t, 60, b.Health)
}
