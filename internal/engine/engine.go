package engine

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

var ErrUnknownPlayer = errors.New("unknown player")
var ErrPlayerDead = errors.New("player is dead")
var ErrPlayerExists = errors.New("player already joined")
var ErrInvalidInput = errors.New("non-finite input")
var ErrOutOfBounds = errors.New("position outside world")
var ErrProjectileLimit = errors.New("projectile limit reached")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Team string

const (
	TeamGrok    Team = "grok"
	TeamPopcorn Team = "popcorn"
)

// DefaultTeam wins team assignment ties.
const DefaultTeam = TeamPopcorn

type Player struct {
	ID     string
	X, Y   float64
	Angle  float64
	Team   Team
	Health int
	Kills  int
	Deaths int

	seq uint64
}

type Projectile struct {
	ID     string
	X, Y   float64
	VX, VY float64
	Angle  float64
	Life   int
	Owner  string
	Team   Team // captured when fired, never rewritten

	seq uint64
}

type Rules struct {
	WorldWidth     float64
	WorldHeight    float64
	MoveMargin     float64
	HitRadius      float64
	Damage         int
	MaxHealth      int
	ProjectileLife int
	MaxProjectiles int // 0 means unlimited
}

func DefaultRules() Rules {
	return Rules{
		WorldWidth:     2000,
		WorldHeight:    1500,
		MoveMargin:     50,
		HitRadius:      30,
		Damage:         40,
		MaxHealth:      100,
		ProjectileLife: 60,
		MaxProjectiles: 1024,
	}
}

type CommandType string

const (
	CmdMove CommandType = "Move"
	CmdFire CommandType = "Fire"
)

/*
	CmdMove -> EvtPlayerMoved (nothing when the position and angle are unchanged)
	CmdFire -> EvtProjectileCreated
	Step    -> EvtPlayerHit -> EvtPlayerDied (lethal only) ... EvtProjectileRemoved
*/

type Command struct {
	Type     CommandType
	PlayerID string
	X, Y     float64
	VX, VY   float64
	Angle    float64
}

type EventType string

const (
	EvtPlayerMoved       EventType = "PlayerMoved"
	EvtProjectileCreated EventType = "ProjectileCreated"
	EvtPlayerHit         EventType = "PlayerHit"
	EvtPlayerDied        EventType = "PlayerDied"
	EvtProjectileRemoved EventType = "ProjectileRemoved"
)

type RemovalReason string

const (
	RemovedExpired     RemovalReason = "expired"
	RemovedOutOfBounds RemovalReason = "out_of_bounds"
	RemovedHit         RemovalReason = "hit"
)

type Event struct {
	Type         EventType
	PlayerID     string
	ProjectileID string
	KillerID     string
	Health       int
	X, Y         float64
	Angle        float64
	Reason       RemovalReason
}

// Rand is the randomness the world needs for spawn points.
type Rand interface {
	Float64() float64
}

// World is the authoritative simulation. It is not safe for concurrent use:
// one goroutine owns it and serializes Join, Leave, Apply and Step.
type World struct {
	Rules Rules
	Tick  uint64

	store *Store
	rng   Rand
	newID func() string
}

type Option func(*World)

func WithRand(r Rand) Option {
	return func(w *World) { w.rng = r }
}

func WithIDs(next func() string) Option {
	return func(w *World) { w.newID = next }
}

func NewWorld(rules Rules, opts ...Option) *World {
	w := &World{
		Rules: rules,
		store: NewStore(),
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Store() *Store { return w.store }

// Join spawns a player at a random point on the smaller team.
func (w *World) Join(id string) (*Player, error) {
	if _, ok := w.store.Player(id); ok {
		return nil, ErrPlayerExists
	}
	x, y := w.randomPoint()
	p := &Player{
		ID:     id,
		X:      x,
		Y:      y,
		Team:   AssignTeam(w.store),
		Health: w.Rules.MaxHealth,
	}
	w.store.InsertPlayer(p)
	return p, nil
}

// Leave removes the player. Projectiles it owns stay in flight.
func (w *World) Leave(id string) bool {
	return w.store.RemovePlayer(id)
}

func (w *World) randomPoint() (float64, float64) {
	return w.rng.Float64() * w.Rules.WorldWidth, w.rng.Float64() * w.Rules.WorldHeight
}

func (w *World) inBounds(x, y float64) bool {
	return x >= 0 && x <= w.Rules.WorldWidth && y >= 0 && y <= w.Rules.WorldHeight
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
