package types

// PlayerState is the wire form of a player, sent in currentPlayers and newPlayer.
type PlayerState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Team   string  `json:"team"`
	Health int     `json:"health"`
	Kills  int     `json:"kills"`
	Deaths int     `json:"deaths"`
}

// ProjectileState is the wire form of a projectile, sent in swordShot and swordsUpdate.
type ProjectileState struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Angle float64 `json:"angle"`
	Owner string  `json:"owner"`
	Team  string  `json:"team"`
	Life  int     `json:"life"`
}

// Players is keyed by player id, matching what browser clients index by.
type Players map[string]PlayerState

// Projectiles is keyed by projectile id.
type Projectiles map[string]ProjectileState
