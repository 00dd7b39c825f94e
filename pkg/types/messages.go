package types

// Client -> Server
// playerMove:
//   x, y: number
//   angle: number
//
// shootSword:
//   x, y: number   // origin
//   vx, vy: number // per-tick velocity
//   angle: number  // render only

// Server -> Client
// currentPlayers: Players
// youAre:         YouAre
// newPlayer:      PlayerState
// playerMoved:    PlayerMoved
// playerLeft:     string (player id)
// swordShot:      ProjectileState
// swordsUpdate:   Projectiles (every tick)
// playerHit:      PlayerHit
// playerDied:     PlayerDied
// error:          Error

const (
	MsgPlayerMove = "playerMove"
	MsgShoot      = "shootSword"

	MsgCurrentPlayers = "currentPlayers"
	MsgYouAre         = "youAre"
	MsgNewPlayer      = "newPlayer"
	MsgPlayerMoved    = "playerMoved"
	MsgPlayerLeft     = "playerLeft"
	MsgSwordShot      = "swordShot"
	MsgSwordsUpdate   = "swordsUpdate"
	MsgPlayerHit      = "playerHit"
	MsgPlayerDied     = "playerDied"
	MsgError          = "error"
)

type YouAre struct {
	ID   string `json:"id"`
	Team string `json:"team"`
}

type PlayerMoved struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type PlayerHit struct {
	ID     string `json:"id"`
	Health int    `json:"health"`
}

type PlayerDied struct {
	ID     string `json:"id"`
	Killer string `json:"killer"`
}

type Error struct {
	Error string `json:"error"`
}
