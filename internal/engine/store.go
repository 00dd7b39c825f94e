package engine

import (
	"cmp"
	"slices"
)

// Store holds the live players and in-flight projectiles keyed by ID.
// It does no validation; callers own that.
type Store struct {
	players     map[string]*Player
	projectiles map[string]*Projectile
	seq         uint64
}

func NewStore() *Store {
	return &Store{
		players:     make(map[string]*Player),
		projectiles: make(map[string]*Projectile),
	}
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) InsertPlayer(p *Player) {
	p.seq = s.nextSeq()
	s.players[p.ID] = p
}

func (s *Store) Player(id string) (*Player, bool) {
	p, ok := s.players[id]
	return p, ok
}

func (s *Store) RemovePlayer(id string) bool {
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	return true
}

// Players returns live players in join order.
func (s *Store) Players() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (s *Store) NumPlayers() int { return len(s.players) }

func (s *Store) InsertProjectile(pr *Projectile) {
	pr.seq = s.nextSeq()
	s.projectiles[pr.ID] = pr
}

func (s *Store) Projectile(id string) (*Projectile, bool) {
	pr, ok := s.projectiles[id]
	return pr, ok
}

func (s *Store) RemoveProjectile(id string) bool {
	if _, ok := s.projectiles[id]; !ok {
		return false
	}
	delete(s.projectiles, id)
	return true
}

// Projectiles returns in-flight projectiles in creation order.
func (s *Store) Projectiles() []*Projectile {
	out := make([]*Projectile, 0, len(s.projectiles))
	for _, pr := range s.projectiles {
		out = append(out, pr)
	}
	slices.SortFunc(out, func(a, b *Projectile) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

func (s *Store) NumProjectiles() int { return len(s.projectiles) }
