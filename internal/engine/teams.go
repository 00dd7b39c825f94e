package engine

// AssignTeam returns the team with strictly fewer players, or DefaultTeam on a tie.
func AssignTeam(s *Store) Team {
	counts := map[Team]int{}
	for _, p := range s.players {
		counts[p.Team]++
	}
	if counts[TeamGrok] < counts[TeamPopcorn] {
		return TeamGrok
	}
	if counts[TeamPopcorn] < counts[TeamGrok] {
		return TeamPopcorn
	}
	return DefaultTeam
}
