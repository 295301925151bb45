package battle

// League tiers. Higher leagues pit the metamon against stronger opponents.
const (
	LeagueOne   = 1
	LeagueTwo   = 2
	LeagueThree = 3
)

// LeagueFor returns the highest league a metamon of the given level may enter.
// Levels above 60 stay in the top league.
func LeagueFor(level int) int {
	switch {
	case level <= 20:
		return LeagueOne
	case level <= 40:
		return LeagueTwo
	default:
		return LeagueThree
	}
}
