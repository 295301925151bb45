package battle

import (
	"errors"

	"metamon_player/internal/domain/entity"
)

// ErrNoOpponent is returned when no common or rare opponent is available.
var ErrNoOpponent = errors.New("no eligible opponent")

var rarityPreference = []string{entity.RarityCommon, entity.RarityRare}

// PickOpponent selects the weakest opponent from the lowest rarity tier present.
// Ties on power go to the first one listed.
func PickOpponent(opponents []entity.Opponent) (entity.Opponent, error) {
	for _, rarity := range rarityPreference {
		var (
			best  entity.Opponent
			found bool
		)
		for _, o := range opponents {
			if o.Rarity != rarity {
				continue
			}
			if !found || o.Power < best.Power {
				best = o
				found = true
			}
		}
		if found {
			return best, nil
		}
	}
	return entity.Opponent{}, ErrNoOpponent
}
