package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metamon_player/internal/domain/entity"
)

func TestPickOpponentPrefersCommon(t *testing.T) {
	opponents := []entity.Opponent{
		{ID: "1", Rarity: entity.RarityRare, Power: 100},
		{ID: "2", Rarity: entity.RarityCommon, Power: 400},
		{ID: "3", Rarity: entity.RarityCommon, Power: 350},
		{ID: "4", Rarity: "SR", Power: 10},
	}

	got, err := PickOpponent(opponents)
	require.NoError(t, err)
	assert.Equal(t, "3", got.ID)
	assert.Equal(t, entity.RarityCommon, got.Rarity)
}

func TestPickOpponentRareOnlyTieGoesToFirst(t *testing.T) {
	opponents := []entity.Opponent{
		{ID: "a", Rarity: entity.RarityRare, Power: 300},
		{ID: "b", Rarity: entity.RarityRare, Power: 250},
		{ID: "c", Rarity: entity.RarityRare, Power: 250},
	}

	got, err := PickOpponent(opponents)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestPickOpponentNoCandidates(t *testing.T) {
	_, err := PickOpponent(nil)
	assert.ErrorIs(t, err, ErrNoOpponent)

	_, err = PickOpponent([]entity.Opponent{{ID: "x", Rarity: "SSR", Power: 1}})
	assert.ErrorIs(t, err, ErrNoOpponent)
}
