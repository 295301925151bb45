package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

var commonOpponents = []entity.Opponent{
	{ID: "t-rare", Rarity: entity.RarityRare, Power: 10},
	{ID: "t-strong", Rarity: entity.RarityCommon, Power: 400},
	{ID: "t-weak", Rarity: entity.RarityCommon, Power: 200},
}

func TestBattleNeverFightsIneligibleMonsters(t *testing.T) {
	game := &fakeGame{
		monsters: []entity.Monster{
			{ID: "1", Tear: 0, Level: 10},
			{ID: "2", Tear: 5, Level: 60},
			{ID: "3", Tear: 5, Level: 75},
			{ID: "4", Tear: 3, Level: 30, Exp: 600},
		},
		opponents: commonOpponents,
	}
	stats := &memStats{}
	session := newTestPlayers(game, stats).NewSession(alice, SessionOptions{AutoLevelUp: true, SaveResults: true})

	day, err := session.Battle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, day.Battles())
	assert.Zero(t, game.count("Opponents"))
	assert.Zero(t, game.count("StartBattle"))
	assert.Zero(t, game.count("ChangeFighter"))
	assert.Empty(t, stats.days, "no battles means no output")
}

func TestBattleFundsExhaustionStopsLaterMonsters(t *testing.T) {
	fought := 0
	game := &fakeGame{
		monsters: []entity.Monster{
			{ID: "2", TokenID: "t2", Tear: 3, Level: 5},
			{ID: "1", TokenID: "t1", Tear: 3, Level: 5},
		},
		opponents: commonOpponents,
		battle: func(req entity.BattleRequest) (entity.BattleOutcome, error) {
			fought++
			if fought == 2 {
				return entity.BattleOutcome{}, port.ErrNotEnoughFunds
			}
			return entity.BattleOutcome{Won: true, Fragments: 12}, nil
		},
	}
	session := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{})

	day, err := session.Battle(context.Background())
	require.NoError(t, err)
	assert.True(t, day.FundsExhausted)
	assert.Equal(t, 1, day.Wins)
	assert.Equal(t, 12, day.Fragments)
	require.Len(t, day.Runs, 1)
	assert.Equal(t, "t1", day.Runs[0].TokenID)

	assert.Equal(t, []string{
		"Login:0xa11ce",
		"WalletMonsters:0xa11ce",
		"Opponents:1",
		"ChangeFighter:1",
		"StartBattle:1",
		"StartBattle:1",
	}, game.calls)
}

func TestBattleTargetsWeakestCommonOpponent(t *testing.T) {
	game := &fakeGame{
		monsters:  []entity.Monster{{ID: "1", Tear: 1, Level: 1}},
		opponents: commonOpponents,
	}
	_, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	require.Len(t, game.battles, 1)
	assert.Equal(t, "t-weak", game.battles[0].TargetID)
	assert.Equal(t, alice.Address, game.battles[0].Address)
}

func TestRunBattlesLevelUpRaisesLeague(t *testing.T) {
	game := &fakeGame{levelUpOK: true}
	session := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{AutoLevelUp: true})

	row, exhausted, err := session.RunBattles(context.Background(), "tok", entity.Monster{ID: "7", TokenID: "77", Level: 19, Power: 250}, "t", 3)
	require.NoError(t, err)
	assert.False(t, exhausted)

	leagues := make([]int, 0, len(game.battles))
	for _, b := range game.battles {
		leagues = append(leagues, b.League)
	}
	assert.Equal(t, []int{1, 1, 2}, leagues)
	assert.Equal(t, 3, game.count("LevelUp"))

	assert.Equal(t, entity.BattleRunRow{
		TokenID:      "77",
		League:       2,
		TotalBattles: 3,
		Power:        250,
		Level:        22,
		Wins:         3,
		Fragments:    30,
		Timestamp:    fixedNow,
	}, row)
}

func TestRunBattlesLevelUpRejectedKeepsLeague(t *testing.T) {
	game := &fakeGame{levelUpOK: false}
	session := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{AutoLevelUp: true})

	row, _, err := session.RunBattles(context.Background(), "tok", entity.Monster{ID: "7", Level: 40}, "t", 2)
	require.NoError(t, err)
	assert.Equal(t, 40, row.Level)
	assert.Equal(t, 2, row.League)
}

func TestRunBattlesWithoutAutoLevelUp(t *testing.T) {
	game := &fakeGame{levelUpOK: true}
	session := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{})

	_, _, err := session.RunBattles(context.Background(), "tok", entity.Monster{ID: "7", Level: 20}, "t", 2)
	require.NoError(t, err)
	assert.Zero(t, game.count("LevelUp"))
}

func TestBattleCannotFightSkipsOnlyThatMonster(t *testing.T) {
	game := &fakeGame{
		monsters: []entity.Monster{
			{ID: "1", TokenID: "t1", Tear: 4, Level: 5},
			{ID: "2", TokenID: "t2", Tear: 2, Level: 5},
		},
		opponents: commonOpponents,
		battle: func(req entity.BattleRequest) (entity.BattleOutcome, error) {
			switch req.MonsterID {
			case "1":
				return entity.BattleOutcome{}, port.ErrCannotFight
			default:
				return entity.BattleOutcome{Won: false, Fragments: 5}, nil
			}
		},
	}
	day, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	assert.False(t, day.FundsExhausted)
	assert.Equal(t, 2, day.Losses)
	assert.Equal(t, 3, game.count("StartBattle"))
	require.Len(t, day.Runs, 2)
	assert.Zero(t, day.Runs[0].TotalBattles)
	assert.Equal(t, 2, day.Runs[1].TotalBattles)
}

func TestBattleUnavailableSkipsMonster(t *testing.T) {
	game := &fakeGame{
		monsters:  []entity.Monster{{ID: "1", Tear: 3, Level: 5}},
		opponents: commonOpponents,
		battle: func(entity.BattleRequest) (entity.BattleOutcome, error) {
			return entity.BattleOutcome{}, port.ErrUnavailable
		},
	}
	day, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, game.count("StartBattle"))
	assert.Zero(t, day.Battles())
}

func TestBattleFallsBackToLegacyListingSortedByID(t *testing.T) {
	game := &fakeGame{
		bySymbol: []entity.Monster{
			{ID: "10", Tear: 1, Level: 1},
			{ID: "9", Tear: 1, Level: 1},
			{ID: "100", Tear: 1, Level: 1},
		},
		opponents: commonOpponents,
	}
	_, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, game.count("WalletMonstersBySymbol"))

	var order []string
	for _, b := range game.battles {
		order = append(order, b.MonsterID)
	}
	assert.Equal(t, []string{"9", "10", "100"}, order)
}

func TestBattleSkipsMonsterWithoutOpponents(t *testing.T) {
	game := &fakeGame{
		monsters:  []entity.Monster{{ID: "1", Tear: 3, Level: 5}},
		opponents: []entity.Opponent{{ID: "x", Rarity: "SSR", Power: 1}},
	}
	day, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, day.Battles())
	assert.Zero(t, game.count("ChangeFighter"))
}

func TestBattleSavesResultsWhenEnabled(t *testing.T) {
	game := &fakeGame{
		monsters:  []entity.Monster{{ID: "1", TokenID: "t1", Tear: 2, Level: 5}},
		opponents: commonOpponents,
	}
	stats := &memStats{}
	_, err := newTestPlayers(game, stats).NewSession(alice, SessionOptions{SaveResults: true}).Battle(context.Background())
	require.NoError(t, err)

	require.Len(t, stats.days, 1)
	assert.Equal(t, "alice", stats.days[0].wallet)
	assert.Equal(t, entity.SummaryRow{Wins: 2, Fragments: 20, Datetime: fixedNow}, stats.days[0].summary)
	require.Len(t, stats.days[0].runs, 1)
}

func TestBattleDoesNotSaveWhenDisabled(t *testing.T) {
	game := &fakeGame{
		monsters:  []entity.Monster{{ID: "1", Tear: 2, Level: 5}},
		opponents: commonOpponents,
	}
	stats := &memStats{}
	_, err := newTestPlayers(game, stats).NewSession(alice, SessionOptions{}).Battle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats.days)
}

func TestAuthenticateRejectedIsFatal(t *testing.T) {
	game := &fakeGame{loginErr: map[string]error{alice.Address: port.ErrLoginRejected}}
	_, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).Battle(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, port.ErrLoginRejected)
	assert.Equal(t, []string{"Login:0xa11ce"}, game.calls)
}

func TestAuthenticateReusesToken(t *testing.T) {
	game := &fakeGame{bag: []entity.BagItem{{BpType: 1, BpNum: 10}}}
	session := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{})

	_, err := session.Battle(context.Background())
	require.NoError(t, err)
	_, err = session.MintEggs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, game.count("Login"))
}

func TestMintEggs(t *testing.T) {
	cases := []struct {
		name      string
		bag       []entity.BagItem
		mintOK    bool
		wantEggs  int
		wantMints int
	}{
		{name: "below threshold", bag: []entity.BagItem{{BpType: 1, BpNum: 999}}, mintOK: true, wantEggs: 0, wantMints: 0},
		{name: "no fragment entry", bag: []entity.BagItem{{BpType: 2, BpNum: 5000}}, mintOK: true, wantEggs: 0, wantMints: 0},
		{name: "two eggs", bag: []entity.BagItem{{BpType: 3, BpNum: 1}, {BpType: 1, BpNum: 2500}}, mintOK: true, wantEggs: 2, wantMints: 1},
		{name: "rejected", bag: []entity.BagItem{{BpType: 1, BpNum: 1000}}, mintOK: false, wantEggs: 0, wantMints: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			game := &fakeGame{bag: tc.bag, mintOK: tc.mintOK}
			eggs, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).MintEggs(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.wantEggs, eggs)
			assert.Equal(t, tc.wantMints, game.count("MintEggs"))
		})
	}
}

func TestRunBattlesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	game := &fakeGame{
		battle: func(entity.BattleRequest) (entity.BattleOutcome, error) {
			cancel()
			return entity.BattleOutcome{}, errors.New("request aborted")
		},
	}
	_, _, err := newTestPlayers(game, &memStats{}).NewSession(alice, SessionOptions{}).RunBattles(ctx, "tok", entity.Monster{ID: "1"}, "t", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, game.count("StartBattle"))
}
