package service

import (
	"context"
	"strings"
	"time"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
	"metamon_player/internal/pkg/logger"
)

// fakeGame is a scripted port.GameAPI that records every call as "Method:arg".
type fakeGame struct {
	calls []string

	loginErr  map[string]error
	monsters  []entity.Monster
	bySymbol  []entity.Monster
	listErr   error
	opponents []entity.Opponent
	battle    func(req entity.BattleRequest) (entity.BattleOutcome, error)
	battles   []entity.BattleRequest
	levelUpOK bool
	bag       []entity.BagItem
	mintOK    bool
}

func (f *fakeGame) record(method, arg string) {
	f.calls = append(f.calls, method+":"+arg)
}

func (f *fakeGame) count(method string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, method+":") {
			n++
		}
	}
	return n
}

func (f *fakeGame) Login(_ context.Context, cred entity.WalletCredential) (string, error) {
	f.record("Login", cred.Address)
	if err := f.loginErr[cred.Address]; err != nil {
		return "", err
	}
	return "token-" + cred.Address, nil
}

func (f *fakeGame) WalletMonsters(_ context.Context, _, address string) ([]entity.Monster, error) {
	f.record("WalletMonsters", address)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entity.Monster(nil), f.monsters...), nil
}

func (f *fakeGame) WalletMonstersBySymbol(_ context.Context, _, address string) ([]entity.Monster, error) {
	f.record("WalletMonstersBySymbol", address)
	return append([]entity.Monster(nil), f.bySymbol...), nil
}

func (f *fakeGame) Opponents(_ context.Context, _, _, monsterID string) ([]entity.Opponent, error) {
	f.record("Opponents", monsterID)
	return f.opponents, nil
}

func (f *fakeGame) ChangeFighter(_ context.Context, _, monsterID string) error {
	f.record("ChangeFighter", monsterID)
	return nil
}

func (f *fakeGame) StartBattle(_ context.Context, _ string, req entity.BattleRequest) (entity.BattleOutcome, error) {
	f.record("StartBattle", req.MonsterID)
	f.battles = append(f.battles, req)
	if f.battle != nil {
		return f.battle(req)
	}
	return entity.BattleOutcome{Won: true, Fragments: 10}, nil
}

func (f *fakeGame) LevelUp(_ context.Context, _, _, monsterID string) (bool, error) {
	f.record("LevelUp", monsterID)
	return f.levelUpOK, nil
}

func (f *fakeGame) CheckBag(_ context.Context, _, address string) ([]entity.BagItem, error) {
	f.record("CheckBag", address)
	return f.bag, nil
}

func (f *fakeGame) MintEggs(_ context.Context, _, address string) (bool, error) {
	f.record("MintEggs", address)
	return f.mintOK, nil
}

type memTokens map[string]string

func (m memTokens) Get(address string) (string, bool) {
	t, ok := m[address]
	return t, ok
}

func (m memTokens) Set(address, token string) { m[address] = token }

func (m memTokens) Delete(address string) { delete(m, address) }

type savedDay struct {
	wallet  string
	summary entity.SummaryRow
	runs    []entity.BattleRunRow
}

type memStats struct {
	days []savedDay
}

func (m *memStats) AppendDay(walletName string, summary entity.SummaryRow, runs []entity.BattleRunRow) error {
	m.days = append(m.days, savedDay{wallet: walletName, summary: summary, runs: runs})
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, string) {}
func (nopMetrics) RecordBattle(bool, int)       {}
func (nopMetrics) RecordLevelUp()               {}
func (nopMetrics) RecordEggsMinted(int)         {}
func (nopMetrics) RecordWallet(string)          {}

type staticWallets []entity.WalletCredential

func (s staticWallets) GetWallets() ([]entity.WalletCredential, error) {
	return s, nil
}

var fixedNow = time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestPlayers(game port.GameAPI, stats port.StatsStore) *PlayerService {
	s := NewPlayerService(game, memTokens{}, stats, nopMetrics{}, logger.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

var alice = entity.WalletCredential{Name: "alice", Address: "0xa11ce", Sign: "0xsig", Msg: "LogIn"}
