package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/battle"
	"metamon_player/internal/domain/entity"
	"metamon_player/internal/pkg/utils"
)

// ErrAuthFailed is returned when a wallet cannot obtain an access token. Every later
// call needs the token, so the batch stops on it.
var ErrAuthFailed = errors.New("authentication failed")

// SessionOptions toggles the optional steps of a wallet session.
type SessionOptions struct {
	AutoLevelUp bool
	SaveResults bool
}

// PlayerService builds wallet sessions that share the game client and stores.
type PlayerService struct {
	game    port.GameAPI
	tokens  port.TokenStore
	stats   port.StatsStore
	metrics port.MetricsRecorder
	logger  port.Logger
	now     func() time.Time
}

// NewPlayerService creates a new instance of PlayerService.
func NewPlayerService(
	game port.GameAPI,
	tokens port.TokenStore,
	stats port.StatsStore,
	metrics port.MetricsRecorder,
	l port.Logger,
) *PlayerService {
	return &PlayerService{
		game:    game,
		tokens:  tokens,
		stats:   stats,
		metrics: metrics,
		logger:  l,
		now:     time.Now,
	}
}

// NewSession creates the session for one wallet record.
func (s *PlayerService) NewSession(cred entity.WalletCredential, opts SessionOptions) *PlayerSession {
	return &PlayerSession{
		svc:    s,
		cred:   cred,
		opts:   opts,
		logger: s.logger.With("wallet", cred.DisplayName()),
	}
}

// PlayerSession runs the daily routine of a single wallet.
type PlayerSession struct {
	svc    *PlayerService
	cred   entity.WalletCredential
	opts   SessionOptions
	logger port.Logger
}

// Authenticate returns the wallet's access token, logging in when none is cached.
func (p *PlayerSession) Authenticate(ctx context.Context) (string, error) {
	if token, ok := p.svc.tokens.Get(p.cred.Address); ok {
		return token, nil
	}

	token, err := p.svc.game.Login(ctx, p.cred)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		p.logger.Error("Login failed, token is not initialized", "address", p.cred.Address, "error", err)
		return "", fmt.Errorf("%w for %s: %w", ErrAuthFailed, p.cred.Address, err)
	}

	p.svc.tokens.Set(p.cred.Address, token)
	p.logger.Debug("Logged in", "address", p.cred.Address)
	return token, nil
}

// RunBattles fights up to attempts battles of m against targetID. It reports whether
// the wallet ran out of funds; the returned error is only set on cancellation.
func (p *PlayerSession) RunBattles(ctx context.Context, token string, m entity.Monster, targetID string, attempts int) (entity.BattleRunRow, bool, error) {
	level := m.Level
	league := battle.LeagueFor(level)
	row := entity.BattleRunRow{TokenID: m.TokenID, Power: m.Power}
	fundsExhausted := false

	log := p.logger.With("metamonId", m.ID, "tokenId", m.TokenID)
	log.Debug("Starting battles", "target", targetID, "attempts", attempts, "league", league)

fights:
	for i := 0; i < attempts; i++ {
		outcome, err := p.svc.game.StartBattle(ctx, token, entity.BattleRequest{
			Address:   p.cred.Address,
			MonsterID: m.ID,
			TargetID:  targetID,
			League:    league,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return row, false, ctxErr
			}
			switch {
			case errors.Is(err, port.ErrNotEnoughFunds):
				fundsExhausted = true
			case errors.Is(err, port.ErrCannotFight):
				log.Info("Metamon cannot fight, skipping", "reason", err)
			default:
				log.Warn("Battle request failed, skipping metamon", "error", err)
			}
			break fights
		}

		if outcome.Won {
			row.Wins++
		} else {
			row.Losses++
		}
		row.Fragments += outcome.Fragments
		p.svc.metrics.RecordBattle(outcome.Won, outcome.Fragments)

		if p.opts.AutoLevelUp {
			ok, err := p.svc.game.LevelUp(ctx, token, p.cred.Address, m.ID)
			switch {
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					return row, false, ctxErr
				}
				log.Debug("Level up request failed", "error", err)
			case ok:
				level++
				league = battle.LeagueFor(level)
				p.svc.metrics.RecordLevelUp()
				log.Info("Level up successful", "level", level, "league", league)
			}
		}
	}

	row.League = league
	row.Level = level
	row.TotalBattles = row.Wins + row.Losses
	row.Timestamp = p.svc.now()

	log.Info("Battle run finished",
		"league", row.League,
		"battles", row.TotalBattles,
		"power", row.Power,
		"level", row.Level,
		"victories", row.Wins,
		"defeats", row.Losses,
		"eggShards", row.Fragments)
	return row, fundsExhausted, nil
}

// Battle runs every eligible metamon of the wallet for the day and, when enabled,
// saves the results.
func (p *PlayerSession) Battle(ctx context.Context) (entity.DayResult, error) {
	var day entity.DayResult

	token, err := p.Authenticate(ctx)
	if err != nil {
		return day, err
	}

	monsters, err := p.listMonsters(ctx, token)
	if err != nil {
		return day, err
	}

	var eligible []entity.Monster
	maxLevel := 0
	for _, m := range monsters {
		if m.CanEnterBattles() {
			eligible = append(eligible, m)
		}
		if m.Level >= entity.MaxLevel {
			maxLevel++
		}
	}
	p.logger.Info("Metamons loaded", "total", len(monsters), "available", len(eligible), "level60", maxLevel)

	for _, m := range eligible {
		if m.ExpCapped() {
			p.logger.Info("Metamon cannot fight due to max level or exp overflow, skipping", "metamonId", m.ID, "level", m.Level, "exp", m.Exp)
			continue
		}

		opponents, err := p.svc.game.Opponents(ctx, token, p.cred.Address, m.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return day, ctxErr
			}
			p.logger.Warn("Failed to list opponents, skipping metamon", "metamonId", m.ID, "error", err)
			continue
		}
		target, err := battle.PickOpponent(opponents)
		if err != nil {
			p.logger.Info("No opponent available, skipping metamon", "metamonId", m.ID, "offered", len(opponents))
			continue
		}

		if err := p.svc.game.ChangeFighter(ctx, p.cred.Address, m.ID); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return day, ctxErr
			}
			p.logger.Warn("Failed to change fighter", "metamonId", m.ID, "error", err)
		}

		row, exhausted, err := p.RunBattles(ctx, token, m, target.ID, m.Tear)
		if err != nil {
			return day, err
		}
		day.Add(row)
		if exhausted {
			day.FundsExhausted = true
			p.logger.Warn("Not enough u-RACA, stopping battles for wallet")
			break
		}
	}

	if day.Battles() == 0 {
		p.logger.Info("No battles to record")
		return day, nil
	}

	summary := day.Summary(p.svc.now())
	p.logger.Info("Battle day finished",
		"victories", summary.Wins,
		"defeats", summary.Losses,
		"winRate", fmt.Sprintf("%.2f%%", summary.WinRate()),
		"eggShards", summary.Fragments)

	if p.opts.SaveResults {
		if err := p.svc.stats.AppendDay(p.cred.DisplayName(), summary, day.Runs); err != nil {
			return day, fmt.Errorf("failed to save battle results: %w", err)
		}
	}
	return day, nil
}

// MintEggs composes the wallet's fragments into eggs and returns how many were minted.
func (p *PlayerSession) MintEggs(ctx context.Context) (int, error) {
	token, err := p.Authenticate(ctx)
	if err != nil {
		return 0, err
	}

	items, err := p.svc.game.CheckBag(ctx, token, p.cred.Address)
	if err != nil {
		return 0, fmt.Errorf("failed to check bag: %w", err)
	}

	fragments := entity.FragmentCount(items)
	eggs := entity.MintableEggs(fragments)
	if eggs < 1 {
		p.logger.Info("Not enough egg fragments to mint", "fragments", fragments)
		return 0, nil
	}

	ok, err := p.svc.game.MintEggs(ctx, token, p.cred.Address)
	if err != nil {
		return 0, fmt.Errorf("failed to mint eggs: %w", err)
	}
	if !ok {
		p.logger.Warn("Mint eggs failed", "fragments", fragments)
		return 0, nil
	}

	p.svc.metrics.RecordEggsMinted(eggs)
	p.logger.Info("Minted eggs", "count", eggs, "fragments", fragments)
	return eggs, nil
}

// listMonsters returns the wallet's metamons sorted by id, falling back to the
// legacy listing when the current one is empty.
func (p *PlayerSession) listMonsters(ctx context.Context, token string) ([]entity.Monster, error) {
	monsters, err := p.svc.game.WalletMonsters(ctx, token, p.cred.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to list metamons: %w", err)
	}
	if len(monsters) == 0 {
		p.logger.Debug("Wallet listing empty, trying legacy listing")
		monsters, err = p.svc.game.WalletMonstersBySymbol(ctx, token, p.cred.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to list metamons: %w", err)
		}
	}

	slices.SortStableFunc(monsters, func(a, b entity.Monster) int {
		return utils.CompareIDs(a.ID, b.ID)
	})
	return monsters, nil
}
