package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

// Wallet outcomes reported to the metrics recorder.
const (
	WalletOK      = "ok"
	WalletFailed  = "failed"
	WalletAborted = "aborted"
)

// BatchOptions selects what the batch does for every wallet.
type BatchOptions struct {
	SkipBattles bool
	MintEggs    bool
	Session     SessionOptions
}

// BatchService drives one session per wallet record, sequentially.
type BatchService struct {
	walletProvider port.WalletProvider
	players        *PlayerService
	metrics        port.MetricsRecorder
	logger         port.Logger
	now            func() time.Time

	mu       sync.RWMutex
	progress entity.BatchProgress
}

// NewBatchService creates a new instance of BatchService.
func NewBatchService(wp port.WalletProvider, players *PlayerService, metrics port.MetricsRecorder, l port.Logger) *BatchService {
	return &BatchService{
		walletProvider: wp,
		players:        players,
		metrics:        metrics,
		logger:         l,
		now:            time.Now,
	}
}

// Progress implements port.ProgressProvider.
func (b *BatchService) Progress() entity.BatchProgress {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p := b.progress
	p.Failures = append([]string(nil), b.progress.Failures...)
	return p
}

// Run processes every wallet. A failed login stops the whole batch with ErrAuthFailed;
// other per-wallet errors are recorded and the next wallet is processed.
func (b *BatchService) Run(ctx context.Context, opts BatchOptions) (entity.BatchProgress, error) {
	wallets, err := b.walletProvider.GetWallets()
	if err != nil {
		return b.Progress(), fmt.Errorf("failed to load wallets: %w", err)
	}

	b.update(func(p *entity.BatchProgress) {
		*p = entity.BatchProgress{
			RunID:        uuid.NewString(),
			StartedAt:    b.now(),
			TotalWallets: len(wallets),
		}
	})
	b.logger.Info("Batch started",
		"runId", b.Progress().RunID,
		"wallets", len(wallets),
		"skipBattles", opts.SkipBattles,
		"mintEggs", opts.MintEggs,
		"autoLevelUp", opts.Session.AutoLevelUp,
		"saveResults", opts.Session.SaveResults)

	for _, cred := range wallets {
		if err := ctx.Err(); err != nil {
			return b.finish(), err
		}
		b.update(func(p *entity.BatchProgress) { p.CurrentWallet = cred.DisplayName() })

		err := b.runWallet(ctx, b.players.NewSession(cred, opts.Session), opts)
		switch {
		case err == nil:
			b.metrics.RecordWallet(WalletOK)
		case errors.Is(err, ErrAuthFailed) || ctx.Err() != nil:
			b.metrics.RecordWallet(WalletAborted)
			b.update(func(p *entity.BatchProgress) {
				p.Failures = append(p.Failures, fmt.Sprintf("%s: %v", cred.DisplayName(), err))
			})
			return b.finish(), err
		default:
			b.metrics.RecordWallet(WalletFailed)
			b.logger.Error("Wallet processing failed", "wallet", cred.DisplayName(), "error", err)
			b.update(func(p *entity.BatchProgress) {
				p.Failures = append(p.Failures, fmt.Sprintf("%s: %v", cred.DisplayName(), err))
			})
		}
		b.update(func(p *entity.BatchProgress) { p.ProcessedWallets++ })
	}

	progress := b.finish()
	b.logger.Info("Batch finished",
		"runId", progress.RunID,
		"processed", progress.ProcessedWallets,
		"victories", progress.Wins,
		"defeats", progress.Losses,
		"eggShards", progress.Fragments,
		"eggsMinted", progress.EggsMinted,
		"failures", len(progress.Failures))
	return progress, nil
}

// runWallet battles and then mints. Running out of funds or a failed battle day does
// not prevent minting.
func (b *BatchService) runWallet(ctx context.Context, session *PlayerSession, opts BatchOptions) error {
	var battleErr error
	if !opts.SkipBattles {
		day, err := session.Battle(ctx)
		b.update(func(p *entity.BatchProgress) {
			p.Wins += day.Wins
			p.Losses += day.Losses
			p.Fragments += day.Fragments
		})
		if err != nil {
			if errors.Is(err, ErrAuthFailed) || ctx.Err() != nil {
				return err
			}
			battleErr = err
		}
	}

	if !opts.MintEggs {
		return battleErr
	}
	eggs, err := session.MintEggs(ctx)
	b.update(func(p *entity.BatchProgress) { p.EggsMinted += eggs })
	return errors.Join(battleErr, err)
}

func (b *BatchService) update(fn func(p *entity.BatchProgress)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.progress)
}

func (b *BatchService) finish() entity.BatchProgress {
	b.update(func(p *entity.BatchProgress) {
		p.CurrentWallet = ""
		p.FinishedAt = b.now()
	})
	return b.Progress()
}
