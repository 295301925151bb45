package port

import "metamon_player/internal/domain/entity"

// StatsStore persists battle statistics for a wallet.
type StatsStore interface {
	// AppendDay merges the summary and per-monster rows into the wallet's history.
	AppendDay(walletName string, summary entity.SummaryRow, runs []entity.BattleRunRow) error
}
