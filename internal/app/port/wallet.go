package port

import "metamon_player/internal/domain/entity"

// WalletProvider defines the interface for fetching wallet credentials.
type WalletProvider interface {
	GetWallets() ([]entity.WalletCredential, error)
}
