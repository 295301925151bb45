package port

import (
	"context"

	"metamon_player/internal/domain/entity"
)

// GameAPI defines the calls made against the Metamon game service.
type GameAPI interface {
	// Login exchanges the wallet signature for an access token.
	Login(ctx context.Context, cred entity.WalletCredential) (string, error)

	// WalletMonsters lists the metamons held by the wallet.
	WalletMonsters(ctx context.Context, token, address string) ([]entity.Monster, error)

	// WalletMonstersBySymbol is the older paginated listing, used as a fallback.
	WalletMonstersBySymbol(ctx context.Context, token, address string) ([]entity.Monster, error)

	// Opponents lists battle targets offered for the given monster.
	Opponents(ctx context.Context, token, address, monsterID string) ([]entity.Opponent, error)

	// ChangeFighter makes the given monster the account's active fighter.
	ChangeFighter(ctx context.Context, address, monsterID string) error

	// StartBattle fights one battle. It returns ErrNotEnoughFunds or ErrCannotFight
	// for the corresponding game responses.
	StartBattle(ctx context.Context, token string, req entity.BattleRequest) (entity.BattleOutcome, error)

	// LevelUp tries to level the monster up and reports whether the game accepted it.
	LevelUp(ctx context.Context, token, address, monsterID string) (bool, error)

	// CheckBag returns the items held in the wallet's bag.
	CheckBag(ctx context.Context, token, address string) ([]entity.BagItem, error)

	// MintEggs composes all available fragments into eggs.
	MintEggs(ctx context.Context, token, address string) (bool, error)
}
