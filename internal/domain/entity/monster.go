package entity

const (
	// MaxLevel is the level at which a metamon can no longer battle.
	MaxLevel = 60
	// MaxExp is the experience ceiling; a metamon at or above it must level up first.
	MaxExp = 600
)

// Rarity tiers as reported by the game API.
const (
	RarityCommon = "N"
	RarityRare   = "R"
)

// Monster is a metamon owned by the wallet.
type Monster struct {
	ID      string `json:"id"`
	TokenID string `json:"tokenId"`
	Rarity  string `json:"rarity"`
	Power   int    `json:"sca"`
	Level   int    `json:"level"`
	Exp     int    `json:"exp"`
	Tear    int    `json:"tear"`
}

// CanEnterBattles reports whether the monster belongs in the day's eligible list.
func (m Monster) CanEnterBattles() bool {
	return m.Tear > 0 && m.Level < MaxLevel
}

// ExpCapped reports whether the monster is blocked by the level or experience ceiling.
func (m Monster) ExpCapped() bool {
	return m.Level >= MaxLevel || m.Exp >= MaxExp
}

// Opponent is a battle target offered by the game for one of our monsters.
type Opponent struct {
	ID     string `json:"id"`
	Rarity string `json:"rarity"`
	Power  int    `json:"sca"`
}

// BattleRequest describes a single battle between our monster and a target.
type BattleRequest struct {
	Address   string
	MonsterID string
	TargetID  string
	League    int
}

// BattleOutcome is the result of one battle.
type BattleOutcome struct {
	Won       bool
	Fragments int
}
