package metamonapi

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

// Endpoint paths, relative to the configured base URL.
const (
	LoginPath                  = "/login"
	WalletPropertyListPath     = "/getWalletPropertyList"
	WalletPropertyBySymbolPath = "/getWalletPropertyBySymbol"
	BattleObjectsPath          = "/getBattelObjects"
	ChangeFighterPath          = "/isFightMonster"
	StartBattlePath            = "/startBattle"
	LevelUpPath                = "/updateMonster"
	CheckBagPath               = "/checkBag"
	MintEggPath                = "/composeMonsterEgg"
)

const (
	loginNetwork    = "1"
	loginClientType = "MetaMask"
	tokenHeader     = "accessToken"

	// defaultFragmentsPerBattle is credited when a battle result omits bpFragmentNum.
	defaultFragmentsPerBattle = 10
)

type loginData struct {
	AccessToken string `json:"accessToken"`
}

type walletPropertyData struct {
	MetamonList []entity.Monster `json:"metamonList"`
}

type propertyBySymbolData struct {
	Data []entity.Monster `json:"data"`
}

type battleObjectsData struct {
	Objects []entity.Opponent `json:"objects"`
}

type battleData struct {
	ChallengeResult bool `json:"challengeResult"`
	BpFragmentNum   *int `json:"bpFragmentNum"`
}

type bagData struct {
	Item []entity.BagItem `json:"item"`
}

// GameClient implements port.GameAPI on top of Client.
type GameClient struct {
	client *Client
	logger *zap.Logger
}

// NewGameClient creates a new GameClient.
func NewGameClient(client *Client, logger *zap.Logger) port.GameAPI {
	return &GameClient{
		client: client,
		logger: logger.Named("GameClient"),
	}
}

func authHeaders(token string) map[string]string {
	return map[string]string{tokenHeader: token}
}

// Login implements port.GameAPI.
func (g *GameClient) Login(ctx context.Context, cred entity.WalletCredential) (string, error) {
	env, err := g.client.Post(ctx, LoginPath, Form{
		"address":    cred.Address,
		"sign":       cred.Sign,
		"msg":        cred.Msg,
		"network":    loginNetwork,
		"clientType": loginClientType,
	}, nil)
	if err != nil {
		return "", err
	}
	if !env.OK() {
		return "", fmt.Errorf("%w: code=%q message=%q", port.ErrLoginRejected, env.Code, env.Message)
	}

	var data loginData
	if err := env.Decode(&data); err != nil || data.AccessToken == "" {
		return "", fmt.Errorf("%w: response carried no access token", port.ErrLoginRejected)
	}
	return data.AccessToken, nil
}

// WalletMonsters implements port.GameAPI. A response without a list means the wallet holds none.
func (g *GameClient) WalletMonsters(ctx context.Context, token, address string) ([]entity.Monster, error) {
	env, err := g.client.Post(ctx, WalletPropertyListPath, Form{"address": address}, authHeaders(token))
	if err != nil {
		return nil, err
	}
	if env.Code == CodeFail {
		g.logger.Warn("Wallet listing refused", zap.String("address", address), zap.String("message", env.Message))
		return []entity.Monster{}, nil
	}

	var data walletPropertyData
	if !env.HasData() {
		g.logger.Debug("Wallet listing returned no data", zap.String("address", address), zap.String("code", env.Code))
		return []entity.Monster{}, nil
	}
	if err := env.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode wallet monsters: %w", err)
	}
	return nonNilMonsters(data.MetamonList), nil
}

// WalletMonstersBySymbol implements port.GameAPI.
func (g *GameClient) WalletMonstersBySymbol(ctx context.Context, token, address string) ([]entity.Monster, error) {
	env, err := g.client.Post(ctx, WalletPropertyBySymbolPath, Form{
		"address":  address,
		"page":     "1",
		"pageSize": "60",
		"payType":  "-6",
	}, authHeaders(token))
	if err != nil {
		return nil, err
	}

	var data propertyBySymbolData
	if !env.HasData() {
		g.logger.Debug("Legacy wallet listing returned no data", zap.String("address", address), zap.String("code", env.Code))
		return []entity.Monster{}, nil
	}
	if err := env.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode legacy wallet monsters: %w", err)
	}
	return nonNilMonsters(data.Data), nil
}

// Opponents implements port.GameAPI. A response without objects means no opponents are offered.
func (g *GameClient) Opponents(ctx context.Context, token, address, monsterID string) ([]entity.Opponent, error) {
	env, err := g.client.Post(ctx, BattleObjectsPath, Form{
		"address":   address,
		"metamonId": monsterID,
		"front":     "1",
	}, authHeaders(token))
	if err != nil {
		return nil, err
	}

	var data battleObjectsData
	if !env.HasData() {
		g.logger.Debug("Opponent listing returned no data", zap.String("metamonId", monsterID), zap.String("code", env.Code))
		return []entity.Opponent{}, nil
	}
	if err := env.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode opponents: %w", err)
	}
	if data.Objects == nil {
		return []entity.Opponent{}, nil
	}
	return data.Objects, nil
}

// ChangeFighter implements port.GameAPI.
func (g *GameClient) ChangeFighter(ctx context.Context, address, monsterID string) error {
	env, err := g.client.Post(ctx, ChangeFighterPath, Form{
		"metamonId": monsterID,
		"address":   address,
	}, nil)
	if err != nil {
		return err
	}
	if !env.OK() {
		g.logger.Debug("Change fighter not acknowledged", zap.String("metamonId", monsterID), zap.String("code", env.Code))
	}
	return nil
}

// StartBattle implements port.GameAPI. A null or missing result means the monster cannot fight.
func (g *GameClient) StartBattle(ctx context.Context, token string, req entity.BattleRequest) (entity.BattleOutcome, error) {
	env, err := g.client.Post(ctx, StartBattlePath, Form{
		"monsterA":    req.MonsterID,
		"monsterB":    req.TargetID,
		"address":     req.Address,
		"battleLevel": strconv.Itoa(req.League),
	}, authHeaders(token))
	if err != nil {
		return entity.BattleOutcome{}, err
	}
	if env.Code == CodeBattleNoPay {
		return entity.BattleOutcome{}, port.ErrNotEnoughFunds
	}
	if !env.HasData() {
		return entity.BattleOutcome{}, fmt.Errorf("%w: code=%q message=%q", port.ErrCannotFight, env.Code, env.Message)
	}

	var data battleData
	if err := env.Decode(&data); err != nil {
		return entity.BattleOutcome{}, fmt.Errorf("%w: undecodable result: %v", port.ErrCannotFight, err)
	}

	fragments := defaultFragmentsPerBattle
	if data.BpFragmentNum != nil {
		fragments = *data.BpFragmentNum
	}
	return entity.BattleOutcome{Won: data.ChallengeResult, Fragments: fragments}, nil
}

// LevelUp implements port.GameAPI.
func (g *GameClient) LevelUp(ctx context.Context, token, address, monsterID string) (bool, error) {
	env, err := g.client.Post(ctx, LevelUpPath, Form{
		"nftId":   monsterID,
		"address": address,
	}, authHeaders(token))
	if err != nil {
		return false, err
	}
	return env.OK(), nil
}

// CheckBag implements port.GameAPI. A response without items means an empty bag.
func (g *GameClient) CheckBag(ctx context.Context, token, address string) ([]entity.BagItem, error) {
	env, err := g.client.Post(ctx, CheckBagPath, Form{"address": address}, authHeaders(token))
	if err != nil {
		return nil, err
	}

	var data bagData
	if !env.HasData() {
		g.logger.Debug("Bag check returned no data", zap.String("address", address), zap.String("code", env.Code))
		return []entity.BagItem{}, nil
	}
	if err := env.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode bag: %w", err)
	}
	return data.Item, nil
}

// MintEggs implements port.GameAPI.
func (g *GameClient) MintEggs(ctx context.Context, token, address string) (bool, error) {
	env, err := g.client.Post(ctx, MintEggPath, Form{"address": address}, authHeaders(token))
	if err != nil {
		return false, err
	}
	if !env.OK() {
		g.logger.Warn("Mint rejected", zap.String("address", address), zap.String("code", env.Code), zap.String("message", env.Message))
	}
	return env.OK(), nil
}

func nonNilMonsters(m []entity.Monster) []entity.Monster {
	if m == nil {
		return []entity.Monster{}
	}
	return m
}
