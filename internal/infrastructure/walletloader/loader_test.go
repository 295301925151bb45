package walletloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"metamon_player/internal/pkg/logger"
)

const (
	addrA = "0x52908400098527886E0F7030069857D2E4169EE7"
	addrB = "0x8617E340B3D01FA5F11F306F4090FD50E238070D"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, '\t', SniffDelimiter("name\taddress\tsign\tmsg"))
	assert.Equal(t, ';', SniffDelimiter("name;address;sign;msg\r\n"))
	assert.Equal(t, ',', SniffDelimiter("name,address,sign,msg"))
	assert.Equal(t, ' ', SniffDelimiter("name  address sign msg"))
	assert.Equal(t, ',', SniffDelimiter("a,b,c"))
}

func TestGetWalletsByHeaderName(t *testing.T) {
	path := writeTable(t, "msg,address,name,sign\n"+
		"LogIn-1,"+addrA+",alice,0xaa\n"+
		"LogIn-2,"+addrB+",bob,0xbb\n")

	wallets, err := NewWalletFileLoader(path, false, logger.NewNop()).GetWallets()
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "alice", wallets[0].Name)
	assert.Equal(t, addrA, wallets[0].Address)
	assert.Equal(t, "0xaa", wallets[0].Sign)
	assert.Equal(t, "LogIn-1", wallets[0].Msg)
	assert.Equal(t, "bob", wallets[1].Name)
}

func TestGetWalletsSkipsInvalidAddresses(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	path := writeTable(t, "name\taddress\tsign\tmsg\n"+
		"broken\t0x1234\t0xaa\tLogIn\n"+
		"\n"+
		"good\t"+addrA+"\t0xbb\tLogIn\n")

	wallets, err := NewWalletFileLoader(path, false, logger.NewZapAdapter(zap.New(core))).GetWallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "good", wallets[0].Name)
	assert.Equal(t, 1, logs.FilterMessage("Skipping invalid wallet address format").Len())
}

func TestGetWalletsMissingColumn(t *testing.T) {
	path := writeTable(t, "name\taddress\tmsg\nalice\t"+addrA+"\tLogIn\n")

	_, err := NewWalletFileLoader(path, false, logger.NewNop()).GetWallets()
	assert.ErrorContains(t, err, `missing column "sign"`)
}

func TestGetWalletsMissingFile(t *testing.T) {
	_, err := NewWalletFileLoader(filepath.Join(t.TempDir(), "none.tsv"), false, logger.NewNop()).GetWallets()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSignatureVerification(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	msg := "LogIn-7d1e2f3a"
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	encoded := hexutil.Encode(sig)

	signer, err := RecoverSigner(msg, encoded)
	require.NoError(t, err)
	assert.Equal(t, owner, signer)

	core, logs := observer.New(zapcore.WarnLevel)
	path := writeTable(t, "name\taddress\tsign\tmsg\n"+
		"owner\t"+owner.Hex()+"\t"+encoded+"\t"+msg+"\n"+
		"other\t"+addrB+"\t"+encoded+"\t"+msg+"\n")

	wallets, err := NewWalletFileLoader(path, true, logger.NewZapAdapter(zap.New(core))).GetWallets()
	require.NoError(t, err)
	assert.Len(t, wallets, 2, "mismatched signatures are still handed to login")

	mismatches := logs.FilterMessage("Signature does not match wallet address").All()
	require.Len(t, mismatches, 1)
	assert.Equal(t, addrB, mismatches[0].ContextMap()["address"])
}

func TestRecoverSignerRejectsGarbage(t *testing.T) {
	_, err := RecoverSigner("msg", "0x1234")
	assert.ErrorContains(t, err, "invalid signature length")

	_, err = RecoverSigner("msg", "not-hex")
	assert.ErrorContains(t, err, "invalid signature encoding")
}
