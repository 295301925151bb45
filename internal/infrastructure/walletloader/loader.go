package walletloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

// Column names expected in the header row.
const (
	ColumnName    = "name"
	ColumnAddress = "address"
	ColumnSign    = "sign"
	ColumnMsg     = "msg"
)

// candidateDelimiters are tried against the header line in this order.
var candidateDelimiters = []rune{'\t', ';', ',', ' '}

// WalletFileLoader implements the port.WalletProvider interface by loading wallet
// credentials from a delimited table.
type WalletFileLoader struct {
	filePath         string
	verifySignatures bool
	logger           port.Logger
}

// NewWalletFileLoader creates a new WalletFileLoader.
func NewWalletFileLoader(filePath string, verifySignatures bool, logger port.Logger) port.WalletProvider {
	return &WalletFileLoader{
		filePath:         filePath,
		verifySignatures: verifySignatures,
		logger:           logger,
	}
}

// GetWallets reads wallet credentials from the configured file path.
func (l *WalletFileLoader) GetWallets() ([]entity.WalletCredential, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}

	content := strings.TrimPrefix(string(data), "\ufeff")
	headerLine, _, _ := strings.Cut(content, "\n")
	delim := SniffDelimiter(headerLine)

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := readRecord(reader, delim)
	if err != nil {
		return nil, fmt.Errorf("failed to read header of wallet file %s: %w", l.filePath, err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, fmt.Errorf("wallet file %s: %w", l.filePath, err)
	}

	var wallets []entity.WalletCredential
	for {
		record, err := readRecord(reader, delim)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
		}
		if len(record) == 0 {
			continue
		}
		lineNum, _ := reader.FieldPos(0)

		cred := entity.WalletCredential{
			Name:    field(record, index[ColumnName]),
			Address: field(record, index[ColumnAddress]),
			Sign:    field(record, index[ColumnSign]),
			Msg:     field(record, index[ColumnMsg]),
		}
		if !common.IsHexAddress(cred.Address) {
			l.logger.Warn("Skipping invalid wallet address format", "file", l.filePath, "line_number", lineNum, "address", cred.Address)
			continue
		}
		if l.verifySignatures {
			l.checkSignature(cred, lineNum)
		}
		wallets = append(wallets, cred)
	}

	l.logger.Info("Wallets loaded successfully from file", "count", len(wallets), "path", l.filePath, "delimiter", string(delim))
	return wallets, nil
}

func (l *WalletFileLoader) checkSignature(cred entity.WalletCredential, lineNum int) {
	signer, err := RecoverSigner(cred.Msg, cred.Sign)
	if err != nil {
		l.logger.Warn("Could not recover signer", "line_number", lineNum, "address", cred.Address, "error", err)
		return
	}
	if signer != common.HexToAddress(cred.Address) {
		l.logger.Warn("Signature does not match wallet address", "line_number", lineNum, "address", cred.Address, "signer", signer.Hex())
	}
}

// SniffDelimiter picks the delimiter of a header line among tab, semicolon, comma and
// space. A candidate that splits the line into every required column wins; otherwise
// the most frequent candidate is used, defaulting to tab.
func SniffDelimiter(headerLine string) rune {
	headerLine = strings.TrimRight(headerLine, "\r\n")
	for _, d := range candidateDelimiters {
		if _, err := columnIndex(splitHeader(headerLine, d)); err == nil {
			return d
		}
	}

	best, bestCount := '\t', 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(headerLine, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// RecoverSigner returns the address that produced a personal_sign signature over msg.
func RecoverSigner(msg, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func splitHeader(line string, delim rune) []string {
	return compact(strings.Split(line, string(delim)), delim)
}

func readRecord(r *csv.Reader, delim rune) ([]string, error) {
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	return compact(record, delim), nil
}

// compact drops the empty fields produced by runs of spaces when space is the delimiter.
func compact(record []string, delim rune) []string {
	if delim != ' ' {
		return record
	}
	out := record[:0]
	for _, f := range record {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{ColumnName, ColumnAddress, ColumnSign, ColumnMsg} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return index, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
