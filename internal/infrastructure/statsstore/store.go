package statsstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"metamon_player/internal/app/port"
	"metamon_player/internal/domain/entity"
)

const (
	summarySuffix = "_summary.tsv"
	statsSuffix   = "_stats.tsv"
)

// TSVStore keeps per-wallet battle history in tab-delimited files under a directory.
// Each write replaces the file atomically, so a crash never leaves a half-merged table.
type TSVStore struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewTSVStore creates a new TSVStore rooted at dir.
func NewTSVStore(dir string, logger *zap.Logger) port.StatsStore {
	return &TSVStore{
		dir:    dir,
		logger: logger.Named("StatsStore"),
	}
}

// SummaryPath returns the summary file of the named wallet.
func (s *TSVStore) SummaryPath(walletName string) string {
	return filepath.Join(s.dir, fileStem(walletName)+summarySuffix)
}

// StatsPath returns the per-metamon stats file of the named wallet.
func (s *TSVStore) StatsPath(walletName string) string {
	return filepath.Join(s.dir, fileStem(walletName)+statsSuffix)
}

// AppendDay implements port.StatsStore. New rows are placed before the existing history.
func (s *TSVStore) AppendDay(walletName string, summary entity.SummaryRow, runs []entity.BattleRunRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", s.dir, err)
	}

	summaryPath := s.SummaryPath(walletName)
	if err := mergeTable(summaryPath, entity.SummaryHeader, [][]string{summary.Record()}); err != nil {
		return err
	}

	records := make([][]string, 0, len(runs))
	for _, r := range runs {
		records = append(records, r.Record())
	}
	statsPath := s.StatsPath(walletName)
	if err := mergeTable(statsPath, entity.BattleRunHeader, records); err != nil {
		return err
	}

	s.logger.Info("Battle results saved",
		zap.String("wallet", walletName),
		zap.String("summary", summaryPath),
		zap.String("stats", statsPath),
		zap.Int("runs", len(runs)))
	return nil
}

// mergeTable writes header and rows followed by the rows already stored at path.
// Existing rows are aligned by column name; columns only present in the old file
// are kept at the end of the header.
func mergeTable(path string, header []string, rows [][]string) error {
	oldHeader, oldRows, err := readTable(path)
	if err != nil {
		return err
	}

	merged := append([]string(nil), header...)
	pos := make(map[string]int, len(merged))
	for i, h := range merged {
		pos[h] = i
	}
	for _, h := range oldHeader {
		if _, ok := pos[h]; !ok {
			pos[h] = len(merged)
			merged = append(merged, h)
		}
	}

	out := make([][]string, 0, len(rows)+len(oldRows)+1)
	out = append(out, merged)
	for _, r := range rows {
		out = append(out, pad(r, len(merged)))
	}
	for _, old := range oldRows {
		row := make([]string, len(merged))
		for i, h := range oldHeader {
			if i < len(old) {
				row[pos[h]] = old[i]
			}
		}
		out = append(out, row)
	}

	return writeAtomic(path, out)
}

func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func writeAtomic(path string, records [][]string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = '\t'
	if err = w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func pad(r []string, n int) []string {
	if len(r) >= n {
		return r
	}
	out := make([]string, n)
	copy(out, r)
	return out
}

func fileStem(walletName string) string {
	return strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_").Replace(walletName)
}
