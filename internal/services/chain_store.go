package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"optionrank/internal/config"
	apierrors "optionrank/internal/errors"
	"optionrank/pkg/contracts/domain"
)

// ChainInfo describes one stored snapshot file
type ChainInfo struct {
	Symbol    string    `json:"symbol"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChainStore is a domain.ChainProvider reading <SYMBOL>.json snapshots
// from the chains directory
type ChainStore struct {
	paths   *config.Paths
	maxSize int64
	logger  *slog.Logger
}

var _ domain.ChainProvider = (*ChainStore)(nil)

// NewChainStore creates a store over paths.ChainsDir
func NewChainStore(paths *config.Paths, logger *slog.Logger) *ChainStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainStore{
		paths:   paths,
		maxSize: config.MaxSnapshotFileSize,
		logger:  logger.With(slog.String("component", "chain_store")),
	}
}

// Dir returns the directory the store reads
func (s *ChainStore) Dir() string {
	return s.paths.ChainsDir
}

// FetchChain loads the snapshot of symbol. A non-zero expiry keeps only the
// contracts expiring on that calendar day.
func (s *ChainStore) FetchChain(ctx context.Context, symbol string, expiry time.Time) (*domain.ChainSnapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.IsValidSymbol(symbol) {
		return nil, &domain.InvalidInputError{Field: "symbol", Value: symbol}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.paths.ChainPath(symbol)
	snap, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if snap.Symbol == "" {
		snap.Symbol = symbol
	}

	if !expiry.IsZero() {
		kept := snap.Contracts[:0:0]
		for _, c := range snap.Contracts {
			if sameDay(c.Expiry, expiry) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return nil, apierrors.NotFound(
				fmt.Sprintf("%s contracts expiring %s", symbol, expiry.Format("2006-01-02")), ErrNoContracts)
		}
		snap.Contracts = kept
		snap.Expiry = expiry
	}

	s.logger.DebugContext(ctx, "chain loaded",
		slog.String("symbol", symbol),
		slog.String("path", path),
		slog.Int("contracts", len(snap.Contracts)))

	return snap, nil
}

// ReadFile decodes one snapshot file, enforcing the size cap
func (s *ChainStore) ReadFile(path string) (*domain.ChainSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apierrors.NotFound("option chain "+strings.TrimSuffix(filepath.Base(path), config.SnapshotFileSuffix), err).
				WithContext("path", path)
		}
		return nil, apierrors.StorageError("open snapshot", err).WithContext("path", path)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return nil, apierrors.StorageError("read snapshot", err).WithContext("path", path)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apierrors.StorageError("read snapshot", ErrSnapshotTooLarge).
			WithContext("path", path).
			WithContext("max_bytes", s.maxSize)
	}

	var snap domain.ChainSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apierrors.ParsingError(filepath.Base(path), err)
	}
	return &snap, nil
}

// Save writes snap as <SYMBOL>.json, replacing any previous file atomically
func (s *ChainStore) Save(ctx context.Context, snap *domain.ChainSnapshot) (string, error) {
	if snap == nil {
		return "", &domain.InvalidInputError{Field: "snapshot", Value: "nil"}
	}
	symbol := strings.ToUpper(strings.TrimSpace(snap.Symbol))
	if !domain.IsValidSymbol(symbol) {
		return "", &domain.InvalidInputError{Field: "symbol", Value: snap.Symbol}
	}
	if err := snap.Validate(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", apierrors.StorageError("encode snapshot", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", apierrors.StorageError("write snapshot", ErrSnapshotTooLarge)
	}

	if err := os.MkdirAll(s.paths.ChainsDir, 0o755); err != nil {
		return "", apierrors.StorageError("create chains directory", err)
	}

	path := s.paths.ChainPath(symbol)
	tmp, err := os.CreateTemp(s.paths.ChainsDir, "."+symbol+"-*.tmp")
	if err != nil {
		return "", apierrors.StorageError("write snapshot", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", apierrors.StorageError("write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return "", apierrors.StorageError("write snapshot", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", apierrors.StorageError("replace snapshot", err)
	}

	s.logger.InfoContext(ctx, "chain stored",
		slog.String("symbol", symbol),
		slog.String("path", path),
		slog.Int("contracts", len(snap.Contracts)))

	return path, nil
}

// List returns the stored snapshots sorted by symbol. A missing directory
// is an empty list.
func (s *ChainStore) List(ctx context.Context) ([]ChainInfo, error) {
	entries, err := os.ReadDir(s.paths.ChainsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ChainInfo{}, nil
		}
		return nil, apierrors.StorageError("list chains", err)
	}

	chains := make([]ChainInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, config.SnapshotFileSuffix) {
			continue
		}
		symbol := strings.TrimSuffix(name, config.SnapshotFileSuffix)
		if !domain.IsValidSymbol(symbol) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable chain file",
				slog.String("file", name),
				slog.String("error", err.Error()))
			continue
		}
		chains = append(chains, ChainInfo{
			Symbol:    symbol,
			SizeBytes: info.Size(),
			UpdatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(chains, func(i, j int) bool { return chains[i].Symbol < chains[j].Symbol })
	return chains, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
