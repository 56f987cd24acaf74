// Package watchlist holds the persisted, ordered set of tracked symbols.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"RSITracker/internal/model"

	"github.com/rs/zerolog/log"
)

// ErrDuplicate is returned when adding a symbol that is already tracked.
var ErrDuplicate = errors.New("symbol already in watchlist")

// Validator checks a normalised symbol against the data provider.
type Validator func(ctx context.Context, symbol string) (string, error)

// Store is the watchlist with concurrency safety. Every mutation is saved.
type Store struct {
	mu       sync.Mutex
	symbols  []string
	filePath string
	validate Validator
}

// Open loads the watchlist from filePath. A missing or corrupt file starts
// an empty watchlist instead of failing.
func Open(filePath string) *Store {
	symbols, err := LoadFile(filePath)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("watchlist unreadable, starting empty")
		symbols = nil
	}
	s := &Store{filePath: filePath}
	for _, raw := range symbols {
		sym, err := model.NormalizeSymbol(raw)
		if err != nil {
			log.Warn().Str("symbol", raw).Msg("dropping malformed symbol from watchlist file")
			continue
		}
		if !slices.Contains(s.symbols, sym) {
			s.symbols = append(s.symbols, sym)
		}
	}
	log.Info().Int("symbols", len(s.symbols)).Str("file", filePath).Msg("watchlist loaded")
	return s
}

// SetValidator installs a provider check run by Add before a symbol is accepted.
func (s *Store) SetValidator(v Validator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validate = v
}

// List returns a copy of the symbols in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.symbols)
}

// Contains reports whether symbol is tracked.
func (s *Store) Contains(symbol string) bool {
	sym, err := model.NormalizeSymbol(symbol)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.symbols, sym)
}

// Add normalises and appends symbol. Duplicates and invalid symbols are
// rejected and leave the watchlist unchanged.
func (s *Store) Add(ctx context.Context, symbol string) (string, error) {
	sym, err := model.NormalizeSymbol(symbol)
	if err != nil {
		return "", fmt.Errorf("%q: %w", symbol, err)
	}
	if s.Contains(sym) {
		return sym, fmt.Errorf("%s: %w", sym, ErrDuplicate)
	}

	s.mu.Lock()
	validate := s.validate
	s.mu.Unlock()
	if validate != nil {
		if sym, err = validate(ctx, sym); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: validation ran without the lock.
	if slices.Contains(s.symbols, sym) {
		return sym, fmt.Errorf("%s: %w", sym, ErrDuplicate)
	}
	s.symbols = append(s.symbols, sym)
	if err := s.save(); err != nil {
		log.Error().Err(err).Str("file", s.filePath).Msg("failed to save watchlist")
	}
	return sym, nil
}

// Remove drops symbol. Removing an absent symbol is a no-op and reports false.
func (s *Store) Remove(symbol string) bool {
	sym, err := model.NormalizeSymbol(symbol)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.symbols, sym)
	if i < 0 {
		return false
	}
	s.symbols = slices.Delete(s.symbols, i, i+1)
	if err := s.save(); err != nil {
		log.Error().Err(err).Str("file", s.filePath).Msg("failed to save watchlist")
	}
	return true
}

// Save writes the current watchlist to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	return SaveFile(s.filePath, s.symbols)
}
