package watchlist

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"RSITracker/internal/model"

	"github.com/rs/zerolog/log"
)

// ImportResult summarises a bulk import.
type ImportResult struct {
	Added      []string `json:"added"`
	Duplicates []string `json:"duplicates"`
	Invalid    []string `json:"invalid"`
}

var symbolColumns = []string{"symbol", "ticker", "stock", "code"}

// ParsePortfolio reads symbols from a CSV/TSV file with a header row or from a
// plain text file with one symbol per line. Files ending in .txt are always
// treated as text.
func ParsePortfolio(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return parseText(bytes.NewReader(data))
	}
	symbols, err := parseCSV(data)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("not a CSV portfolio, trying text")
		return parseText(bytes.NewReader(data))
	}
	return symbols, nil
}

func sniffDelimiter(sample []byte) rune {
	switch {
	case bytes.ContainsRune(sample, ','):
		return ','
	case bytes.ContainsRune(sample, '\t'):
		return '\t'
	case bytes.ContainsRune(sample, ';'):
		return ';'
	}
	return ','
}

func parseCSV(data []byte) ([]string, error) {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(sample)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("single column, not a CSV portfolio")
	}
	col := 0
	for i, h := range header {
		if slices.Contains(symbolColumns, strings.ToLower(strings.TrimSpace(h))) {
			col = i
			break
		}
	}

	var symbols []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col < len(rec) {
			symbols = append(symbols, rec[col])
		}
	}
	return symbols, nil
}

func parseText(rd io.Reader) ([]string, error) {
	var symbols []string
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	return symbols, sc.Err()
}

// AddMany adds symbols without provider validation, saving once.
func (s *Store) AddMany(symbols []string) ImportResult {
	var res ImportResult
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range symbols {
		sym, err := model.NormalizeSymbol(raw)
		if err != nil {
			res.Invalid = append(res.Invalid, strings.TrimSpace(raw))
			continue
		}
		if slices.Contains(s.symbols, sym) {
			if !slices.Contains(res.Duplicates, sym) {
				res.Duplicates = append(res.Duplicates, sym)
			}
			continue
		}
		s.symbols = append(s.symbols, sym)
		res.Added = append(res.Added, sym)
	}
	if len(res.Added) > 0 {
		if err := s.save(); err != nil {
			log.Error().Err(err).Str("file", s.filePath).Msg("failed to save watchlist")
		}
	}
	return res
}

// Import parses a portfolio file and adds its symbols.
func (s *Store) Import(path string) (ImportResult, error) {
	symbols, err := ParsePortfolio(path)
	if err != nil {
		return ImportResult{}, err
	}
	res := s.AddMany(symbols)
	log.Info().Str("file", path).Int("added", len(res.Added)).
		Int("duplicates", len(res.Duplicates)).Int("invalid", len(res.Invalid)).
		Msg("portfolio imported")
	return res, nil
}
