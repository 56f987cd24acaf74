package watchlist

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParsePortfolio(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{"csv ticker column", "p.csv", "Name,Ticker,Shares\nApple,AAPL,10\nMicrosoft,MSFT,5\n", []string{"AAPL", "MSFT"}},
		{"semicolon code column", "p.csv", "qty;Code\n1;nvda\n2;amd\n", []string{"nvda", "amd"}},
		{"tab first column fallback", "p.tsv", "name\tqty\nTSLA\t3\n", []string{"TSLA"}},
		{"text file", "p.txt", "aapl\n\n# comment\n msft \n", []string{"aapl", "msft"}},
		{"single column csv as text", "p.csv", "AAPL\nGOOG\n", []string{"AAPL", "GOOG"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePortfolio(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("ParsePortfolio: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestStore_Import(t *testing.T) {
	s, path := newTestStore(t)
	s.AddMany([]string{"AAPL"})

	res, err := s.Import(writeFile(t, "p.txt", "aapl\nmsft\nMSFT\nnot valid\n"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !slices.Equal(res.Added, []string{"MSFT"}) {
		t.Errorf("added %v", res.Added)
	}
	if !slices.Equal(res.Duplicates, []string{"AAPL", "MSFT"}) {
		t.Errorf("duplicates %v", res.Duplicates)
	}
	if !slices.Equal(res.Invalid, []string{"not valid"}) {
		t.Errorf("invalid %v", res.Invalid)
	}
	if got := Open(path).List(); !slices.Equal(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("import not persisted: %v", got)
	}
}
