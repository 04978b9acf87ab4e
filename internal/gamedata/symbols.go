package gamedata

import (
	"errors"

	"github.com/samdwyer/beatkanji/internal/symbol"
)

// SymbolsFile represents the structure of symbols.json.
type SymbolsFile struct {
	Symbols []symbol.Symbol `json:"symbols"`
}

// LoadSymbols loads the bundled kana and kanji from symbols.json.
func LoadSymbols() ([]symbol.Symbol, error) {
	file, err := Load[SymbolsFile]("symbols.json")
	if err != nil {
		return nil, err
	}
	return file.Symbols, nil
}

// LoadSymbolRegistry builds an in-memory catalog over the bundled symbols.
// It is used when no SQLite catalog is configured.
func LoadSymbolRegistry() (*symbol.Registry, error) {
	symbols, err := LoadSymbols()
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, errors.New("no symbols loaded from symbols.json")
	}
	return symbol.NewRegistry(symbols), nil
}
