package search

import (
	"strings"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// Mode selects which index answers a query.
type Mode int

const (
	ModeLexical Mode = iota + 1
	ModeSemantic
	ModeHybrid
)

// Modes lists every mode in evaluation order.
var Modes = []Mode{ModeLexical, ModeSemantic, ModeHybrid}

// ParseMode accepts lexical|bm25, semantic|vector and hybrid, case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lexical", "bm25":
		return ModeLexical, nil
	case "semantic", "vector":
		return ModeSemantic, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return 0, ragerrors.InvalidMode(s)
	}
}

// String returns the canonical mode name.
func (m Mode) String() string {
	switch m {
	case ModeLexical:
		return "lexical"
	case ModeSemantic:
		return "semantic"
	case ModeHybrid:
		return "hybrid"
	default:
		return "invalid"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeLexical && m <= ModeHybrid
}
