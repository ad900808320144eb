package compare

import (
	"fmt"
	"strings"

	"github.com/gauntlet-qa/gauntlet/internal/common"
)

// Mode identifies a comparison strategy. The set is closed: adding a mode
// means adding a branch to Comparator.Compare.
type Mode string

const (
	// ModeExact matches on normalized string equality.
	ModeExact Mode = "exact"
	// ModeFuzzy matches when the best of four similarity ratios clears the
	// configured threshold.
	ModeFuzzy Mode = "fuzzy"
	// ModeContains matches when the normalized expected string is a
	// substring of the normalized actual string.
	ModeContains Mode = "contains"
	// ModeJSON matches on structural JSON equality: object key order is
	// irrelevant, array order is not.
	ModeJSON Mode = "json"
	// ModeSemantic delegates scoring to an LLM judge.
	ModeSemantic Mode = "semantic"
	// ModeCustom is reserved and currently rejected.
	ModeCustom Mode = "custom"
)

// ParseMode maps a config or spreadsheet cell to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact:
		return ModeExact, nil
	case ModeFuzzy:
		return ModeFuzzy, nil
	case ModeContains:
		return ModeContains, nil
	case ModeJSON:
		return ModeJSON, nil
	case ModeSemantic:
		return ModeSemantic, nil
	case ModeCustom:
		return ModeCustom, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedMode, s)
	}
}

func (m Mode) String() string {
	return string(m)
}
