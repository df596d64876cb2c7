// Package tablename parses and formats chain-native table names of the form
// <prefix>_<chainId>_<tableId>.
package tablename

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/rxtech-lab/table-studio/internal/constants"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Name is a parsed chain-native table name.
type Name struct {
	Prefix  string `json:"prefix"`
	ChainID int64  `json:"chain_id"`
	// TableID is the canonical decimal form of the registry token id
	TableID string `json:"table_id"`
}

// String formats the name back into its canonical form.
func (n Name) String() string {
	return Format(n.Prefix, n.ChainID, n.TableID)
}

// ChainLookup reports whether a chain id is recognised.
type ChainLookup func(chainID int64) bool

// Codec parses table names against a set of recognised chains.
type Codec struct {
	chains ChainLookup
}

// NewCodec creates a Codec. A nil lookup accepts every chain id.
func NewCodec(chains ChainLookup) *Codec {
	return &Codec{chains: chains}
}

var defaultCodec = NewCodec(constants.IsSupportedChain)

// Parse parses fullName using the static supported chain table.
func Parse(fullName string) (Name, error) {
	return defaultCodec.Parse(fullName)
}

// Parse splits fullName from the right: the last segment is the table id,
// the one before it the chain id, and everything preceding is the prefix.
func (c *Codec) Parse(fullName string) (Name, error) {
	name := strings.TrimSpace(fullName)

	tableSep := strings.LastIndex(name, "_")
	if tableSep < 0 {
		return Name{}, invalid(fullName, "expected <prefix>_<chainId>_<tableId>")
	}
	chainSep := strings.LastIndex(name[:tableSep], "_")
	if chainSep < 0 {
		return Name{}, invalid(fullName, "expected <prefix>_<chainId>_<tableId>")
	}

	prefix := name[:chainSep]
	chainPart := name[chainSep+1 : tableSep]
	tablePart := name[tableSep+1:]

	if prefix != "" && !prefixPattern.MatchString(prefix) {
		return Name{}, invalid(fullName, fmt.Sprintf("prefix %q contains invalid characters", prefix))
	}

	chainID, err := parseChainID(chainPart)
	if err != nil {
		return Name{}, invalid(fullName, err.Error())
	}
	if c.chains != nil && !c.chains(chainID) {
		return Name{}, invalid(fullName, fmt.Sprintf("chain id %d is not supported", chainID))
	}

	tableID, err := ParseTableID(tablePart)
	if err != nil {
		return Name{}, invalid(fullName, err.Error())
	}

	return Name{Prefix: prefix, ChainID: chainID, TableID: tableID}, nil
}

// Format builds the canonical name for the given parts.
func Format(prefix string, chainID int64, tableID string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, chainID, tableID)
}

// ParseTableID validates a decimal, non-negative token id of arbitrary size
// and returns it in canonical form (no sign, no leading zeros).
func ParseTableID(s string) (string, error) {
	if s == "" || !isDigits(s) {
		return "", fmt.Errorf("table id %q is not a non-negative integer", s)
	}
	id, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "", fmt.Errorf("table id %q is not a non-negative integer", s)
	}
	return id.String(), nil
}

func parseChainID(s string) (int64, error) {
	if s == "" || !isDigits(s) {
		return 0, fmt.Errorf("chain id %q is not a non-negative integer", s)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chain id %q is out of range", s)
	}
	return id, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalid(fullName, reason string) *appErr.AppError {
	return appErr.Newf(appErr.CodeInvalidName, "invalid table name %q: %s", fullName, reason).
		WithMeta("table_name", fullName)
}
