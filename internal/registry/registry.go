// Package registry talks to the validator network that serves authoritative
// on-chain table metadata and transaction receipts.
package registry

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

// CreatedTraitType is the attribute trait holding the table's creation time
// in unix seconds.
const CreatedTraitType = "created"

// Client is the read-only contract this service needs from the registry.
type Client interface {
	GetTableByID(ctx context.Context, chainID int64, tableID string) (*Table, error)
	GetReceiptByTxnHash(ctx context.Context, chainID int64, txnHash string) (*Receipt, error)
}

// Attribute is a metadata attribute in the ERC-721 style used by the registry.
type Attribute struct {
	DisplayType string `json:"display_type,omitempty"`
	TraitType   string `json:"trait_type"`
	Value       any    `json:"value"`
}

// Table is the metadata the registry holds for an on-chain table.
type Table struct {
	Name         string             `json:"name"`
	ExternalURL  string             `json:"externalUrl,omitempty"`
	AnimationURL string             `json:"animationUrl,omitempty"`
	Image        string             `json:"image,omitempty"`
	Attributes   []Attribute        `json:"attributes"`
	Schema       models.TableSchema `json:"schema"`
}

// CreatedAt returns the value of the "created" attribute in unix seconds.
func (t *Table) CreatedAt() (int64, error) {
	for _, attr := range t.Attributes {
		if attr.TraitType != CreatedTraitType {
			continue
		}
		secs, ok := toInt64(attr.Value)
		if !ok {
			return 0, appErr.Newf(appErr.CodeMissingAttribute, "table %s has a non-numeric %q attribute", t.Name, CreatedTraitType).
				WithMeta("table_name", t.Name)
		}
		return secs, nil
	}
	return 0, appErr.Newf(appErr.CodeMissingAttribute, "table %s has no %q attribute", t.Name, CreatedTraitType).
		WithMeta("table_name", t.Name)
}

// Receipt is the validator's record of a processed transaction.
type Receipt struct {
	ChainID       int64    `json:"chain_id"`
	TxnHash       string   `json:"transaction_hash"`
	BlockNumber   int64    `json:"block_number"`
	TableID       string   `json:"table_id,omitempty"`
	TableIDs      []string `json:"table_ids,omitempty"`
	Error         string   `json:"error,omitempty"`
	ErrorEventIdx int      `json:"error_event_idx,omitempty"`
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
