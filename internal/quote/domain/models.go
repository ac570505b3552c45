// Package domain contains the resource quoting contract: pricing
// hypothetical resources against the tariffs in force right now.
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
)

// QuoteItem is one hypothetical resource to price. Volume is resource-hours
// for monthly-priced types and gibibytes for transfer-priced types. Metadata
// feeds the activation rules the same way usage record metadata does.
type QuoteItem struct {
	ID        string          `json:"id"`
	UsageType string          `json:"usageType"`
	Volume    decimal.Decimal `json:"volume"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// ItemQuote is the priced result for one item.
type ItemQuote struct {
	ID        string              `json:"id"`
	UsageType usagetype.UsageType `json:"usageType"`
	Quote     decimal.Decimal     `json:"quote"`
}

// Quote is the full quoting response.
type Quote struct {
	Items []ItemQuote     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Service interface {
	QuoteResources(ctx context.Context, items []QuoteItem) (*Quote, error)
}

var (
	ErrUnknownUsageType = errors.New("unknown_usage_type")
	ErrInvalidVolume    = errors.New("invalid_volume")
	ErrNoItems          = errors.New("no_quote_items")
)
