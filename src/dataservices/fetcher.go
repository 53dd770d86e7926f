package dataservices

import (
	"context"
	"time"

	"github.com/jiaming2012/spread-trading/src/models"
)

// OptionsChainFetcher is one interchangeable options-chain data source.
// Implementations return raw normalized rows; all quality filtering and
// contract construction happens downstream in the chain manager.
type OptionsChainFetcher interface {
	Name() string

	// Available reports whether this source can serve the given chain date.
	// Live sources only cover a recent window; historical sources cover
	// everything.
	Available(date, now time.Time) bool

	FetchChain(ctx context.Context, symbol string, date time.Time) ([]models.OptionChainRowDTO, error)

	// ExpirationLayout is the source's expiration date format, consumed by
	// the row adapter.
	ExpirationLayout() string
}
