package analytics

import (
	"fmt"

	"github.com/stockdash/portfolio_service/internal/domain/entities"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
)

// WritePolicy decides what a partial per-holding write failure means
type WritePolicy string

const (
	// WritePolicyBestEffort logs failed holding writes and still succeeds
	WritePolicyBestEffort WritePolicy = "best_effort"
	// WritePolicyStrict fails the recomputation when any holding write fails
	WritePolicyStrict WritePolicy = "strict"
)

// Evaluate returns an error when the batch is unacceptable under the policy
func (p WritePolicy) Evaluate(batch entities.BatchWriteResult) error {
	failed := batch.Failed()
	if len(failed) == 0 || p != WritePolicyStrict {
		return nil
	}
	return apperrors.WrapSentinel(apperrors.ErrHoldingWrite,
		fmt.Errorf("%d of %d holding writes failed, first %s: %w",
			len(failed), len(batch.Results), failed[0].HoldingID, failed[0].Err))
}

// PriceFallback decides how a holding without a current price is valued
type PriceFallback string

const (
	PriceFallbackZero        PriceFallback = "zero"
	PriceFallbackAverageCost PriceFallback = "average_cost"
	PriceFallbackExclude     PriceFallback = "exclude"
)

// PersistMode selects how recomputed values are written
type PersistMode string

const (
	// PersistModePerRow issues independent writes per holding, then the portfolio
	PersistModePerRow PersistMode = "per_row"
	// PersistModeTransactional writes every row in one transaction
	PersistModeTransactional PersistMode = "transactional"
)

// ParseWritePolicy validates a configured write policy
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch p := WritePolicy(s); p {
	case WritePolicyBestEffort, WritePolicyStrict:
		return p, nil
	case "":
		return WritePolicyBestEffort, nil
	}
	return "", fmt.Errorf("unknown write policy %q", s)
}

// ParsePriceFallback validates a configured price fallback
func ParsePriceFallback(s string) (PriceFallback, error) {
	switch f := PriceFallback(s); f {
	case PriceFallbackZero, PriceFallbackAverageCost, PriceFallbackExclude:
		return f, nil
	case "":
		return PriceFallbackZero, nil
	}
	return "", fmt.Errorf("unknown price fallback %q", s)
}

// ParsePersistMode validates a configured persist mode
func ParsePersistMode(s string) (PersistMode, error) {
	switch m := PersistMode(s); m {
	case PersistModePerRow, PersistModeTransactional:
		return m, nil
	case "":
		return PersistModePerRow, nil
	}
	return "", fmt.Errorf("unknown persist mode %q", s)
}
