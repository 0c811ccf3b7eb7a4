package repository

import (
	"context"

	"github.com/plrectco/dcf/internal/domain"
)

//go:generate mockgen -source=snapshot.repository.go -destination=mocks/mock_snapshot.repository.go -package=mock_repository

// SnapshotRepository fetches the financial snapshot for one ticker. Unknown
// tickers return a *domain.NotFoundError, absent required line items a
// *domain.MissingFieldError.
type SnapshotRepository interface {
	Get(ctx context.Context, ticker string) (*domain.FinancialSnapshot, error)
}
