package interfaces

import "context"

// QuotaService reserves document slots before classification. A reserved slot is kept for an
// accepted document and released otherwise.
type QuotaService interface {
	CheckAndReserve(ctx context.Context, userId string) (bool, error)
	Release(ctx context.Context, userId string) error
}
