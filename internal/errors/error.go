package errors

import "github.com/pkg/errors"

var (
	// invocation errors, abort the whole scan
	ErrNotConnected  = errors.New("mail account not connected")
	ErrRefreshFailed = errors.New("access token refresh failed")

	// item errors, recorded on the ledger entry
	ErrProviderFetchFailed       = errors.New("mail provider fetch failed")
	ErrInvalidClassifierResponse = errors.New("invalid classifier response")
	ErrQuotaExceeded             = errors.New("document quota exceeded")
	ErrMaterializationFailed     = errors.New("invoice materialization failed")

	// ledger errors
	ErrAlreadyRecorded   = errors.New("ledger entry already recorded")
	ErrInvalidTransition = errors.New("invalid ledger transition")

	ErrInvalidScanMode = errors.New("invalid scan mode")
	ErrUserIdMissing   = errors.New("userId is missing")
)

// IsInvocationFatal reports whether err must abort the whole scan.
func IsInvocationFatal(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrRefreshFailed)
}
