package core

import "errors"

// Report generation failures. Callers match them with errors.Is; lower layers
// wrap them with context.
var (
	ErrInvalidPeriod     = errors.New("invalid period: use \"weekly\" or \"monthly\"")
	ErrInvalidDateFormat = errors.New("invalid date format: expected YYYY-MM-DD")
	ErrInvalidRangeOrder = errors.New("startDate must not be after endDate")
	ErrUserNotFound      = errors.New("user not found")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrRenderFailure     = errors.New("render failure")
)

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidRangeOrder)
}
