package enum

type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusProcessed LedgerStatus = "processed"
	LedgerStatusRejected  LedgerStatus = "rejected"
	LedgerStatusError     LedgerStatus = "error"
)

func (s LedgerStatus) String() string {
	return string(s)
}

func (s LedgerStatus) IsTerminal() bool {
	return s == LedgerStatusProcessed || s == LedgerStatusRejected || s == LedgerStatusError
}
