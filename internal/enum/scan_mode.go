package enum

import "strings"

type ScanMode string

const (
	ScanModeInitial     ScanMode = "initial"
	ScanModeIncremental ScanMode = "incremental"
)

func (m ScanMode) String() string {
	return string(m)
}

func (m ScanMode) IsValid() bool {
	return m == ScanModeInitial || m == ScanModeIncremental
}

// ParseScanMode defaults to incremental when s is empty.
func ParseScanMode(s string) (ScanMode, bool) {
	if strings.TrimSpace(s) == "" {
		return ScanModeIncremental, true
	}
	mode := ScanMode(strings.ToLower(strings.TrimSpace(s)))
	return mode, mode.IsValid()
}
