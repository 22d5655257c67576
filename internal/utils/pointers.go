package utils

func StringPtr(s string) *string {
	return &s
}

// StringPtrOrNil returns nil for empty strings
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
