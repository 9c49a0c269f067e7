package cmd

// short truncates an identifier for tabular display. Short inputs pass
// through unchanged.
func short(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
