package seatmap

import "strings"

// RowLabel converts a zero-based row index to its alphabetical label:
// A..Z, then AA, AB and so on.  Negative indices yield "".
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []byte{}
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 { // letters were produced least significant first
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex converts a row label like "A" or "AA" into its zero-based
// index.  The label is case-insensitive.
func RowIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" || len(s) > 6 {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}
