package utils

import (
	"strconv"
	"strings"
)

// CompareIDs orders two identifiers numerically when both are integers,
// and lexicographically otherwise.
func CompareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
