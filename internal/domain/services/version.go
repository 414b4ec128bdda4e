package services

import (
	"sort"
	"strconv"
	"strings"
)

// CompareVersions compares two dotted version strings numerically.
// Returns: 1 if v1 > v2, -1 if v1 < v2, 0 if equal
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		num1 := leadingNumber(parts1, i)
		num2 := leadingNumber(parts2, i)

		if num1 > num2 {
			return 1
		} else if num1 < num2 {
			return -1
		}
	}

	return 0
}

// leadingNumber returns the numeric prefix of parts[i] ("1rc1" -> 1), or 0
func leadingNumber(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	end := 0
	for end < len(parts[i]) && parts[i][end] >= '0' && parts[i][end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(parts[i][:end])
	if err != nil {
		return 0
	}
	return n
}

// SortVersions sorts versions in ascending numeric order; ties keep
// lexical order so the result is deterministic
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		if c := CompareVersions(versions[i], versions[j]); c != 0 {
			return c < 0
		}
		return versions[i] < versions[j]
	})
}
