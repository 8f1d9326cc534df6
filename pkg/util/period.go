package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePeriod converts a market-data period string ("90d", "6mo", "1y",
// "max") into a number of trading observations to request. Months count
// ~21 trading days, years ~252.
func ParsePeriod(s string) (int, error) {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "" {
		return 0, fmt.Errorf("empty period")
	}
	if p == "max" {
		return 252 * 20, nil
	}

	var suffix string
	var numPart string
	switch {
	case strings.HasSuffix(p, "mo"):
		suffix, numPart = "mo", strings.TrimSuffix(p, "mo")
	case strings.HasSuffix(p, "d"):
		suffix, numPart = "d", strings.TrimSuffix(p, "d")
	case strings.HasSuffix(p, "y"):
		suffix, numPart = "y", strings.TrimSuffix(p, "y")
	default:
		return 0, fmt.Errorf("unknown period %q", s)
	}

	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid period %q", s)
	}

	switch suffix {
	case "d":
		return n, nil
	case "mo":
		return n * 21, nil
	default:
		return n * 252, nil
	}
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
