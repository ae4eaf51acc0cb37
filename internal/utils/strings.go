package utils

import (
	"math"
	"strconv"
	"strings"
)

// SplitList splits s on sep, trims every entry and drops empty ones.
// Entries that differ only in case are kept once, first spelling wins.
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return Dedupe(strings.Split(s, sep))
}

// Dedupe trims entries, drops empty ones and removes case-insensitive
// duplicates while preserving order. A nil result means "no entries".
func Dedupe(items []string) []string {
	var out []string
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// ParseNonNegativeFloat parses a user supplied number. Blank, non-numeric,
// non-finite and negative input all yield nil.
func ParseNonNegativeFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

// ParseNonNegativeInt parses a user supplied whole number with the same
// leniency as ParseNonNegativeFloat.
func ParseNonNegativeInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// FormatNumber renders a float without a trailing ".0" or exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
