package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// IsSnowflake reports whether s looks like a Discord ID
func IsSnowflake(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 20 {
		return false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	return err == nil && n > 0
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// DaysBetween returns whole days elapsed from then to now, never negative.
func DaysBetween(then, now time.Time) int {
	if then.IsZero() || now.Before(then) {
		return 0
	}
	return int(now.Sub(then) / (24 * time.Hour))
}

// FormatUptime renders d as "1d 2h 3m".
func FormatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
