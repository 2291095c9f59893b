package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount formats an amount with thousand separators, keeping any fraction
func FormatAmount(amount decimal.Decimal) string {
	str := amount.String()

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}

	whole, fraction, hasFraction := strings.Cut(str, ".")

	// Add commas for thousands
	n := len(whole)
	var result strings.Builder
	result.WriteString(sign)
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	if hasFraction {
		result.WriteString(".")
		result.WriteString(fraction)
	}
	return result.String()
}

// ShortAddress abbreviates a chain address to its first six and last four characters
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// FormatCountdown renders remaining seconds as m:ss
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
