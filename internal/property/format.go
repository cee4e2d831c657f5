package property

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPrice renders a price as "$450,000".
func FormatPrice(price float64) string {
	return "$" + formatWithCommas(int64(math.Round(price)))
}

// FormatArea renders an area as "120 sq m", keeping one decimal when needed.
func FormatArea(area float64) string {
	if area == math.Trunc(area) {
		return formatWithCommas(int64(area)) + " sq m"
	}
	return fmt.Sprintf("%.1f sq m", area)
}

// ShortPrice renders a price compactly: "$1.2M", "$850K".
func ShortPrice(price float64) string {
	switch {
	case price >= 1e9:
		return "$" + trimZero(price/1e9) + "B"
	case price >= 1e6:
		return "$" + trimZero(price/1e6) + "M"
	case price >= 1e4:
		return "$" + trimZero(price/1e3) + "K"
	}
	return FormatPrice(price)
}

// Label returns the type name for display.
func (t Type) Label() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

func trimZero(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)
}

func formatWithCommas(n int64) string {
	if n < 0 {
		return "-" + formatWithCommas(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
