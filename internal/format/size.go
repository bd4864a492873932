// Package format renders values for display in the widget.
package format

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FileSize renders a byte count using the largest unit (base 1024, up to GB)
// that keeps the value at or above one, rounded to two decimals with
// trailing zeros dropped: 1536 -> "1.5 KB".
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	scaled := float64(bytes)
	for scaled >= 1024 && i < len(sizeUnits)-1 {
		scaled /= 1024
		i++
	}
	rounded := math.Round(scaled*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}
