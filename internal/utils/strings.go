package utils

import (
	"strings"
)

// PadNumber left-pads the leading run of digits in num with zeros up to width.
// Anything after the digits, such as "-5" in "12-5", is kept as is.
func PadNumber(num string, width int) string {
	end := 0
	for end < len(num) && num[end] >= '0' && num[end] <= '9' {
		end++
	}

	intPart := num[:end]

	// Calculate required padding for integer part only
	padding := width - len(intPart)
	if padding <= 0 || end == 0 {
		return num
	}

	return strings.Repeat("0", padding) + num
}

// Digits returns the number of decimal digits of n.
func Digits(n int) int {
	if n < 0 {
		n = -n
	}

	d := 1
	for n >= 10 {
		n /= 10
		d++
	}

	return d
}
