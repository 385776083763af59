/*
Package duration converts between "HH:MM" strings and integer seconds.

PURPOSE:
  Shift minimum hours, worked time and overtime are exchanged with clients
  as "HH:MM" strings but stored and compared as integer seconds. This codec
  is the single place that conversion happens.

FORMAT:
  Exactly two colon-separated integer fields. Hours are unbounded ("120:30"
  is two weeks of overtime), minutes may exceed 59 on input ("1:90" parses
  to 6600 seconds). Format always emits zero-padded fields and truncates
  sub-minute seconds, so Parse(Format(s)) == s - s%60.
*/
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a duration string is not two
// colon-separated integer fields.
var ErrInvalidFormat = errors.New("invalid duration format")

// InvalidFormatError carries the offending input.
type InvalidFormatError struct {
	Input string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid duration format %q: expected \"HH:MM\"", e.Input)
}

func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Parse converts "HH:MM" to seconds.
func Parse(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &InvalidFormatError{Input: s}
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, &InvalidFormatError{Input: s}
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, &InvalidFormatError{Input: s}
	}
	return hours*3600 + minutes*60, nil
}

// Format converts seconds to "HH:MM", truncating to whole minutes.
// Negative values are clamped to zero.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}
