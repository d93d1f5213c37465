// Package safe converts between integer widths and reports overflow instead of wrapping.
package safe

import (
	"fmt"
	"math"
)

// Signed and Unsigned list the integer kinds the conversions accept.
type (
	Signed interface {
		~int | ~int8 | ~int16 | ~int32 | ~int64
	}
	Unsigned interface {
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
	}
)

// Int32 narrows v to int32. Indexes and counts from node JSON land here before storage.
func Int32[T Signed | Unsigned](v T) (int32, error) {
	if v < 0 {
		if int64(v) < math.MinInt32 {
			return 0, fmt.Errorf("value %d out of int32 range", v)
		}
		return int32(v), nil
	}
	if uint64(v) > math.MaxInt32 {
		return 0, fmt.Errorf("value %d out of int32 range", v)
	}
	return int32(v), nil
}
