// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 arithmetic used to size FFT plans and
analysis windows.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Reject an FFT plan that the radix-2 butterflies cannot handle
	if !bitint.IsPowerOfTwo(length) { ... }

	// Number of butterfly stages for a 2048 point complex FFT
	stages := bitint.Log2(2048) // Returns 11

	// Analysis window roughly one per 20 Hz at 48 kHz
	size := bitint.NearestPowerOfTwo(48000 / 20.0) // Returns 2048

----------------------------------------------------------------------

What this code does:

	NextPowerOfTwo returns the next power of 2 greater than or
	equal to size. The subtraction (size-1) is critical, without
	it powers of 2 would be incorrectly doubled:

	- For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8 (correctly preserves original power of 2)

	NearestPowerOfTwo rounds in the log domain rather than the
	linear one:
	- 3000: log2 = 11.55 -> 12 -> 4096
	- 2800: log2 = 11.45 -> 11 -> 2048
	Linear rounding would pick 2048 for both.
*/
package bitint

import (
	"math"
	"math/bits"
)

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// NearestPowerOfTwo returns 2^round(log2(x)), the power of 2 closest to x
// on a logarithmic scale. Values below 1 return 1.
func NearestPowerOfTwo(x float64) int {
	if x <= 1 || math.IsNaN(x) {
		return 1
	}
	return int(math.Round(math.Pow(2, math.Round(math.Log2(x)))))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// The expression (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//   - AND operation will be 0 only for powers of 2
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of a power of 2. The result is only
// meaningful when IsPowerOfTwo(n) holds; other inputs return -1.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
