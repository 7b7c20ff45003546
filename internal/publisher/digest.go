package publisher

import (
	"bytes"

	"github.com/zeebo/blake3"
)

// contentDigest hashes file content for the compare-and-swap check. A nil
// slice (missing file) digests to nil.
func contentDigest(content []byte) []byte {
	if content == nil {
		return nil
	}
	sum := blake3.Sum256(content)
	return sum[:]
}

// digestsEqual reports whether two digests match. Two nil digests (file
// missing on both sides) count as equal.
func digestsEqual(a, b []byte) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a, b)
}
