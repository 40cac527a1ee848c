// Copyright (c) 2026 The Poolmint developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poolmint

import (
	"encoding/hex"
	"math/bits"
)

// MaskBits is the width of a pool mask, which caps the number of pool slots
// a registry can ever assign.
const MaskBits = 256

// Mask is a fixed-width bit set where bit i denotes participation in the pool
// at slot index i. The zero value is the empty mask.
type Mask [4]uint64

// MaskOfBit returns a mask with only bit i set.
// It panics if i is out of the mask width.
func MaskOfBit(i int) (m Mask) {
	m.Set(i)
	return
}

// MaskUpTo returns a mask with bits [0, n) set.
func MaskUpTo(n int) (m Mask) {
	if n > MaskBits {
		n = MaskBits
	}
	for w := 0; n > 0; w++ {
		if n >= 64 {
			m[w] = ^uint64(0)
			n -= 64
		} else {
			m[w] = (uint64(1) << n) - 1
			n = 0
		}
	}
	return
}

// Has returns whether bit i is set.
func (m Mask) Has(i int) bool {
	checkBitIndex(i)
	return m[i>>6]&(uint64(1)<<(i&63)) != 0
}

// Set sets bit i.
func (m *Mask) Set(i int) {
	checkBitIndex(i)
	m[i>>6] |= uint64(1) << (i & 63)
}

// Clear clears bit i.
func (m *Mask) Clear(i int) {
	checkBitIndex(i)
	m[i>>6] &^= uint64(1) << (i & 63)
}

// And returns m & n.
func (m Mask) And(n Mask) (r Mask) {
	for w := range m {
		r[w] = m[w] & n[w]
	}
	return
}

// AndNot returns m & ^n.
func (m Mask) AndNot(n Mask) (r Mask) {
	for w := range m {
		r[w] = m[w] &^ n[w]
	}
	return
}

// Or returns m | n.
func (m Mask) Or(n Mask) (r Mask) {
	for w := range m {
		r[w] = m[w] | n[w]
	}
	return
}

// IsZero returns whether no bit is set.
func (m Mask) IsZero() bool {
	return m == Mask{}
}

// Count returns the number of set bits.
func (m Mask) Count() (n int) {
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return
}

// ForEach calls fn for every set bit from lowest to highest, until fn returns
// false. The scan cost is bounded by the number of set bits, not the mask
// width, using per-word count-trailing-zeros.
func (m Mask) ForEach(fn func(i int) bool) {
	for w, word := range m {
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			if !fn(w*64 + tz) {
				return
			}
			word &^= uint64(1) << tz
		}
	}
}

// Bytes returns the big-endian byte form with leading zeros trimmed.
func (m Mask) Bytes() []byte {
	buf := make([]byte, 32)
	for w := 0; w < 4; w++ {
		word := m[3-w]
		for b := 0; b < 8; b++ {
			buf[w*8+b] = byte(word >> (56 - 8*b))
		}
	}
	for i := range buf {
		if buf[i] != 0 {
			return buf[i:]
		}
	}
	return nil
}

// SetBytes interprets b as a trimmed big-endian mask.
func (m *Mask) SetBytes(b []byte) {
	*m = Mask{}
	for i := 0; i < len(b) && i < 32; i++ {
		v := b[len(b)-1-i]
		m[i>>3] |= uint64(v) << (8 * (i & 7))
	}
}

// String implements stringer.
func (m Mask) String() string {
	b := m.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	return "0x" + hex.EncodeToString(b)
}

func checkBitIndex(i int) {
	if i < 0 || i >= MaskBits {
		panic("mask: bit index out of range")
	}
}
