package upbeat

import "math/bits"

type BitSet struct {
	size uint32
	data []uint64
}

type BitIndex uint32

// NoBit is returned by the searching functions when nothing matches.
const NoBit = ^BitIndex(0)

// bitsets are stored as uint64s, so size is rounded up to a multiple of 64.
// Bits at or above size are never reported by the search functions.
func NewBitSet(size uint32) *BitSet {
	words := (size + 63) >> 6
	return &BitSet{
		size: size,
		data: make([]uint64, words),
	}
}

func (b *BitSet) Size() uint32 {
	return b.size
}

func (b *BitSet) On(bit BitIndex) bool {
	b.check(bit)
	mask := uint64(1) << (bit % 64)
	return b.data[bit>>6]&mask != 0
}

func (b *BitSet) Set(bit BitIndex) {
	b.check(bit)
	b.data[bit>>6] |= uint64(1) << (bit % 64)
}

func (b *BitSet) Clear(bit BitIndex) {
	b.check(bit)
	b.data[bit>>6] &^= uint64(1) << (bit % 64)
}

func (b *BitSet) ClearAll() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Count returns the number of bits that are on.
func (b *BitSet) Count() int {
	n := 0
	for _, w := range b.data {
		n += bits.OnesCount64(w)
	}
	return n
}

// NextSet returns the lowest bit that is on and is >= from, or NoBit.
func (b *BitSet) NextSet(from BitIndex) BitIndex {
	return b.next(from, false)
}

// NextClear returns the lowest bit that is off and is >= from, or NoBit.
func (b *BitSet) NextClear(from BitIndex) BitIndex {
	return b.next(from, true)
}

func (b *BitSet) next(from BitIndex, invert bool) BitIndex {
	if uint32(from) >= b.size {
		return NoBit
	}
	word := int(from >> 6)
	// knock out the bits below from in the first word
	w := b.data[word]
	if invert {
		w = ^w
	}
	w &= ^uint64(0) << (from % 64)
	for {
		if w != 0 {
			found := BitIndex(word<<6 + bits.TrailingZeros64(w))
			if uint32(found) >= b.size {
				return NoBit
			}
			return found
		}
		word++
		if word >= len(b.data) {
			return NoBit
		}
		w = b.data[word]
		if invert {
			w = ^w
		}
	}
}

func (b *BitSet) check(bit BitIndex) {
	if uint32(bit) >= b.size {
		panic("bit index out of range for bitset")
	}
}
