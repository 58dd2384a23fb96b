// Package arena implements the single statically reserved memory region a
// guest application is loaded into. All mutation goes through bounds-checked
// operations, per the checked-arena design note in the application manager
// specification: copy_from_flash, patch_word, zero_range.
package arena

import (
	"encoding/binary"
	"fmt"
)

// Arena is a fixed-size byte region plus the logical base address it is
// mapped at on the target device. Bytes is the backing store; Base is never
// used to index Bytes directly: relocation math adds Base to an in-arena
// offset to produce the "absolute" address a position-independent guest
// binary expects to find in its Global Offset Table.
type Arena struct {
	Base  uint32
	Bytes []byte
}

// New allocates an arena of the given size, mapped at base.
func New(base uint32, size int) *Arena {
	return &Arena{Base: base, Bytes: make([]byte, size)}
}

// Size returns the arena's byte length.
func (a *Arena) Size() int {
	return len(a.Bytes)
}

// Reset zeroes the entire arena. Contents are undefined between app
// generations until the next load completes; callers reset explicitly
// before reuse.
func (a *Arena) Reset() {
	for i := range a.Bytes {
		a.Bytes[i] = 0
	}
}

func (a *Arena) checkRange(offset, n int) error {
	if offset < 0 || n < 0 || offset+n > len(a.Bytes) {
		return fmt.Errorf("arena: range [%d, %d) out of bounds for size %d", offset, offset+n, len(a.Bytes))
	}
	return nil
}

// CopyFromFlash writes data into the arena starting at offset, bounds-checked
// against the arena size.
func (a *Arena) CopyFromFlash(offset int, data []byte) error {
	if err := a.checkRange(offset, len(data)); err != nil {
		return err
	}
	copy(a.Bytes[offset:], data)
	return nil
}

// ZeroRange zeroes the byte range [start, end), bounds-checked.
func (a *Arena) ZeroRange(start, end int) error {
	if end < start {
		return fmt.Errorf("arena: zero range end %d before start %d", end, start)
	}
	if err := a.checkRange(start, end-start); err != nil {
		return err
	}
	for i := start; i < end; i++ {
		a.Bytes[i] = 0
	}
	return nil
}

// ReadWord reads the little-endian 32-bit word at byte offset.
func (a *Arena) ReadWord(offset int) (uint32, error) {
	if err := a.checkRange(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(a.Bytes[offset : offset+4]), nil
}

// PatchWord writes the little-endian 32-bit word at byte offset, bounds-checked.
func (a *Arena) PatchWord(offset int, value uint32) error {
	if err := a.checkRange(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a.Bytes[offset:offset+4], value)
	return nil
}

// Addr returns the logical absolute address of an in-arena offset
// (Base + offset), the value a relocated GOT entry or computed entry point
// is expected to equal.
func (a *Arena) Addr(offset uint32) uint32 {
	return a.Base + offset
}
