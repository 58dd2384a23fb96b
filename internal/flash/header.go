// Package flash implements the flash scanner (manifest population) and the
// Driver contract the dynamic loader depends on. The real block driver is an
// external collaborator (spec.md §1); this package defines the contract and
// ships an in-memory Driver for tests and the demo binary.
package flash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rebbleos/appmanager/internal/types"
)

// HeaderSize is the exact on-wire byte length of types.Header.
const HeaderSize = 104

// DecodeHeader parses a bit-exact application header from raw little-endian
// bytes, as read from the start of a flash slot.
func DecodeHeader(raw []byte) (types.Header, error) {
	var h types.Header
	if len(raw) < HeaderSize {
		return h, fmt.Errorf("flash: header needs %d bytes, got %d", HeaderSize, len(raw))
	}
	if err := binary.Read(bytes.NewReader(raw[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("flash: decode header: %w", err)
	}
	return h, nil
}

// EncodeHeader serializes a header back to its bit-exact wire form. Used by
// tests and the in-memory driver to build fixtures.
func EncodeHeader(h types.Header) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(HeaderSize)
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		// All fields are fixed-size; this cannot fail.
		panic(fmt.Sprintf("flash: encode header: %v", err))
	}
	return buf.Bytes()
}

// DecodeRelocTable parses n 4-byte little-endian relocation entries.
func DecodeRelocTable(raw []byte, n uint32) ([]uint32, error) {
	need := int(n) * 4
	if len(raw) < need {
		return nil, fmt.Errorf("flash: reloc table needs %d bytes, got %d", need, len(raw))
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return out, nil
}
