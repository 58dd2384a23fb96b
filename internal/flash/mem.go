package flash

import (
	"fmt"
	"sync"

	"github.com/rebbleos/appmanager/internal/types"
)

// slotImage is one slot's raw flash bytes: header followed by body
// (binary payload plus trailing relocation table), exactly as laid out on
// real flash.
type slotImage struct {
	header []byte
	body   []byte
}

// MemDriver is an in-memory Driver, used by tests and the demo binary in
// place of the real flash block driver.
type MemDriver struct {
	mu    sync.RWMutex
	slots map[int]slotImage
}

// NewMemDriver creates an empty in-memory flash image.
func NewMemDriver() *MemDriver {
	return &MemDriver{slots: make(map[int]slotImage)}
}

// WriteSlot programs a slot with a header, its binary payload, and a
// relocation table, encoding all three exactly as they would appear on real
// flash: [header | body (app_size bytes) | reloc table (4 bytes each)].
func (d *MemDriver) WriteSlot(slot int, header types.Header, payload []byte, relocTable []uint32) {
	header.RelocEntriesCount = uint32(len(relocTable))
	header.AppSize = uint32(len(payload))

	body := make([]byte, 0, len(payload)+len(relocTable)*4)
	body = append(body, payload...)
	for _, r := range relocTable {
		var b [4]byte
		b[0] = byte(r)
		b[1] = byte(r >> 8)
		b[2] = byte(r >> 16)
		b[3] = byte(r >> 24)
		body = append(body, b[:]...)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.slots[slot] = slotImage{header: EncodeHeader(header), body: body}
}

// Erase clears a slot, as if it held no application.
func (d *MemDriver) Erase(slot int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.slots, slot)
}

// ReadHeader implements Driver.
func (d *MemDriver) ReadHeader(slot int) (types.Header, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	img, ok := d.slots[slot]
	if !ok {
		return types.Header{}, fmt.Errorf("flash: slot %d is empty", slot)
	}
	return DecodeHeader(img.header)
}

// ReadBody implements Driver.
func (d *MemDriver) ReadBody(slot int, n int) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	img, ok := d.slots[slot]
	if !ok {
		return nil, fmt.Errorf("flash: slot %d is empty", slot)
	}
	if n > len(img.body) {
		return nil, fmt.Errorf("flash: slot %d body has %d bytes, requested %d", slot, len(img.body), n)
	}
	out := make([]byte, n)
	copy(out, img.body[:n])
	return out, nil
}
