package flash_test

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebbleos/appmanager/internal/flash"
	"github.com/rebbleos/appmanager/internal/manifest"
)

func writeValidApp(t *testing.T, d *flash.MemDriver, slot int, name string) []byte {
	t.Helper()
	payload := []byte("app binary payload bytes")
	h := sampleHeader()
	clear(h.Name[:])
	copy(h.Name[:], name)
	h.CRC = crc32.ChecksumIEEE(payload)
	d.WriteSlot(slot, h, payload, []uint32{0, 4})
	return payload
}

func TestScanFindsValidApps(t *testing.T) {
	d := flash.NewMemDriver()
	writeValidApp(t, d, 0, "Alpha")
	writeValidApp(t, d, 3, "Beta")

	s := flash.NewScanner(d, flash.WithSlotCount(8))
	m := manifest.New()
	found := s.Scan(m)

	assert.Equal(t, 2, found)
	assert.Equal(t, 2, m.Len())
	require.NotNil(t, m.LookupExact("Alpha"))
	require.NotNil(t, m.LookupExact("Beta"))
}

func TestScanSkipsEmptySlots(t *testing.T) {
	d := flash.NewMemDriver()
	writeValidApp(t, d, 5, "Solo")

	s := flash.NewScanner(d, flash.WithSlotCount(8))
	m := manifest.New()
	found := s.Scan(m)

	assert.Equal(t, 1, found)
}

func TestScanSkipsBadMagic(t *testing.T) {
	d := flash.NewMemDriver()
	h := sampleHeader()
	copy(h.Magic[:], "BADMAG")
	d.WriteSlot(0, h, []byte("x"), nil)

	s := flash.NewScanner(d, flash.WithSlotCount(4))
	m := manifest.New()
	found := s.Scan(m)

	assert.Equal(t, 0, found)
}

func TestScanSkipsCRCMismatch(t *testing.T) {
	d := flash.NewMemDriver()
	h := sampleHeader()
	h.CRC = 0x00000000 // deliberately wrong
	d.WriteSlot(0, h, []byte("mismatched payload"), nil)

	s := flash.NewScanner(d, flash.WithSlotCount(4), flash.WithCRC(true))
	m := manifest.New()
	found := s.Scan(m)

	assert.Equal(t, 0, found)
}

func TestScanCRCDisabledAcceptsMismatch(t *testing.T) {
	d := flash.NewMemDriver()
	h := sampleHeader()
	h.CRC = 0x00000000
	d.WriteSlot(0, h, []byte("mismatched payload"), nil)

	s := flash.NewScanner(d, flash.WithSlotCount(4), flash.WithCRC(false))
	m := manifest.New()
	found := s.Scan(m)

	assert.Equal(t, 1, found)
}

func TestMemDriverErase(t *testing.T) {
	d := flash.NewMemDriver()
	writeValidApp(t, d, 0, "x")
	d.Erase(0)

	_, err := d.ReadHeader(0)
	assert.Error(t, err)
}
