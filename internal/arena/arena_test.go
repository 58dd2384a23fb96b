package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebbleos/appmanager/internal/arena"
)

func TestNewSize(t *testing.T) {
	a := arena.New(0x20000000, 1024)
	assert.Equal(t, 1024, a.Size())
	assert.Equal(t, uint32(0x20000000), a.Base)
}

func TestCopyFromFlashAndReadWord(t *testing.T) {
	a := arena.New(0x1000, 16)
	require.NoError(t, a.CopyFromFlash(0, []byte{0x01, 0x02, 0x03, 0x04}))

	word, err := a.ReadWord(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), word)
}

func TestCopyFromFlashOutOfBounds(t *testing.T) {
	a := arena.New(0, 4)
	err := a.CopyFromFlash(2, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestPatchWordRoundTrip(t *testing.T) {
	a := arena.New(0, 8)
	require.NoError(t, a.PatchWord(4, 0xDEADBEEF))

	word, err := a.ReadWord(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), word)
}

func TestPatchWordOutOfBounds(t *testing.T) {
	a := arena.New(0, 4)
	assert.Error(t, a.PatchWord(4, 1))
	assert.Error(t, a.PatchWord(-1, 1))
}

func TestZeroRange(t *testing.T) {
	a := arena.New(0, 8)
	for i := range a.Bytes {
		a.Bytes[i] = 0xFF
	}
	require.NoError(t, a.ZeroRange(2, 6))
	assert.Equal(t, []byte{0xFF, 0xFF, 0, 0, 0, 0, 0xFF, 0xFF}, a.Bytes)
}

func TestZeroRangeInvalid(t *testing.T) {
	a := arena.New(0, 8)
	assert.Error(t, a.ZeroRange(6, 2))
	assert.Error(t, a.ZeroRange(0, 100))
}

func TestReset(t *testing.T) {
	a := arena.New(0, 4)
	require.NoError(t, a.CopyFromFlash(0, []byte{1, 2, 3, 4}))
	a.Reset()
	assert.Equal(t, []byte{0, 0, 0, 0}, a.Bytes)
}

func TestAddrIsBasePlusOffset(t *testing.T) {
	a := arena.New(0x20000000, 4096)
	assert.Equal(t, uint32(0x20000100), a.Addr(0x100))
}
