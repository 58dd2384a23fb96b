package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebbleos/appmanager/internal/resource"
)

type fakeSlots struct {
	slot int
	ok   bool
}

func (f fakeSlots) CurrentSlot() (int, bool) { return f.slot, f.ok }

type fakeHost struct {
	gotBitmapSlot, gotResourceSlot, gotFontSlot int
}

func (h *fakeHost) BitmapWithResource(resourceID uint32, slot int) (resource.BitmapHandle, error) {
	h.gotBitmapSlot = slot
	return resource.BitmapHandle(resourceID), nil
}

func (h *fakeHost) ResourceHandle(resourceID uint16, slot int) (resource.ResHandle, error) {
	h.gotResourceSlot = slot
	return resource.ResHandle(resourceID), nil
}

func (h *fakeHost) LoadCustomFont(handle resource.ResHandle, slot int) (resource.FontHandle, error) {
	h.gotFontSlot = slot
	return resource.FontHandle(handle), nil
}

func TestProxiesForwardRunningSlot(t *testing.T) {
	host := &fakeHost{}
	p := resource.New(fakeSlots{slot: 4, ok: true}, host)

	bmp, err := p.BitmapCreateWithResource(99)
	require.NoError(t, err)
	assert.Equal(t, resource.BitmapHandle(99), bmp)
	assert.Equal(t, 4, host.gotBitmapSlot)

	res, err := p.ResourceGetHandle(7)
	require.NoError(t, err)
	assert.Equal(t, resource.ResHandle(7), res)
	assert.Equal(t, 4, host.gotResourceSlot)

	font, err := p.FontsLoadCustomFont(res)
	require.NoError(t, err)
	assert.Equal(t, resource.FontHandle(7), font)
	assert.Equal(t, 4, host.gotFontSlot)
}

func TestProxiesFailWithoutRunningApp(t *testing.T) {
	p := resource.New(fakeSlots{ok: false}, &fakeHost{})

	_, err := p.BitmapCreateWithResource(1)
	assert.Error(t, err)

	_, err = p.ResourceGetHandle(1)
	assert.Error(t, err)

	_, err = p.FontsLoadCustomFont(0)
	assert.Error(t, err)
}
