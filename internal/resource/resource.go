// Package resource implements the three "cheesy proxy" functions
// (spec.md §6) that capture the running app's flash slot at call time and
// forward to the resource subsystem, which is out of scope for this
// module. The proxy exists because the real decoders are keyed by slot:
// a bitmap or font resource ID is only meaningful relative to the app that
// owns it.
package resource

import "fmt"

// SlotSource reports the currently running app's flash slot.
// controller.Controller satisfies this.
type SlotSource interface {
	CurrentSlot() (int, bool)
}

// BitmapHandle is an opaque reference to a decoded bitmap resource, owned
// by the out-of-scope bitmap subsystem.
type BitmapHandle uintptr

// ResHandle is an opaque reference to a resource blob, owned by the
// out-of-scope resource subsystem.
type ResHandle uintptr

// FontHandle is an opaque reference to a decoded font resource, owned by
// the out-of-scope font subsystem.
type FontHandle uintptr

// Host is the narrow resource-subsystem contract the proxies delegate to.
// Each method takes the slot captured by the proxy, exactly as
// gbitmap_create_with_resource_app/resource_get_handle_app/
// fonts_load_custom_font take slot_id as their final argument.
type Host interface {
	BitmapWithResource(resourceID uint32, slot int) (BitmapHandle, error)
	ResourceHandle(resourceID uint16, slot int) (ResHandle, error)
	LoadCustomFont(handle ResHandle, slot int) (FontHandle, error)
}

// Proxy bundles a SlotSource and a Host into the three proxy functions.
type Proxy struct {
	Slots SlotSource
	Host  Host
}

// New constructs a Proxy.
func New(slots SlotSource, host Host) *Proxy {
	return &Proxy{Slots: slots, Host: host}
}

// BitmapCreateWithResource mirrors gbitmap_create_with_resource_proxy: the
// running app's slot is implicit, never an explicit parameter from the
// guest's point of view.
func (p *Proxy) BitmapCreateWithResource(resourceID uint32) (BitmapHandle, error) {
	slot, ok := p.Slots.CurrentSlot()
	if !ok {
		return 0, fmt.Errorf("resource: no running app, or running app is internal")
	}
	return p.Host.BitmapWithResource(resourceID, slot)
}

// ResourceGetHandle mirrors resource_get_handle.
func (p *Proxy) ResourceGetHandle(resourceID uint16) (ResHandle, error) {
	slot, ok := p.Slots.CurrentSlot()
	if !ok {
		return 0, fmt.Errorf("resource: no running app, or running app is internal")
	}
	return p.Host.ResourceHandle(resourceID, slot)
}

// FontsLoadCustomFont mirrors fonts_load_custom_font_proxy.
func (p *Proxy) FontsLoadCustomFont(handle ResHandle) (FontHandle, error) {
	slot, ok := p.Slots.CurrentSlot()
	if !ok {
		return 0, fmt.Errorf("resource: no running app, or running app is internal")
	}
	return p.Host.LoadCustomFont(handle, slot)
}
