package types

import "github.com/rebbleos/appmanager/internal/arena"

// AppType governs button-handler installation: SYSTEM gets privileged menu
// dispatch, FACE is a watchface with special back-button semantics,
// WATCHAPP is an ordinary application.
type AppType int

const (
	TypeSystem AppType = iota
	TypeFace
	TypeWatchapp
)

func (t AppType) String() string {
	switch t {
	case TypeSystem:
		return "SYSTEM"
	case TypeFace:
		return "FACE"
	case TypeWatchapp:
		return "WATCHAPP"
	default:
		return "UNKNOWN"
	}
}

// SymAddr is the opaque host pointer written into a loaded guest image at
// Header.SymTableAddr. The host symbol table's real layout is outside this
// module's scope; only its address crosses the ABI boundary.
type SymAddr uint32

// EntryFunc is the guest's entry point. For internal apps this is a
// host-linked Go function set directly on the manifest record. For
// flash-resident apps, a position-independent binary cannot be directly
// executed by the Go runtime, so the loader resolves the header's byte
// offset to a registered EntryFunc via loader.EntryRegistry (see
// SPEC_FULL.md §3). Either way the function receives the fully relocated
// arena and the host symbol address so it can "look up" host services the
// way the real guest ABI does.
type EntryFunc func(a *arena.Arena, sym SymAddr)

// Application is one record in the manifest: an installed application,
// either baked into the host binary (internal) or resident in flash.
type Application struct {
	Name       string
	Type       AppType
	Entry      EntryFunc // nil for flash apps; their entry is resolved at load time into loader.Result.Entry
	IsInternal bool
	SlotID     int
	Header     *Header // cached parsed header, set by the flash scan and refreshed on load; nil for internal apps
	Next       *Application
}

// Stats summarizes manifest and controller state for diagnostics.
type Stats struct {
	TotalApps  int
	RunningApp *string
	Generation string
}
