package types

import "errors"

// Sentinel errors returned by the loader and controller. Policy for each is
// documented alongside the operation that returns it; none of them unwind,
// every failure is value-returned.
var (
	// ErrNoApp means a start request named an application not present in
	// the manifest.
	ErrNoApp = errors.New("appmanager: no such application")
	// ErrLoad means the application could not be loaded: its header or body
	// could not be read from flash, its magic was wrong, the symbol pointer
	// could not be installed, or no entry function is registered for it.
	ErrLoad = errors.New("appmanager: failed to load application header")
	// ErrTooBig means the application's virtual size plus the reserved
	// stack would overflow the memory arena.
	ErrTooBig = errors.New("appmanager: application image exceeds arena")
	// ErrReloc means a relocation table entry referenced a word outside
	// the loaded binary.
	ErrReloc = errors.New("appmanager: relocation entry out of bounds")
	// ErrFull means a queue send timed out.
	ErrFull = errors.New("appmanager: queue send timed out")
)
