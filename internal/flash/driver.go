package flash

import "github.com/rebbleos/appmanager/internal/types"

// Driver provides raw reads of application headers and bodies by slot, the
// external flash block driver's contract. Implementations are expected to
// return an error for an unreadable or absent slot.
type Driver interface {
	// ReadHeader reads and decodes the header at the start of slot.
	ReadHeader(slot int) (types.Header, error)
	// ReadBody reads the first n bytes following the header in slot (the
	// binary payload plus its trailing relocation table).
	ReadBody(slot int, n int) ([]byte, error)
}
