// Package loader implements the dynamic loader (spec.md §4.3): it turns a
// flash-resident binary plus relocation metadata into an executable image
// in the statically reserved memory arena.
package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rebbleos/appmanager/internal/arena"
	"github.com/rebbleos/appmanager/internal/flash"
	"github.com/rebbleos/appmanager/internal/heap"
	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/metrics"
	"github.com/rebbleos/appmanager/internal/types"
)

// Result describes a completed load: where the guest's entry point lives,
// the Go function standing in for it, and how the arena was partitioned.
type Result struct {
	EntryAddr  uint32
	Entry      types.EntryFunc
	HeapStart  int
	HeapSize   int
	StackStart int
	StackWords int
	Header     types.Header
}

// Loader turns a manifest record's flash image into a Result.
type Loader struct {
	driver     flash.Driver
	arena      *arena.Arena
	sym        types.SymAddr
	stackWords int
	entries    *EntryRegistry
	heapInit   heap.Initializer
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// New constructs a Loader. sym is the host symbol table's address, written
// into every loaded image at header.SymTableAddr.
func New(driver flash.Driver, a *arena.Arena, sym types.SymAddr, stackWords int, entries *EntryRegistry, heapInit heap.Initializer, logger *logging.Logger, m *metrics.Metrics) *Loader {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Loader{
		driver:     driver,
		arena:      a,
		sym:        sym,
		stackWords: stackWords,
		entries:    entries,
		heapInit:   heapInit,
		logger:     logger,
		metrics:    m,
	}
}

// Load implements the algorithm of spec.md §4.3, steps 1-7 (step 7, task
// spawn, is left to the caller: it owns the Scheduler). record must not be
// internal.
func (l *Loader) Load(record *types.Application) (*Result, error) {
	if record.IsInternal {
		return nil, fmt.Errorf("loader: %q is an internal app, nothing to load", record.Name)
	}

	// 1. Header reload: the cached header on the manifest record may be
	// stale or absent.
	header, err := l.driver.ReadHeader(record.SlotID)
	if err != nil {
		l.fail("load")
		return nil, fmt.Errorf("%w: slot %d: %v", types.ErrLoad, record.SlotID, err)
	}
	if !header.HasValidMagic() {
		l.fail("load")
		return nil, fmt.Errorf("%w: slot %d: bad magic", types.ErrLoad, record.SlotID)
	}

	stackBytes := l.stackWords * 4
	if header.VirtualSize+uint32(stackBytes) > uint32(l.arena.Size()) {
		l.fail("toobig")
		return nil, fmt.Errorf("%w: virtual_size=%d stack=%d arena=%d", types.ErrTooBig, header.VirtualSize, stackBytes, l.arena.Size())
	}

	// 2. Payload copy: app_size bytes of binary plus reloc_entries_count*4
	// bytes of GOT relocation table, landing at arena offset app_size.
	total := int(header.AppSize) + int(header.RelocEntriesCount)*4
	body, err := l.driver.ReadBody(record.SlotID, total)
	if err != nil {
		l.fail("load")
		return nil, fmt.Errorf("%w: slot %d body: %v", types.ErrLoad, record.SlotID, err)
	}

	l.arena.Reset()
	if err := l.arena.CopyFromFlash(0, body); err != nil {
		l.fail("toobig")
		return nil, fmt.Errorf("%w: %v", types.ErrTooBig, err)
	}

	// 3. Relocation.
	relocTable, err := flash.DecodeRelocTable(body[header.AppSize:], header.RelocEntriesCount)
	if err != nil {
		l.fail("reloc")
		return nil, fmt.Errorf("%w: %v", types.ErrReloc, err)
	}
	for i, slot := range relocTable {
		if slot >= header.AppSize || slot+4 > header.AppSize {
			l.fail("reloc")
			return nil, fmt.Errorf("%w: entry %d offset 0x%x outside [0, 0x%x)", types.ErrReloc, i, slot, header.AppSize)
		}
		existing, err := l.arena.ReadWord(int(slot))
		if err != nil {
			l.fail("reloc")
			return nil, fmt.Errorf("%w: entry %d: %v", types.ErrReloc, i, err)
		}
		if err := l.arena.PatchWord(int(slot), l.arena.Addr(existing)); err != nil {
			l.fail("reloc")
			return nil, fmt.Errorf("%w: entry %d: %v", types.ErrReloc, i, err)
		}
	}

	// 4. BSS zero: also clears the now-unneeded relocation table.
	if err := l.arena.ZeroRange(int(header.AppSize), int(header.VirtualSize)); err != nil {
		l.fail("toobig")
		return nil, fmt.Errorf("%w: %v", types.ErrTooBig, err)
	}

	// 5. Symbol pointer install: the only point the host ABI crosses into
	// the guest.
	if err := l.arena.PatchWord(int(header.SymTableAddr), uint32(l.sym)); err != nil {
		l.fail("load")
		return nil, fmt.Errorf("%w: sym_table_addr 0x%x: %v", types.ErrLoad, header.SymTableAddr, err)
	}

	// 6. Partition arena into heap and stack.
	heapStart := int(header.VirtualSize)
	heapSize := l.arena.Size() - heapStart - stackBytes
	stackStart := l.arena.Size() - stackBytes
	if l.heapInit != nil {
		if err := l.heapInit.Init(heapStart, heapSize); err != nil {
			return nil, fmt.Errorf("%w: heap init: %v", types.ErrLoad, err)
		}
	}

	entryFn, ok := l.entries.Resolve(header.Offset)
	if !ok {
		l.fail("load")
		return nil, fmt.Errorf("%w: no entry registered for offset 0x%x", types.ErrLoad, header.Offset)
	}

	record.Header = &header

	l.logger.Debug("app loaded",
		zap.String("name", header.NameString()),
		zap.String("company", header.CompanyString()),
		zap.Uint32("app_size", header.AppSize),
		zap.Uint32("virtual_size", header.VirtualSize),
		zap.Uint32("reloc_entries", header.RelocEntriesCount),
		zap.Uint32("entry_addr", l.arena.Addr(header.Offset)),
	)

	return &Result{
		EntryAddr:  l.arena.Addr(header.Offset),
		Entry:      entryFn,
		HeapStart:  heapStart,
		HeapSize:   heapSize,
		StackStart: stackStart,
		StackWords: l.stackWords,
		Header:     header,
	}, nil
}

func (l *Loader) fail(kind string) {
	if l.metrics != nil {
		l.metrics.LoadFailures.WithLabelValues(kind).Inc()
	}
}
