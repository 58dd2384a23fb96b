// Package task stands in for the RTOS task primitive (task creation and
// deletion) that the application manager specification treats as an
// external collaborator. A general-purpose OS gives Go no priority
// preemption, so Scheduler's default implementation models a task as a
// goroutine paired with a cancellable context; Stop() is fire-and-forget,
// the same "hard termination, no teardown" contract spec.md §4.4 describes
// for force-delete.
package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SpawnOptions describes a task to create. Priority and StackWords are
// accepted to keep the call site symmetric with the embedded ABI (and to
// log them) but have no scheduling effect under the default implementation.
// Entry receives its own Handle so a cooperative guest can stop itself on
// APP_QUIT, the way the firmware's event loop calls vTaskDelete on its own
// task handle.
type SpawnOptions struct {
	Name       string
	Priority   int
	StackWords int
	Entry      func(ctx context.Context, self Handle)
}

// Handle references a spawned task.
type Handle interface {
	// ID is a generation identifier, distinct per spawn, useful for
	// correlating logs across the documented start/quit race.
	ID() string
	// Stop signals cancellation and returns immediately. It does not wait
	// for the task to observe the signal; a non-cooperative guest is only
	// actually removed when its goroutine happens to return.
	Stop()
	// Done closes once the task's entry function has returned.
	Done() <-chan struct{}
	// Err reports a recovered panic from the entry function, if any. Only
	// meaningful after Done has closed.
	Err() error
}

// Scheduler creates and force-stops tasks.
type Scheduler interface {
	Spawn(opts SpawnOptions) (Handle, error)
}

type handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func (h *handle) ID() string            { return h.id }
func (h *handle) Stop()                 { h.cancel() }
func (h *handle) Done() <-chan struct{} { return h.done }
func (h *handle) Err() error            { return h.err }

// Goroutine is the default Scheduler: one goroutine per task.
type Goroutine struct{}

// NewGoroutine constructs the default goroutine-backed scheduler.
func NewGoroutine() *Goroutine {
	return &Goroutine{}
}

// Spawn starts opts.Entry in a new goroutine and returns a handle that can
// cancel its context. A panic inside Entry is recovered and surfaced via
// Handle.Err, the nearest Go equivalent of "an external watchdog resets
// the device"; the guest is never resumed.
func (g *Goroutine) Spawn(opts SpawnOptions) (Handle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("task %q panicked: %v", opts.Name, r)
			}
			close(h.done)
		}()
		opts.Entry(ctx, h)
	}()

	return h, nil
}
