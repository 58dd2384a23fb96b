// Package controller implements the lifecycle controller (C4): the single
// goroutine that owns the running-app pointer, the two queues backing
// app start/quit/button/tick requests, and the force-delete-then-spawn
// algorithm described in spec.md §4.4.
package controller

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebbleos/appmanager/internal/arena"
	"github.com/rebbleos/appmanager/internal/config"
	"github.com/rebbleos/appmanager/internal/loader"
	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/manifest"
	"github.com/rebbleos/appmanager/internal/metrics"
	"github.com/rebbleos/appmanager/internal/pump"
	"github.com/rebbleos/appmanager/internal/queue"
	"github.com/rebbleos/appmanager/internal/task"
	"github.com/rebbleos/appmanager/internal/types"
)

// startRequest is the sole payload carried on threadQ.
type startRequest struct {
	name string
}

// Controller serializes app start/quit/button/tick requests through a
// single goroutine and enforces "exactly zero or one guest task alive."
type Controller struct {
	manifest *manifest.Manifest
	loader   *loader.Loader
	sched    task.Scheduler
	arena    *arena.Arena
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics

	threadQ *queue.Queue[startRequest]
	msgQ    *queue.Queue[types.Message]

	running    atomic.Pointer[types.Application]
	generation atomic.Pointer[string]

	guestMu sync.Mutex
	guest   task.Handle
}

// New constructs a Controller. The returned value's Run method must be
// started in its own goroutine before Start/Quit/PostButton/PostTick are
// called; those methods only enqueue requests, they never block on guest
// state directly.
func New(m *manifest.Manifest, ld *loader.Loader, sched task.Scheduler, a *arena.Arena, cfg *config.Config, logger *logging.Logger, metr *metrics.Metrics) *Controller {
	if logger == nil {
		logger = logging.NewDefault()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Controller{
		manifest: m,
		loader:   ld,
		sched:    sched,
		arena:    a,
		cfg:      cfg,
		logger:   logger,
		metrics:  metr,
		threadQ:  queue.New[startRequest](cfg.Queue.ThreadQueueCapacity),
		msgQ:     queue.New[types.Message](cfg.Queue.MsgQueueCapacity),
	}
}

// Start requests that name become the running app. It first posts
// APP_QUIT on msg_q (as Quit does) so the current guest exits, then
// enqueues the start request on threadQ, bounded by the configured start
// timeout (100 ticks by default). It does not wait for the app to
// actually be running, only for the request to be accepted onto threadQ,
// matching appmanager_app_start's fire-and-forget handoff. A failed quit
// post is logged by Quit and does not stop the start request.
func (c *Controller) Start(name string) error {
	_ = c.Quit()
	if err := c.threadQ.SendTimeout(startRequest{name: name}, c.cfg.StartTimeout()); err != nil {
		c.logger.Error("start request dropped, thread_q full", zap.String("name", name))
		return err
	}
	return nil
}

// Quit posts APP_QUIT to the running guest's queue, bounded by the
// configured quit timeout (10 ticks by default).
func (c *Controller) Quit() error {
	if err := c.msgQ.SendTimeout(types.QuitMessage(), c.cfg.QuitTimeout()); err != nil {
		c.logger.Error("quit request dropped, msg_q full")
		return err
	}
	return nil
}

// PostButton posts a button event to the running guest, bounded by the
// configured button timeout (10 ticks by default).
func (c *Controller) PostButton(p types.ButtonPayload) error {
	if err := c.msgQ.SendTimeout(types.ButtonMessage(p), c.cfg.ButtonTimeout()); err != nil {
		if c.metrics != nil {
			c.metrics.ButtonsDropped.Inc()
		}
		c.logger.Error("button post dropped, msg_q full")
		return err
	}
	return nil
}

// PostTick posts a tick event from ISR context: non-blocking, dropped
// silently (counted) if msg_q is full, matching xQueueSendToBackFromISR's
// "never suspend" contract.
func (c *Controller) PostTick(p types.TickPayload) bool {
	ok := c.msgQ.TrySend(types.TickMessage(p))
	if !ok && c.metrics != nil {
		c.metrics.TicksDropped.Inc()
	}
	return ok
}

// RunningApp returns the currently running application record, or nil if
// none has ever been started.
func (c *Controller) RunningApp() *types.Application {
	return c.running.Load()
}

// CurrentSlot reports the flash slot of the running app, for the resource
// proxy functions in internal/resource. The bool is false if no app is
// running or the running app is internal (no flash slot).
func (c *Controller) CurrentSlot() (int, bool) {
	app := c.running.Load()
	if app == nil || app.IsInternal {
		return 0, false
	}
	return app.SlotID, true
}

// Head exposes the manifest for UI-style enumeration.
func (c *Controller) Head() *types.Application {
	return c.manifest.Head()
}

// Stats reports a snapshot of manifest and controller state.
func (c *Controller) Stats() types.Stats {
	s := types.Stats{TotalApps: c.manifest.Len()}
	if app := c.running.Load(); app != nil {
		name := app.Name
		s.RunningApp = &name
	}
	if gen := c.generation.Load(); gen != nil {
		s.Generation = *gen
	}
	return s
}

// Run is the controller task: block on threadQ forever (portMAX_DELAY),
// and for each request, clear stale msg_q traffic, look the app up,
// force-delete any currently running guest, and spawn the new one. It
// returns only when ctx is cancelled.
func (c *Controller) Run(ctx context.Context) {
	for {
		req, ok := c.threadQ.ReceiveCtx(ctx)
		if !ok {
			return
		}
		c.handleStart(req.name)
	}
}

func (c *Controller) handleStart(name string) {
	dropped := c.msgQ.Drain()
	if dropped > 0 {
		c.logger.Debug("drained stale msg_q entries on app start", zap.Int("count", dropped))
	}

	if c.manifest.Head() == nil {
		c.logger.Error("no apps found in manifest")
		return
	}

	var app *types.Application
	if c.cfg.Manifest.ExactNameMatch {
		app = c.manifest.LookupExact(name)
	} else {
		app = c.manifest.LookupPrefix(name)
	}
	if app == nil {
		c.logger.Error("no app found", zap.String("name", name))
		return
	}

	c.forceDeleteGuest()

	c.running.Store(app)
	gen := uuid.NewString()
	c.generation.Store(&gen)

	var entry types.EntryFunc
	var stackWords int
	if app.IsInternal {
		entry = app.Entry
		stackWords = c.cfg.Arena.MaxAppStackWords
	} else {
		result, err := c.loader.Load(app)
		if err != nil {
			c.logger.Error("app load failed", zap.String("name", app.Name), zap.Error(err))
			return
		}
		entry = result.Entry
		stackWords = result.StackWords
	}

	if entry == nil {
		c.logger.Error("app has no entry point", zap.String("name", app.Name))
		return
	}

	c.logger.Info("starting app", zap.String("name", app.Name), zap.String("generation", gen))

	priority := 6 // tskIDLE_PRIORITY+6 in the original firmware's guest task
	sym := types.SymAddr(0)
	a := c.arena

	h, err := c.sched.Spawn(task.SpawnOptions{
		Name:       app.Name,
		Priority:   priority,
		StackWords: stackWords,
		Entry: func(taskCtx context.Context, self task.Handle) {
			entry(a, sym)
			_ = pump.Run(taskCtx, pump.Deps{
				MsgQ:         c.msgQ,
				Self:         self,
				AppType:      app.Type,
				BlockTimeout: c.cfg.Queue.PumpBlockTimeout,
				Logger:       c.logger,
				Metrics:      c.metrics,
				Starter:      c,
			})
		},
	})
	if err != nil {
		c.logger.Error("app spawn failed", zap.String("name", app.Name), zap.Error(err))
		return
	}

	c.guestMu.Lock()
	c.guest = h
	c.guestMu.Unlock()

	if c.metrics != nil {
		c.metrics.StartsTotal.Inc()
		c.metrics.GuestRunning.Set(1)
	}

	go c.watchGuest(h, gen)
}

// forceDeleteGuest unconditionally stops any currently running guest task
// without running its teardown code, matching vTaskDelete(_app_task_handle)
// in the original controller: "the task will die hard."
func (c *Controller) forceDeleteGuest() {
	c.guestMu.Lock()
	prev := c.guest
	c.guest = nil
	c.guestMu.Unlock()

	if prev == nil {
		return
	}
	prev.Stop()
	if c.metrics != nil {
		c.metrics.ForceDeletesTotal.Inc()
	}
	c.logger.Debug("force-deleted previous guest task", zap.String("id", prev.ID()))
}

// isCurrentGeneration reports whether generation still names the guest
// this Controller considers current. A stale watcher whose guest was
// force-deleted must not clobber GuestRunning after a newer guest has
// already been spawned and reported itself running.
func (c *Controller) isCurrentGeneration(generation string) bool {
	gen := c.generation.Load()
	return gen != nil && *gen == generation
}

// watchGuest waits for a guest task to exit on its own (a clean APP_QUIT,
// or a panic recovered by the scheduler) and logs the outcome. It never
// touches c.guest if a newer generation has already replaced it.
func (c *Controller) watchGuest(h task.Handle, generation string) {
	<-h.Done()
	if c.metrics != nil && c.isCurrentGeneration(generation) {
		c.metrics.GuestRunning.Set(0)
	}
	if err := h.Err(); err != nil {
		c.logger.Error("guest task exited abnormally", zap.String("generation", generation), zap.Error(err))
		return
	}
	c.logger.Debug("guest task exited", zap.String("generation", generation))
}
