// Package pump implements the guest-side event loop (spec.md §4.5): once a
// guest task is spawned, this is the first and only code it runs. It blocks
// on the message queue, dispatching APP_BUTTON and APP_TICK payloads to
// their registered callbacks, and on APP_QUIT it tears down its own
// subscriptions, stops its own task handle and returns, after which the
// task's goroutine ends.
package pump

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/metrics"
	"github.com/rebbleos/appmanager/internal/queue"
	"github.com/rebbleos/appmanager/internal/task"
	"github.com/rebbleos/appmanager/internal/types"
)

// WindowHost stands in for the window subsystem's load hooks, called once
// at pump startup, matching rbl_window_load_proc/rbl_window_load_click_config.
type WindowHost interface {
	LoadProc()
	LoadClickConfig()
	MarkDirty()
}

// ClickHost stands in for the click-recognizer subsystem. SubscribeSelect
// installs the SELECT-button handler every non-SYSTEM app gets by default;
// UnsubscribeAll tears every subscription down on APP_QUIT.
type ClickHost interface {
	SubscribeSelect(h types.ClickHandler)
	UnsubscribeAll()
}

// TickHost stands in for the tick-timer service. Unsubscribe stops any
// tick subscription the guest registered, called on APP_QUIT.
type TickHost interface {
	Unsubscribe()
}

// Starter starts a named application by request, the pump's view of the
// controller used only for the FACE-type SELECT shortcut ("press SELECT on
// a watchface, land on System").
type Starter interface {
	Start(name string) error
}

// MenuSelector stands in for the system menu's own SELECT handling, invoked
// only when the running app is itself SYSTEM.
type MenuSelector interface {
	MenuSelect()
}

// Deps bundles the pump's collaborators. MsgQ and Self are required; the
// rest may be nil, in which case the corresponding setup, teardown, or
// SELECT-button behavior is skipped (useful in tests that only care about
// message dispatch).
type Deps struct {
	MsgQ         *queue.Queue[types.Message]
	Self         task.Handle
	AppType      types.AppType
	Window       WindowHost
	Click        ClickHost
	Tick         TickHost
	Starter      Starter
	Menu         MenuSelector
	BlockTimeout time.Duration
	Logger       *logging.Logger
	Metrics      *metrics.Metrics
}

// Run executes the event pump. It returns nil in two cases: when ctx is
// cancelled out from under it (the controller's force-delete path), checked
// between receives; and on a clean APP_QUIT, where it calls Self.Stop() and
// returns right away without waiting for the cancellation. A guest callback that panics is allowed to propagate; the
// scheduler's panic recovery at the goroutine boundary converts it into a
// logged, force-stopped task, matching spec.md §7's "no guest teardown on
// abnormal exit."
func Run(ctx context.Context, d Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewDefault()
	}
	blockTimeout := d.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = time.Second
	}

	if d.Window != nil {
		d.Window.LoadProc()
		d.Window.LoadClickConfig()
	}

	if d.AppType != types.TypeSystem && d.Click != nil {
		d.Click.SubscribeSelect(defaultSelectHandler(d))
	}

	if d.Window != nil {
		d.Window.MarkDirty()
	}

	logger.Info("app entered mainloop")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, ok := d.MsgQ.Receive(blockTimeout)
		if !ok {
			continue
		}

		switch msg.Kind {
		case types.AppButton:
			if msg.Button != nil && msg.Button.Callback != nil {
				msg.Button.Callback(msg.Button.ClickRef, msg.Button.Context)
			}
		case types.AppTick:
			if msg.Tick != nil && msg.Tick.Callback != nil {
				msg.Tick.Callback(msg.Tick.TickTime, msg.Tick.TickUnits)
			}
		case types.AppQuit:
			if d.Click != nil {
				d.Click.UnsubscribeAll()
			}
			if d.Tick != nil {
				d.Tick.Unsubscribe()
			}
			logger.Info("app quit")
			if d.Metrics != nil {
				d.Metrics.QuitsTotal.Inc()
			}
			d.Self.Stop()
			return nil
		default:
			logger.Error("unknown message kind on msg_q", zap.Int("kind", int(msg.Kind)))
		}
	}
}

// defaultSelectHandler is the SELECT-button shortcut installed for every
// non-SYSTEM app, matching app_select_single_click_handler: a FACE app
// hands off to "System"; a WATCHAPP has no default behavior; a SYSTEM app
// never reaches here (it isn't subscribed).
func defaultSelectHandler(d Deps) types.ClickHandler {
	return func(ref types.ClickRef, context interface{}) {
		switch d.AppType {
		case types.TypeFace:
			if d.Starter != nil {
				if err := d.Starter.Start("System"); err != nil && d.Logger != nil {
					d.Logger.Error("select-button System start failed", zap.Error(err))
				}
			}
		case types.TypeSystem:
			if d.Menu != nil {
				d.Menu.MenuSelect()
			}
		}
	}
}
