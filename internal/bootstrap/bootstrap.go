// Package bootstrap wires the three host-linked internal applications
// ("System", "Simple", "NiVZ"; spec.md §3/§4.2) into a manifest and starts
// the system app, matching appmanager_init's
// _appmanager_add_to_manifest(...) sequence followed by
// appmanager_app_start("System").
package bootstrap

import (
	"context"

	"github.com/rebbleos/appmanager/internal/arena"
	"github.com/rebbleos/appmanager/internal/controller"
	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/manifest"
	"github.com/rebbleos/appmanager/internal/types"
)

// InternalApps returns the built-in applications baked into the host
// binary, in the fixed boot order the original firmware registers them.
func InternalApps(logger *logging.Logger) []*types.Application {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return []*types.Application{
		{Name: "System", Type: types.TypeSystem, IsInternal: true, Entry: systemMain(logger)},
		{Name: "Simple", Type: types.TypeFace, IsInternal: true, Entry: simpleMain(logger)},
		{Name: "NiVZ", Type: types.TypeFace, IsInternal: true, Entry: nivzMain(logger)},
	}
}

// Seed appends every internal app to m, in boot order.
func Seed(m *manifest.Manifest, logger *logging.Logger) {
	for _, app := range InternalApps(logger) {
		m.Add(app)
	}
}

// Run starts the controller task and issues the default "System" start
// request, the Go-idiomatic equivalent of appmanager_init()'s final
// appmanager_app_start("System") call. Callers are expected to have
// already seeded the manifest with Seed and run any flash scan, matching
// the original's "internal apps first, then flash, then start System"
// ordering.
func Run(ctx context.Context, c *controller.Controller) error {
	go c.Run(ctx)
	return c.Start("System")
}

// systemMain is the internal System app: a minimal privileged app that, in
// the original firmware, hosts the watch's menu and app-launcher UI. The
// menu/window subsystem is out of scope here, so this entry point only
// logs that it was reached; the controller runs the event pump once it
// returns.
func systemMain(logger *logging.Logger) types.EntryFunc {
	return func(a *arena.Arena, sym types.SymAddr) {
		logger.Debug("System app entry reached")
	}
}

// simpleMain is the internal Simple watchface: the minimal always-available
// face a device falls back to, matching simple_main in the original
// firmware's demo apps.
func simpleMain(logger *logging.Logger) types.EntryFunc {
	return func(a *arena.Arena, sym types.SymAddr) {
		logger.Debug("Simple app entry reached")
	}
}

// nivzMain is the internal NiVZ watchface, the second built-in face
// registered at boot.
func nivzMain(logger *logging.Logger) types.EntryFunc {
	return func(a *arena.Arena, sym types.SymAddr) {
		logger.Debug("NiVZ app entry reached")
	}
}
