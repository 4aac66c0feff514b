// Package core is the top-level façade, spec §1/§5: it wires the Snapshot
// Engine, Grep Filter, Selector Resolver, RefMap, Action Executor, Error
// Shaper, Highlight Overlay, and Command Dispatcher over a single
// dom.Document/dom.Window pair and exposes the single Dispatch entry point
// a host calls once per command.
package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fenwickbrowser/corebrowser/internal/action"
	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dispatch"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/highlight"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/shaper"
	"github.com/fenwickbrowser/corebrowser/internal/snapshot"
)

// Engine is one core instance bound to a single document, spec §5 ("one
// core instance per document; multi-document orchestration is a host
// concern").
type Engine struct {
	doc    dom.Document
	win    dom.Window
	refMap *refmap.Map
	disp   *dispatch.Dispatcher
	log    zerolog.Logger
}

// New wires an Engine over doc/win with a fresh RefMap, spec §5. log is
// the base logger; each internal component attaches its own "component"
// field, mirroring the teacher's per-subsystem logger convention.
func New(doc dom.Document, win dom.Window, log zerolog.Logger) *Engine {
	refMap := refmap.New()
	shape := shaper.New(doc, win, refMap, log)
	resolverExecutor := action.New(doc, win, refMap, shape)
	snapEng := snapshot.New()
	overlay := highlight.New(doc, win)
	disp := dispatch.New(doc, win, refMap, resolverExecutor, snapEng, overlay, log)

	return &Engine{
		doc:    doc,
		win:    win,
		refMap: refMap,
		disp:   disp,
		log:    log.With().Str("component", "core").Logger(),
	}
}

// Dispatch runs one command to completion, spec §5 ("single-threaded,
// cooperative": callers must not invoke Dispatch again before the previous
// call returns).
func (e *Engine) Dispatch(ctx context.Context, cmd coretypes.Command) coretypes.Response {
	return e.disp.Dispatch(ctx, cmd)
}

// RefMap exposes the engine's RefMap for hosts that need to inspect ref
// liveness directly (e.g. a demo CLI printing a snapshot's refs table).
func (e *Engine) RefMap() *refmap.Map { return e.refMap }
