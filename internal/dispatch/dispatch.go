// Package dispatch implements the Command Dispatcher (C10), spec §4.10/§6:
// command decoding, id assignment, closed-switch routing to the Snapshot
// Engine and Action Executor, and panic/error recovery into the response
// envelope.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fenwickbrowser/corebrowser/internal/action"
	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
	"github.com/fenwickbrowser/corebrowser/internal/dom"
	"github.com/fenwickbrowser/corebrowser/internal/highlight"
	"github.com/fenwickbrowser/corebrowser/internal/refmap"
	"github.com/fenwickbrowser/corebrowser/internal/snapshot"
)

// Dispatcher is the single entry point a host calls once per command, spec
// §5 ("single-threaded, cooperative"): Dispatch must not be called again
// concurrently with itself on the same Dispatcher.
type Dispatcher struct {
	doc       dom.Document
	win       dom.Window
	refMap    *refmap.Map
	executor  *action.Executor
	snapEng   *snapshot.Engine
	overlay   *highlight.Overlay
	log       zerolog.Logger
	lastSnap  coretypes.SnapshotData
	haveSnap  bool
	idCounter uint64
}

// New wires a Dispatcher over the given host collaborators, spec §5.
func New(doc dom.Document, win dom.Window, refMap *refmap.Map, executor *action.Executor, snapEng *snapshot.Engine, overlay *highlight.Overlay, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		doc:      doc,
		win:      win,
		refMap:   refMap,
		executor: executor,
		snapEng:  snapEng,
		overlay:  overlay,
		log:      log.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch decodes and routes cmd, recovering from any panic raised while
// handling it into a failure Response rather than propagating, spec §7.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd coretypes.Command) (resp coretypes.Response) {
	if cmd.ID == "" {
		cmd.ID = d.nextID()
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("action", string(cmd.Action)).Msg("recovered panic in dispatch")
			resp = coretypes.Fail(cmd.ID, fmt.Errorf("internal error handling %s: %v", cmd.Action, r))
		}
	}()

	if !cmd.Action.Valid() {
		return coretypes.Fail(cmd.ID, &coretypes.CoreError{
			Code:    coretypes.ErrInvalidParameters,
			Message: fmt.Sprintf("unknown action %q", cmd.Action),
		})
	}

	d.log.Debug().Str("id", cmd.ID).Str("action", string(cmd.Action)).Msg("dispatching")

	data, err := d.route(ctx, cmd)
	if err != nil {
		return coretypes.Fail(cmd.ID, err)
	}
	return coretypes.Ok(cmd.ID, data)
}

func (d *Dispatcher) route(ctx context.Context, cmd coretypes.Command) (any, error) {
	switch cmd.Action {
	case coretypes.ActionSnapshot:
		return d.snapshot(cmd.Args, coretypes.ModeInteractive)
	case coretypes.ActionExtract:
		return d.snapshot(cmd.Args, coretypes.ModeExtract)
	case coretypes.ActionHighlight:
		return d.highlightLast()
	case coretypes.ActionClearHighlight:
		d.overlay.Clear()
		return map[string]any{"cleared": true}, nil
	default:
		return d.executor.Execute(ctx, cmd)
	}
}

func (d *Dispatcher) snapshot(args map[string]any, fallbackMode coretypes.SnapshotMode) (coretypes.SnapshotData, error) {
	opts := optionsFromArgs(args, fallbackMode)
	data, err := d.snapEng.Create(d.doc, d.win, d.refMap, opts)
	if err != nil {
		return coretypes.SnapshotData{}, err
	}
	d.lastSnap = data
	d.haveSnap = true
	return data, nil
}

func (d *Dispatcher) highlightLast() (map[string]any, error) {
	if !d.haveSnap {
		return nil, &coretypes.CoreError{
			Code:    coretypes.ErrInvalidParameters,
			Message: "highlight requires a prior snapshot",
		}
	}
	d.overlay.Show(d.lastSnap, d.refMap)
	return map[string]any{"refs": len(d.lastSnap.Refs)}, nil
}

func optionsFromArgs(args map[string]any, fallback coretypes.SnapshotMode) coretypes.SnapshotOptions {
	opts := coretypes.SnapshotOptions{Mode: fallback}
	if m, ok := args["mode"].(string); ok && m != "" {
		opts.Mode = coretypes.SnapshotMode(m)
	}
	if f, ok := args["format"].(string); ok && f != "" {
		opts.Format = coretypes.SnapshotFormat(f)
	}
	if r, ok := args["root"].(string); ok {
		opts.Root = r
	}
	if d, ok := args["maxDepth"].(float64); ok {
		opts.MaxDepth = int(d)
	}
	if b, ok := args["includeHidden"].(bool); ok {
		opts.IncludeHidden = b
	}
	if b, ok := args["includeLinks"].(bool); ok {
		opts.IncludeLinks = b
	}
	if b, ok := args["includeImages"].(bool); ok {
		opts.IncludeImages = b
	}
	if l, ok := args["maxLength"].(float64); ok {
		opts.MaxLength = int(l)
	}
	if g, ok := args["grep"].(map[string]any); ok {
		grepOpts := &coretypes.GrepOptions{}
		if p, ok := g["pattern"].(string); ok {
			grepOpts.Pattern = p
		}
		if b, ok := g["ignoreCase"].(bool); ok {
			grepOpts.IgnoreCase = b
		}
		if b, ok := g["invert"].(bool); ok {
			grepOpts.Invert = b
		}
		if b, ok := g["fixedStrings"].(bool); ok {
			grepOpts.FixedStrings = b
		}
		opts.Grep = grepOpts
	}
	return opts
}

// nextID assigns a monotonic-counter + timestamp id when the caller left
// Command.ID empty, spec §6.
func (d *Dispatcher) nextID() string {
	n := atomic.AddUint64(&d.idCounter, 1)
	return "cmd-" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(n, 10)
}
