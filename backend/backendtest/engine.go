// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package backendtest provides in-memory collaborator fakes for tests.
package backendtest

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/playcore/backend"
	"github.com/ManuGH/playcore/media"
)

// Command records one engine call for assertions.
type Command struct {
	Name string
	Arg  any
}

// Engine is a recording fake of backend.Engine. Notifications are
// emitted via Emit from any goroutine, mirroring real backends.
type Engine struct {
	mu       sync.Mutex
	commands []Command
	caps     backend.Capabilities
	notif    chan backend.Notification
	closed   bool

	// FailNext, when set, makes the next command return this error once.
	FailNext error
}

// NewEngine creates a fake engine with the given capabilities.
func NewEngine(caps backend.Capabilities) *Engine {
	return &Engine{
		caps:  caps,
		notif: make(chan backend.Notification, 256),
	}
}

func (e *Engine) record(name string, arg any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = append(e.commands, Command{Name: name, Arg: arg})
	if err := e.FailNext; err != nil {
		e.FailNext = nil
		return err
	}
	return nil
}

// Commands returns a copy of all recorded calls.
func (e *Engine) Commands() []Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Command(nil), e.commands...)
}

// CommandNames returns just the call names, in order.
func (e *Engine) CommandNames() []string {
	cmds := e.Commands()
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// LastArg returns the argument of the most recent call with the given name.
func (e *Engine) LastArg(name string) (any, bool) {
	cmds := e.Commands()
	for i := len(cmds) - 1; i >= 0; i-- {
		if cmds[i].Name == name {
			return cmds[i].Arg, true
		}
	}
	return nil, false
}

// Emit pushes a raw notification as if the backend raised it.
func (e *Engine) Emit(n backend.Notification) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.notif <- n
}

// LoadCall captures the arguments of one Load invocation.
type LoadCall struct {
	Src media.Source
	At  time.Duration
}

func (e *Engine) Load(_ context.Context, src media.Source, at time.Duration) error {
	return e.record("load", LoadCall{Src: src, At: at})
}
func (e *Engine) Play(context.Context) error  { return e.record("play", nil) }
func (e *Engine) Pause(context.Context) error { return e.record("pause", nil) }
func (e *Engine) Seek(_ context.Context, pos time.Duration) error {
	return e.record("seek", pos)
}
func (e *Engine) SetVolume(_ context.Context, v float64) error { return e.record("volume", v) }
func (e *Engine) SetSpeed(_ context.Context, s float64) error  { return e.record("speed", s) }

func (e *Engine) SelectTrack(_ context.Context, kind media.TrackKind, backendID string) error {
	return e.record("select_track:"+string(kind), backendID)
}
func (e *Engine) SelectQuality(_ context.Context, id string) error {
	return e.record("select_quality", id)
}
func (e *Engine) SetMaxBitrate(_ context.Context, bps int64) error {
	return e.record("max_bitrate", bps)
}
func (e *Engine) SetMinBitrate(_ context.Context, bps int64) error {
	return e.record("min_bitrate", bps)
}
func (e *Engine) SetCueEvents(_ context.Context, enabled bool) error {
	return e.record("cue_events", enabled)
}

func (e *Engine) Capabilities() backend.Capabilities { return e.caps }

func (e *Engine) Notifications() <-chan backend.Notification { return e.notif }

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.notif)
	}
	return nil
}

// Recovery is a scriptable fake of backend.RecoveryExecutor.
type Recovery struct {
	mu    sync.Mutex
	calls []RecoveryCall
	// Errs is consumed one per call; nil entries mean success.
	Errs []error
	// OnRecover, if set, runs after each call (e.g. to emit a
	// recovered notification on the engine).
	OnRecover func(call RecoveryCall, err error)
}

// RecoveryCall captures the arguments of one Recover invocation.
type RecoveryCall struct {
	Src    media.Source
	At     time.Duration
	Resume bool
}

func (r *Recovery) Recover(_ context.Context, src media.Source, at time.Duration, resume bool) error {
	r.mu.Lock()
	call := RecoveryCall{Src: src, At: at, Resume: resume}
	r.calls = append(r.calls, call)
	var err error
	if len(r.Errs) > 0 {
		err = r.Errs[0]
		r.Errs = r.Errs[1:]
	}
	hook := r.OnRecover
	r.mu.Unlock()

	if hook != nil {
		hook(call, err)
	}
	return err
}

// Calls returns a copy of all recorded recovery invocations.
func (r *Recovery) Calls() []RecoveryCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecoveryCall(nil), r.calls...)
}

// SubtitleLoader is a canned fake of backend.SubtitleLoader.
type SubtitleLoader struct {
	Cues []media.Cue
	Err  error
}

func (l *SubtitleLoader) Load(context.Context, media.Source, string) ([]media.Cue, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return append([]media.Cue(nil), l.Cues...), nil
}

// CastProvider is a scriptable fake of backend.CastProvider.
type CastProvider struct {
	DeviceList []media.CastDevice
	ch         chan backend.Notification
	closeOnce  sync.Once
}

func NewCastProvider(devices ...media.CastDevice) *CastProvider {
	return &CastProvider{
		DeviceList: devices,
		ch:         make(chan backend.Notification, 16),
	}
}

func (p *CastProvider) Devices(context.Context) ([]media.CastDevice, error) {
	return append([]media.CastDevice(nil), p.DeviceList...), nil
}

func (p *CastProvider) Changes() <-chan backend.Notification { return p.ch }

// EmitState pushes a cast connection transition.
func (p *CastProvider) EmitState(s media.CastState, device *media.CastDevice) {
	p.ch <- backend.Notification{Kind: backend.NotifyCastState, CastState: s, CastDevice: device}
}

func (p *CastProvider) Close() error {
	p.closeOnce.Do(func() { close(p.ch) })
	return nil
}
