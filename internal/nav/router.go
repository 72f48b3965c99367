// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav implements the single-active-view router.
package nav

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/view"
)

// DefaultQueueSize is the request queue depth used when Options.QueueSize is 0.
const DefaultQueueSize = 16

// =============================================================================
// OPTIONS / RESULT / EVENTS
// =============================================================================

// Options configures a Router. Registry, Loader and MountPoint are required.
type Options struct {
	Registry   *registry.Registry
	Loader     view.Loader
	MountPoint view.MountPoint

	// Fragment defaults to an empty MemoryFragment.
	Fragment Fragment

	// Logger defaults to logging.Discard.
	Logger *log.Logger

	// MountTimeout bounds each load+mount. 0 means no timeout.
	MountTimeout time.Duration

	// QueueSize is the request buffer depth.
	QueueSize int

	// HistorySize bounds Back history. 0 disables Back.
	HistorySize int

	// Now is the clock used for state timestamps.
	Now func() time.Time
}

// Result describes a processed navigation.
type Result struct {
	// Requested is the name as asked for ("" for the default view).
	Requested string
	// Name is the view that was mounted, or that failed to mount.
	Name string
	// Fallback is true when Requested was unknown and Name is the default.
	Fallback bool
	// TeardownErr is set when the previous view's Unmount failed.
	TeardownErr *TeardownError
}

// EventKind classifies router events.
type EventKind int

const (
	// EventNavigated fires after a view became active.
	EventNavigated EventKind = iota
	// EventFailed fires after a load or mount failure left no active view.
	EventFailed
	// EventSuperseded fires when a request lost to a newer one.
	EventSuperseded
	// EventClosed fires once, after Shutdown tore down the active view.
	EventClosed
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventNavigated:
		return "navigated"
	case EventFailed:
		return "failed"
	case EventSuperseded:
		return "superseded"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is published to subscribers after every processed navigation.
type Event struct {
	Kind     EventKind
	Result   Result
	Err      error
	Snapshot Snapshot
}

// =============================================================================
// REQUESTS
// =============================================================================

type requestKind int

const (
	reqNavigate requestKind = iota
	reqBack
	reqInput
	reqShutdown
)

type reply struct {
	res Result
	err error
}

type request struct {
	kind   requestKind
	id     string
	seq    uint64
	name   string
	input  string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan reply
}

func (req *request) respond(res Result, err error) {
	if req.done != nil {
		req.done <- reply{res: res, err: err}
	}
}

// =============================================================================
// ROUTER
// =============================================================================

// Router mounts exactly one view at a time into a mount point. All requests
// are processed in order by a single worker goroutine, so a teardown always
// completes before the next mount begins. When requests pile up, the newest
// navigation wins.
type Router struct {
	reg      *registry.Registry
	loader   view.Loader
	mp       view.MountPoint
	fragment Fragment
	logger   *log.Logger
	timeout  time.Duration
	state    *State

	queue chan *request
	done  chan struct{}

	mu        sync.Mutex
	seq       uint64 // newest navigation sequence number
	inflight  *request
	closed    bool
	lastErr   error
	lastFrag  string
	history   []string
	stopWatch context.CancelFunc

	historySize int
	committed   string // worker-owned

	subMu     sync.Mutex
	subs      map[int]func(Event)
	nextSubID int
}

// New creates a router and starts its worker. Call Start to mount the view
// named by the fragment, and Shutdown to stop.
func New(opts Options) (*Router, error) {
	if opts.Registry == nil {
		return nil, errors.New("nav: registry is required")
	}
	if opts.Loader == nil {
		return nil, errors.New("nav: loader is required")
	}
	if opts.MountPoint == nil {
		return nil, errors.New("nav: mount point is required")
	}
	if opts.Fragment == nil {
		opts.Fragment = NewMemoryFragment("")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.HistorySize < 0 {
		opts.HistorySize = 0
	}

	r := &Router{
		reg:         opts.Registry,
		loader:      opts.Loader,
		mp:          opts.MountPoint,
		fragment:    opts.Fragment,
		logger:      logging.OrDiscard(opts.Logger),
		timeout:     opts.MountTimeout,
		state:       newState(opts.Now),
		queue:       make(chan *request, opts.QueueSize),
		done:        make(chan struct{}),
		historySize: opts.HistorySize,
		subs:        make(map[int]func(Event)),
	}

	go r.processLoop()
	return r, nil
}

// =============================================================================
// PUBLIC API
// =============================================================================

// Start navigates to the view named by the fragment (the default view when
// it is empty) and, if the fragment can change externally, starts following
// it. The watch stops on Shutdown or when ctx is done.
func (r *Router) Start(ctx context.Context) (Result, error) {
	initial := r.fragment.Get()
	r.logger.Printf("[Router] start fragment=%q default=%s", initial, r.reg.DefaultViewName())

	if w, ok := r.fragment.(FragmentWatcher); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		if err := w.Watch(watchCtx, r.onFragmentChange); err != nil {
			cancel()
			r.logger.Printf("[Router] fragment watch disabled: %v", err)
		} else {
			r.mu.Lock()
			r.stopWatch = cancel
			r.mu.Unlock()
		}
	}

	return r.Navigate(ctx, initial)
}

// Navigate requests name and blocks until the request is processed. An empty
// name selects the default view; an unknown name falls back to it.
//
// The returned error is nil on success, ErrSuperseded when a newer request
// won, ErrClosed after Shutdown, or a *ModuleLoadError / *MountError.
func (r *Router) Navigate(ctx context.Context, name string) (Result, error) {
	return r.await(ctx, r.newRequest(ctx, reqNavigate, name, true))
}

// Go requests name without waiting. It is what selectors and fragment
// changes call.
func (r *Router) Go(name string) {
	req := r.newRequest(context.Background(), reqNavigate, name, false)
	if err := r.enqueue(req, false); err != nil {
		r.logger.Printf("[Router] go %q dropped: %v", name, err)
	}
}

// Back navigates to the previously active view.
func (r *Router) Back(ctx context.Context) (Result, error) {
	return r.await(ctx, r.newRequest(ctx, reqBack, "", true))
}

// Deliver passes user input to the active view. Input runs on the router's
// queue so it never reaches a view that is being torn down.
func (r *Router) Deliver(ctx context.Context, input string) error {
	req := r.newRequest(ctx, reqInput, "", true)
	req.input = input
	_, err := r.await(ctx, req)
	return err
}

// InputHint reports whether the active view accepts input and, if it
// implements view.Hinter, the prompt to show for it.
func (r *Router) InputHint() (hint string, interactive bool) {
	h, _, ok := r.state.active()
	if !ok {
		return "", false
	}
	if _, ok := h.(view.Interactive); !ok {
		return "", false
	}
	if hn, ok := h.(view.Hinter); ok {
		return hn.InputHint(), true
	}
	return "", true
}

// Snapshot returns a copy of the navigation state.
func (r *Router) Snapshot() Snapshot {
	return r.state.Snapshot()
}

// LastError returns the failure from the most recent navigation, or nil if
// it succeeded.
func (r *Router) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Registry returns the router's view registry.
func (r *Router) Registry() *registry.Registry {
	return r.reg
}

// History returns the Back stack, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Subscribe registers fn for router events and returns a function that
// removes it. fn runs on the router's worker and must not block or call
// Navigate; use Go instead.
func (r *Router) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.subMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = fn
	r.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
		})
	}
}

// Shutdown stops accepting requests, unmounts the active view, clears the
// mount point and leaves the state Idle with no active name. Pending
// requests fail with ErrSuperseded or ErrClosed. It is safe to call twice.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		select {
		case <-r.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.closed = true
	r.seq++
	if r.inflight != nil {
		r.inflight.cancel()
	}
	if r.stopWatch != nil {
		r.stopWatch()
	}
	r.mu.Unlock()

	req := &request{
		kind:   reqShutdown,
		id:     shortID(),
		ctx:    context.Background(),
		cancel: func() {},
		done:   make(chan reply, 1),
	}

	select {
	case r.queue <- req:
	case <-ctx.Done():
		// closed is already set, so the request must still reach the
		// worker or later calls would wait on done forever.
		go r.send(req)
		return ctx.Err()
	}

	select {
	case rep := <-req.done:
		return rep.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the worker has exited after Shutdown.
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// =============================================================================
// QUEUE
// =============================================================================

func (r *Router) newRequest(ctx context.Context, kind requestKind, name string, wait bool) *request {
	if ctx == nil {
		ctx = context.Background()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	req := &request{
		kind:   kind,
		id:     shortID(),
		name:   name,
		ctx:    reqCtx,
		cancel: cancel,
	}
	if wait {
		req.done = make(chan reply, 1)
	}
	return req
}

// enqueue assigns a sequence number to navigations, cancels an older
// in-flight mount, and hands req to the worker. When block is false and the
// buffer is full the send finishes on its own goroutine; ordering is still
// safe because the worker drops anything older than the newest sequence.
func (r *Router) enqueue(req *request, block bool) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		req.cancel()
		return ErrClosed
	}
	if req.kind == reqNavigate || req.kind == reqBack {
		r.seq++
		req.seq = r.seq
		if r.inflight != nil && r.inflight.seq < req.seq {
			r.logger.Printf("[Router] cancel in-flight id=%s view=%s superseded_by=%s", r.inflight.id, r.inflight.name, req.id)
			r.inflight.cancel()
		}
	}
	r.mu.Unlock()

	select {
	case r.queue <- req:
		return nil
	default:
	}

	if !block {
		go r.send(req)
		return nil
	}
	return r.send(req)
}

func (r *Router) send(req *request) error {
	select {
	case r.queue <- req:
		return nil
	case <-r.done:
		req.cancel()
		req.respond(Result{Requested: req.name}, ErrClosed)
		return ErrClosed
	case <-req.ctx.Done():
		err := req.ctx.Err()
		req.respond(Result{Requested: req.name}, err)
		return err
	}
}

// await enqueues req and waits for its reply.
func (r *Router) await(ctx context.Context, req *request) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := r.enqueue(req, true); err != nil {
		return Result{Requested: req.name}, err
	}

	select {
	case rep := <-req.done:
		return rep.res, rep.err
	case <-r.done:
		select {
		case rep := <-req.done:
			return rep.res, rep.err
		default:
			return Result{Requested: req.name}, ErrClosed
		}
	case <-ctx.Done():
		// The request stays queued; its cancelled context makes the
		// worker skip or abort it.
		return Result{Requested: req.name}, ctx.Err()
	}
}

// isStale reports whether a newer navigation has been requested since req.
func (r *Router) isStale(req *request) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return req.seq < r.seq
}

// =============================================================================
// WORKER
// =============================================================================

// processLoop drains the queue until a shutdown request arrives.
func (r *Router) processLoop() {
	for req := range r.queue {
		if req.kind == reqShutdown {
			err := r.shutdown()
			close(r.done)
			r.drain()
			req.respond(Result{}, err)
			return
		}
		r.process(req)
	}
}

// drain fails whatever was queued behind the shutdown.
func (r *Router) drain() {
	for {
		select {
		case req := <-r.queue:
			req.cancel()
			req.respond(Result{Requested: req.name}, ErrClosed)
		default:
			return
		}
	}
}

func (r *Router) process(req *request) {
	defer req.cancel()

	switch req.kind {
	case reqInput:
		req.respond(Result{}, r.deliver(req))
		return
	case reqBack:
		name, ok := r.popHistory()
		if !ok {
			req.respond(Result{}, ErrNoHistory)
			return
		}
		req.name = name
	}

	if r.isStale(req) {
		r.logger.Printf("[Router] skip id=%s view=%q: superseded before start", req.id, req.name)
		if req.kind == reqBack {
			r.pushHistory(req.name)
		}
		req.respond(Result{Requested: req.name}, ErrSuperseded)
		return
	}
	if err := req.ctx.Err(); err != nil {
		r.logger.Printf("[Router] skip id=%s view=%q: %v", req.id, req.name, err)
		req.respond(Result{Requested: req.name}, err)
		return
	}

	r.mu.Lock()
	r.inflight = req
	r.mu.Unlock()

	res, err := r.navigate(req)

	r.mu.Lock()
	r.inflight = nil
	if err == nil {
		r.lastErr = nil
	} else if IsNavigationFailure(err) {
		r.lastErr = err
	}
	r.mu.Unlock()

	kind := EventNavigated
	switch {
	case errors.Is(err, ErrSuperseded):
		kind = EventSuperseded
	case err != nil:
		kind = EventFailed
	}
	r.publish(Event{Kind: kind, Result: res, Err: err, Snapshot: r.state.Snapshot()})

	req.respond(res, err)
}

// navigate runs one teardown-then-mount cycle. Unknown names take the same
// path as known ones with the default view substituted.
func (r *Router) navigate(req *request) (Result, error) {
	start := time.Now()
	res := Result{Requested: req.name}

	name := req.name
	if name == "" {
		name = r.reg.DefaultViewName()
	}

	res.TeardownErr = r.teardown()

	desc, fallback, err := r.resolve(name)
	if err != nil {
		// Only reachable with a registry whose default is missing.
		r.logger.Printf("[Router] resolve %q failed: %v", name, err)
		_ = r.state.transition(PhaseIdle)
		return res, err
	}
	res.Name = desc.Name
	res.Fallback = fallback
	if fallback {
		r.logger.Printf("[Router] view %q not found, falling back to %s", name, desc.Name)
	}

	prev := r.committed
	r.state.setName(desc.Name)
	r.writeFragment(desc.Name)

	if err := r.state.transition(PhaseMounting); err != nil {
		return res, err
	}

	h, err := r.mount(req.ctx, desc)
	if err != nil {
		// A view may have written before failing; nothing of it stays.
		r.mp.Clear()
		_ = r.state.transition(PhaseIdle)
		if r.isStale(req) {
			r.logger.Printf("[Router] mount id=%s view=%s abandoned: superseded", req.id, desc.Name)
			return res, ErrSuperseded
		}
		if errors.Is(err, context.Canceled) && req.ctx.Err() != nil {
			// The caller gave up; not the view's fault.
			r.logger.Printf("[Router] mount id=%s view=%s cancelled by caller", req.id, desc.Name)
			r.committed = ""
			return res, req.ctx.Err()
		}
		r.logger.Printf("[Router] navigation id=%s view=%s failed: %v", req.id, desc.Name, err)
		r.committed = ""
		return res, err
	}

	// Last navigation wins: a mount that finished after a newer request was
	// queued is released instead of shown.
	if r.isStale(req) {
		r.logger.Printf("[Router] mount id=%s view=%s completed after being superseded, releasing", req.id, desc.Name)
		if terr := r.unmount(desc.Name, h); terr != nil {
			r.logger.Printf("[Router] %v", terr)
		}
		r.mp.Clear()
		_ = r.state.transition(PhaseIdle)
		return res, ErrSuperseded
	}

	if err := r.state.activate(h); err != nil {
		return res, err
	}
	if req.kind != reqBack && prev != "" && prev != desc.Name {
		r.pushHistory(prev)
	}
	r.committed = desc.Name

	r.logger.Printf("[Router] active view=%s id=%s fallback=%t took=%s", desc.Name, req.id, fallback, time.Since(start).Round(time.Microsecond))
	return res, nil
}

// resolve looks name up, substituting the default view once on ErrNotFound.
func (r *Router) resolve(name string) (registry.Descriptor, bool, error) {
	fallback := false
	for {
		desc, err := r.reg.Lookup(name)
		if err == nil {
			return desc, fallback, nil
		}
		if !errors.Is(err, registry.ErrNotFound) || fallback {
			return registry.Descriptor{}, fallback, err
		}
		fallback = true
		name = r.reg.DefaultViewName()
	}
}

// teardown unmounts the active view, if any, and clears the mount point.
// Failures are logged and returned but never stop the caller.
func (r *Router) teardown() *TeardownError {
	defer r.mp.Clear()

	if snap := r.state.Snapshot(); snap.Phase != PhaseActive {
		return nil
	}
	h, name, err := r.state.detach()
	if err != nil {
		r.logger.Printf("[Router] teardown: %v", err)
		return nil
	}

	terr := r.unmount(name, h)
	if terr != nil {
		r.logger.Printf("[Router] %v (continuing)", terr)
	}
	return terr
}

// unmount calls the handle's Unmount hook, isolating errors and panics.
func (r *Router) unmount(name string, h view.Handle) (terr *TeardownError) {
	u, ok := h.(view.Unmounter)
	if !ok {
		return nil
	}

	// RELIABILITY: a panicking view must not take the router down
	defer func() {
		if p := recover(); p != nil {
			terr = &TeardownError{View: name, Err: &PanicError{Value: p}}
		}
	}()

	if err := u.Unmount(context.Background()); err != nil {
		return &TeardownError{View: name, Err: err}
	}
	return nil
}

// mount loads and mounts desc under ctx plus the configured timeout.
func (r *Router) mount(ctx context.Context, desc registry.Descriptor) (h view.Handle, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	v, err := r.loader.Load(ctx, desc.ModulePath)
	if err != nil {
		return nil, &ModuleLoadError{View: desc.Name, ModulePath: desc.ModulePath, Err: err}
	}

	// RELIABILITY: a panicking view must not take the router down
	defer func() {
		if p := recover(); p != nil {
			h, err = nil, &MountError{View: desc.Name, Err: &PanicError{Value: p}}
		}
	}()

	h, err = v.Mount(ctx, r.mp)
	if err != nil {
		return nil, &MountError{View: desc.Name, Err: err}
	}
	if h == nil {
		h = struct{}{}
	}
	return h, nil
}

func (r *Router) deliver(req *request) error {
	h, name, ok := r.state.active()
	if !ok {
		return ErrNoActiveView
	}
	in, ok := h.(view.Interactive)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotInteractive, name)
	}
	if err := in.HandleInput(req.ctx, req.input); err != nil {
		r.logger.Printf("[Router] input to %s failed: %v", name, err)
		return err
	}
	return nil
}

// shutdown tears down the active view and leaves the state Idle.
func (r *Router) shutdown() error {
	terr := r.teardown()
	if r.state.Snapshot().Phase == PhaseTransitioning {
		_ = r.state.transition(PhaseIdle)
	}
	r.state.setName("")
	r.committed = ""
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()

	r.logger.Printf("[Router] shutdown complete")
	r.publish(Event{Kind: EventClosed, Snapshot: r.state.Snapshot()})

	if terr != nil {
		return terr
	}
	return nil
}

// =============================================================================
// FRAGMENT / HISTORY / EVENTS
// =============================================================================

func (r *Router) writeFragment(name string) {
	r.mu.Lock()
	r.lastFrag = name
	r.mu.Unlock()

	if err := r.fragment.Set(name); err != nil {
		r.logger.Printf("[Router] fragment write failed view=%s: %v", name, err)
	}
}

// onFragmentChange follows external fragment edits.
func (r *Router) onFragmentChange(name string) {
	r.mu.Lock()
	same := name == r.lastFrag
	r.mu.Unlock()
	if same {
		return
	}
	r.logger.Printf("[Router] fragment changed externally to %s", FormatFragment(name))
	r.Go(name)
}

func (r *Router) pushHistory(name string) {
	if r.historySize == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, name)
	if over := len(r.history) - r.historySize; over > 0 {
		r.history = append([]string(nil), r.history[over:]...)
	}
}

func (r *Router) popHistory() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return "", false
	}
	name := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	return name, true
}

func (r *Router) publish(ev Event) {
	r.subMu.Lock()
	fns := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		r.safeCall(fn, ev)
	}
}

func (r *Router) safeCall(fn func(Event), ev Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Printf("[Router] subscriber panic recovered: %v", p)
		}
	}()
	fn(ev)
}

func shortID() string {
	return uuid.NewString()[:8]
}
