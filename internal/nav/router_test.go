// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/view"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// recorder is the ordering log shared by every test view.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.list() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

type testView struct {
	name string
	rec  *recorder

	mountErr   error
	unmountErr error
	// partial is written to the mount point before mountErr is returned.
	partial string
	panicMount bool

	// block, when set, holds Mount until closed. ignoreCtx keeps holding
	// after cancellation so the mount completes late.
	block     chan struct{}
	ignoreCtx bool
	started   chan struct{}
}

func (v *testView) Mount(ctx context.Context, mp view.MountPoint) (view.Handle, error) {
	v.rec.add("mount:%s", v.name)
	if v.started != nil {
		select {
		case v.started <- struct{}{}:
		default:
		}
	}
	if v.panicMount {
		panic("mount exploded")
	}
	if v.block != nil {
		if v.ignoreCtx {
			<-v.block
		} else {
			select {
			case <-v.block:
			case <-ctx.Done():
				v.rec.add("cancelled:%s", v.name)
				return nil, ctx.Err()
			}
		}
	}
	if v.mountErr != nil {
		if v.partial != "" {
			mp.SetContent(v.partial)
		}
		return nil, v.mountErr
	}
	mp.SetContent("content:" + v.name)
	v.rec.add("mounted:%s", v.name)
	return &testHandle{name: v.name, rec: v.rec, unmountErr: v.unmountErr}, nil
}

type testHandle struct {
	name       string
	rec        *recorder
	unmountErr error
}

func (h *testHandle) Unmount(ctx context.Context) error {
	h.rec.add("unmount:%s", h.name)
	return h.unmountErr
}

func (h *testHandle) HandleInput(ctx context.Context, input string) error {
	h.rec.add("input:%s:%s", h.name, input)
	return nil
}

type fixture struct {
	rec    *recorder
	reg    *registry.Registry
	cat    *view.Catalog
	buf    *view.Buffer
	frag   *MemoryFragment
	views  map[string]*testView
	router *Router
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()

	rec := &recorder{}
	reg := registry.MustNew("Home", []registry.Descriptor{
		{Name: "Home", ModulePath: "views/home", ShowInHeader: true},
		{Name: "About", ModulePath: "views/about", ShowInHeader: true},
		{Name: "Chat", ModulePath: "views/chat", ShowInHeader: true},
		{Name: "Login", ModulePath: "views/login"},
		{Name: "Broken", ModulePath: "views/broken"},
		{Name: "Failing", ModulePath: "views/failing"},
		{Name: "Slow", ModulePath: "views/slow"},
	})

	f := &fixture{
		rec:   rec,
		reg:   reg,
		cat:   view.NewCatalog(),
		buf:   view.NewBuffer(80, 24),
		frag:  NewMemoryFragment(""),
		views: make(map[string]*testView),
	}
	for _, name := range []string{"Home", "About", "Chat", "Login", "Failing", "Slow"} {
		v := &testView{name: name, rec: rec, started: make(chan struct{}, 1)}
		f.views[name] = v
		f.cat.RegisterView("views/"+strings.ToLower(name), v)
	}
	f.views["Failing"].mountErr = errors.New("backend unavailable")

	o := Options{
		Registry:    reg,
		Loader:      f.cat,
		MountPoint:  f.buf,
		Fragment:    f.frag,
		HistorySize: 8,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Fragment != Fragment(f.frag) {
		if mf, ok := o.Fragment.(*MemoryFragment); ok {
			f.frag = mf
		}
	}

	r, err := New(o)
	require.NoError(t, err)
	f.router = r
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return f
}

func (f *fixture) navigate(t *testing.T, name string) Result {
	t.Helper()
	res, err := f.router.Navigate(context.Background(), name)
	require.NoError(t, err, "navigate %q", name)
	return res
}

func waitStarted(t *testing.T, v *testView) {
	t.Helper()
	select {
	case <-v.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("mount of %s never started", v.name)
	}
}

// =============================================================================
// BASIC NAVIGATION
// =============================================================================

func TestNew_RequiresCollaborators(t *testing.T) {
	reg := registry.MustNew("A", []registry.Descriptor{{Name: "A"}})
	_, err := New(Options{Loader: view.NewCatalog(), MountPoint: view.NewBuffer(1, 1)})
	assert.Error(t, err)
	_, err = New(Options{Registry: reg, MountPoint: view.NewBuffer(1, 1)})
	assert.Error(t, err)
	_, err = New(Options{Registry: reg, Loader: view.NewCatalog()})
	assert.Error(t, err)
}

func TestNavigate_EmptySelectsDefault(t *testing.T) {
	f := newFixture(t)

	res := f.navigate(t, "")
	assert.Equal(t, "", res.Requested)
	assert.Equal(t, "Home", res.Name)
	assert.False(t, res.Fallback)

	snap := f.router.Snapshot()
	assert.Equal(t, PhaseActive, snap.Phase)
	assert.Equal(t, "Home", snap.ActiveName)
	assert.True(t, snap.Mounted)
	assert.Equal(t, "Home", f.frag.Get())
	assert.Equal(t, "content:Home", f.buf.Content())
}

func TestNavigate_RegisteredNameRoundTrip(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"About", "Chat", "Login", "Home"} {
		res := f.navigate(t, name)
		assert.Equal(t, name, res.Name)
		assert.Equal(t, name, f.router.Snapshot().ActiveName)
		assert.Equal(t, name, f.frag.Get(), "fragment reflects %s", name)
	}
}

func TestNavigate_UnknownFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	f.navigate(t, "About")

	res := f.navigate(t, "Missing")
	assert.Equal(t, "Missing", res.Requested)
	assert.Equal(t, "Home", res.Name)
	assert.True(t, res.Fallback)
	assert.Equal(t, "Home", f.router.Snapshot().ActiveName)
	assert.Equal(t, "Home", f.frag.Get(), "fragment rewritten to the default")
	assert.NotContains(t, f.frag.Writes(), "Missing")
	assert.NoError(t, f.router.LastError())
}

func TestScenario_HomeAboutMissingReload(t *testing.T) {
	f := newFixture(t)

	res, err := f.router.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home", res.Name)

	f.navigate(t, "About")
	assert.Equal(t, "About", f.router.Snapshot().ActiveName)
	assert.Equal(t, "#About", FormatFragment(f.frag.Get()))

	f.navigate(t, "Missing")
	assert.Equal(t, "Home", f.router.Snapshot().ActiveName)
	assert.Equal(t, "#Home", FormatFragment(f.frag.Get()))

	// Reload with "#About" in the address.
	reloaded := newFixture(t, func(o *Options) { o.Fragment = NewMemoryFragment("#About") })
	res, err = reloaded.router.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "About", res.Name)
	assert.Equal(t, "About", reloaded.router.Snapshot().ActiveName)
}

// =============================================================================
// TEARDOWN
// =============================================================================

func TestTeardownCompletesBeforeNextMount(t *testing.T) {
	f := newFixture(t)

	f.navigate(t, "Home")
	f.navigate(t, "About")
	f.navigate(t, "Chat")

	assert.Equal(t, []string{
		"mount:Home", "mounted:Home",
		"unmount:Home",
		"mount:About", "mounted:About",
		"unmount:About",
		"mount:Chat", "mounted:Chat",
	}, f.rec.list())
	assert.Equal(t, 3, f.buf.Clears(), "mount point cleared on every transition")
}

func TestNavigate_SameViewRemounts(t *testing.T) {
	f := newFixture(t)
	f.navigate(t, "About")
	f.navigate(t, "About")

	assert.Equal(t, 1, f.rec.count("unmount:About"))
	assert.Equal(t, 2, f.rec.count("mounted:About"))
}

func TestTeardownError_IsIsolated(t *testing.T) {
	f := newFixture(t)
	f.views["Home"].unmountErr = errors.New("timer leak")

	f.navigate(t, "Home")
	res, err := f.router.Navigate(context.Background(), "About")
	require.NoError(t, err, "teardown failure must not block the next mount")

	require.NotNil(t, res.TeardownErr)
	assert.Equal(t, "Home", res.TeardownErr.View)

	var te *TeardownError
	assert.True(t, errors.As(error(res.TeardownErr), &te))
	assert.Equal(t, "About", f.router.Snapshot().ActiveName)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestModuleLoadError(t *testing.T) {
	f := newFixture(t)
	f.navigate(t, "Home")

	res, err := f.router.Navigate(context.Background(), "Broken")
	require.Error(t, err)

	var le *ModuleLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Broken", le.View)
	assert.Equal(t, "views/broken", le.ModulePath)
	assert.True(t, errors.Is(err, view.ErrUnknownModule))
	assert.Equal(t, "Broken", res.Name)

	snap := f.router.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Mounted)
	assert.Equal(t, "", f.buf.Content(), "no partial content left behind")
	assert.Equal(t, []string{"mount:Home", "mounted:Home", "unmount:Home"}, f.rec.list())
	assert.Same(t, le, errorsAsLoad(t, f.router.LastError()))

	// Recoverable: the next navigation works and clears the error.
	f.navigate(t, "About")
	assert.NoError(t, f.router.LastError())
}

func TestMountErrorClearsPartialContent(t *testing.T) {
	f := newFixture(t)
	f.navigate(t, "Home")

	f.views["Failing"].partial = "half-rendered"
	_, err := f.router.Navigate(context.Background(), "Failing")
	require.Error(t, err)

	snap := f.router.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Mounted)
	assert.Equal(t, "Failing", snap.ActiveName)
	assert.Equal(t, "", f.buf.Content(), "mount point is blank after a failed mount")

	f.navigate(t, "About")
	assert.Equal(t, "content:About", f.buf.Content())
}

func errorsAsLoad(t *testing.T, err error) *ModuleLoadError {
	t.Helper()
	var le *ModuleLoadError
	require.True(t, errors.As(err, &le))
	return le
}

func TestMountError(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Navigate(context.Background(), "Failing")
	var me *MountError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "Failing", me.View)
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.True(t, IsNavigationFailure(err))

	assert.Equal(t, PhaseIdle, f.router.Snapshot().Phase)
	assert.Equal(t, "Failing", f.frag.Get(), "fragment still names the attempted view")
	assert.Equal(t, err, f.router.LastError())
}

func TestMountPanic_BecomesMountError(t *testing.T) {
	f := newFixture(t)
	f.views["Chat"].panicMount = true

	_, err := f.router.Navigate(context.Background(), "Chat")
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, PhaseIdle, f.router.Snapshot().Phase)

	f.navigate(t, "Home")
}

func TestMountTimeout(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.MountTimeout = 30 * time.Millisecond })
	f.views["Slow"].block = make(chan struct{})

	_, err := f.router.Navigate(context.Background(), "Slow")
	var me *MountError
	require.True(t, errors.As(err, &me))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// =============================================================================
// LAST NAVIGATION WINS
// =============================================================================

func TestRapidDoubleNavigation_CancelsInFlightMount(t *testing.T) {
	f := newFixture(t)
	slow := f.views["Slow"]
	slow.block = make(chan struct{})

	slowErr := make(chan error, 1)
	go func() {
		_, err := f.router.Navigate(context.Background(), "Slow")
		slowErr <- err
	}()
	waitStarted(t, slow)

	f.navigate(t, "About")

	assert.ErrorIs(t, <-slowErr, ErrSuperseded)
	assert.Equal(t, "About", f.router.Snapshot().ActiveName)
	assert.Equal(t, "content:About", f.buf.Content())
	assert.Equal(t, 0, f.rec.count("mounted:Slow"))
	assert.Equal(t, 1, f.rec.count("cancelled:Slow"))
	assert.NoError(t, f.router.LastError(), "a superseded mount is not a failure")
}

func TestRapidDoubleNavigation_LateMountIsReleased(t *testing.T) {
	f := newFixture(t)
	slow := f.views["Slow"]
	slow.block = make(chan struct{})
	slow.ignoreCtx = true

	f.navigate(t, "Home")

	slowErr := make(chan error, 1)
	go func() {
		_, err := f.router.Navigate(context.Background(), "Slow")
		slowErr <- err
	}()
	waitStarted(t, slow)

	f.router.Go("About")
	close(slow.block)

	assert.ErrorIs(t, <-slowErr, ErrSuperseded)
	require.Eventually(t, func() bool {
		s := f.router.Snapshot()
		return s.Phase == PhaseActive && s.ActiveName == "About"
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{
		"mount:Home", "mounted:Home",
		"unmount:Home",
		"mount:Slow", "mounted:Slow",
		"unmount:Slow",
		"mount:About", "mounted:About",
	}, f.rec.list())
}

func TestQueuedOlderRequestsAreSkipped(t *testing.T) {
	f := newFixture(t)
	slow := f.views["Slow"]
	slow.block = make(chan struct{})
	slow.ignoreCtx = true

	f.router.Go("Slow")
	waitStarted(t, slow)

	// About is queued behind Slow and superseded by Chat before it runs.
	aboutErr := make(chan error, 1)
	go func() {
		_, err := f.router.Navigate(context.Background(), "About")
		aboutErr <- err
	}()
	require.Eventually(t, func() bool { return len(f.router.queue) == 1 }, time.Second, time.Millisecond)
	f.router.Go("Chat")
	close(slow.block)

	assert.ErrorIs(t, <-aboutErr, ErrSuperseded)
	require.Eventually(t, func() bool {
		return f.router.Snapshot().ActiveName == "Chat" && f.router.Snapshot().Phase == PhaseActive
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.rec.count("mount:About"))
}

func TestConcurrentNavigation_OneActiveView(t *testing.T) {
	f := newFixture(t)
	names := []string{"Home", "About", "Chat", "Login", "Missing", ""}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				f.router.Go(names[i%len(names)])
			} else {
				_, _ = f.router.Navigate(context.Background(), names[i%len(names)])
			}
		}(i)
	}
	wg.Wait()

	f.navigate(t, "Chat")

	snap := f.router.Snapshot()
	assert.Equal(t, "Chat", snap.ActiveName)
	assert.Equal(t, PhaseActive, snap.Phase)

	// Every mounted handle except the active one was unmounted exactly once.
	mounted := f.rec.count("mounted:")
	unmounted := f.rec.count("unmount:")
	assert.Equal(t, mounted-1, unmounted)
}

// =============================================================================
// INPUT / BACK / SHUTDOWN
// =============================================================================

func TestDeliver(t *testing.T) {
	f := newFixture(t)
	f.cat.RegisterView("views/about", view.Static("static about"))

	assert.ErrorIs(t, f.router.Deliver(context.Background(), "x"), ErrNoActiveView)

	_, interactive := f.router.InputHint()
	assert.False(t, interactive)

	f.navigate(t, "Chat")
	require.NoError(t, f.router.Deliver(context.Background(), "hello"))
	assert.Contains(t, f.rec.list(), "input:Chat:hello")
	hint, interactive := f.router.InputHint()
	assert.True(t, interactive)
	assert.Empty(t, hint)

	f.navigate(t, "About")
	assert.ErrorIs(t, f.router.Deliver(context.Background(), "x"), ErrNotInteractive)
	_, interactive = f.router.InputHint()
	assert.False(t, interactive)
}

func TestBack(t *testing.T) {
	f := newFixture(t)
	f.navigate(t, "Home")
	f.navigate(t, "About")
	f.navigate(t, "Chat")
	assert.Equal(t, []string{"Home", "About"}, f.router.History())

	res, err := f.router.Back(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "About", res.Name)

	res, err = f.router.Back(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home", res.Name)

	_, err = f.router.Back(context.Background())
	assert.ErrorIs(t, err, ErrNoHistory)
	assert.Equal(t, "Home", f.router.Snapshot().ActiveName)
}

func TestHistoryIsBounded(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.HistorySize = 2 })
	for _, name := range []string{"Home", "About", "Chat", "Login"} {
		f.navigate(t, name)
	}
	assert.Equal(t, []string{"About", "Chat"}, f.router.History())
}

func TestShutdown(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var kinds []EventKind
	f.router.Subscribe(func(ev Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	f.navigate(t, "About")
	require.NoError(t, f.router.Shutdown(context.Background()))

	snap := f.router.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, "", snap.ActiveName)
	assert.False(t, snap.Mounted)
	assert.Equal(t, "", f.buf.Content())
	assert.Equal(t, 1, f.rec.count("unmount:About"))

	_, err := f.router.Navigate(context.Background(), "Home")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.router.Deliver(context.Background(), "x"), ErrClosed)
	assert.NoError(t, f.router.Shutdown(context.Background()), "second shutdown is a no-op")

	select {
	case <-f.router.Done():
	default:
		t.Error("worker still running after Shutdown")
	}

	mu.Lock()
	assert.Equal(t, []EventKind{EventNavigated, EventClosed}, kinds)
	mu.Unlock()
}

func TestShutdown_SupersedesInFlightMount(t *testing.T) {
	f := newFixture(t)
	slow := f.views["Slow"]
	slow.block = make(chan struct{})

	slowErr := make(chan error, 1)
	go func() {
		_, err := f.router.Navigate(context.Background(), "Slow")
		slowErr <- err
	}()
	waitStarted(t, slow)

	require.NoError(t, f.router.Shutdown(context.Background()))
	assert.ErrorIs(t, <-slowErr, ErrSuperseded)
	assert.Equal(t, PhaseIdle, f.router.Snapshot().Phase)
}

func TestShutdown_QueueFullThenRetry(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.QueueSize = 1 })
	slow := f.views["Slow"]
	slow.block = make(chan struct{})
	slow.ignoreCtx = true

	f.router.Go("Slow")
	waitStarted(t, slow)
	f.router.Go("About")
	require.Eventually(t, func() bool { return len(f.router.queue) == 1 }, time.Second, time.Millisecond)

	// The worker is stuck in Slow's mount and the queue is full.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.router.Shutdown(ctx), context.DeadlineExceeded)

	close(slow.block)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	require.NoError(t, f.router.Shutdown(ctx2))
	select {
	case <-f.router.Done():
	default:
		t.Fatal("worker did not exit")
	}
	assert.Equal(t, PhaseIdle, f.router.Snapshot().Phase)
	assert.Equal(t, "", f.buf.Content())
}

// =============================================================================
// EVENTS / FRAGMENT
// =============================================================================

func TestSubscribe_EventsAndUnsubscribe(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var events []Event
	unsub := f.router.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	f.navigate(t, "Missing")
	_, _ = f.router.Navigate(context.Background(), "Failing")
	unsub()
	unsub()
	f.navigate(t, "About")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, EventNavigated, events[0].Kind)
	assert.True(t, events[0].Result.Fallback)
	assert.Equal(t, "Home", events[0].Snapshot.ActiveName)
	assert.Equal(t, EventFailed, events[1].Kind)
	assert.Error(t, events[1].Err)
	assert.Equal(t, PhaseIdle, events[1].Snapshot.Phase)
}

func TestSubscriberPanic_DoesNotStopRouter(t *testing.T) {
	f := newFixture(t)
	f.router.Subscribe(func(Event) { panic("bad listener") })

	f.navigate(t, "About")
	f.navigate(t, "Home")
}

func TestFragmentDrivenNavigation(t *testing.T) {
	f := newFixture(t)
	_, err := f.router.Start(context.Background())
	require.NoError(t, err)

	f.frag.External("#About")
	require.Eventually(t, func() bool {
		s := f.router.Snapshot()
		return s.ActiveName == "About" && s.Phase == PhaseActive
	}, 2*time.Second, 5*time.Millisecond)

	// An external change to an unknown view lands on the default.
	f.frag.External("#Nowhere")
	require.Eventually(t, func() bool {
		s := f.router.Snapshot()
		return s.ActiveName == "Home" && s.Phase == PhaseActive && f.frag.Get() == "Home"
	}, 2*time.Second, 5*time.Millisecond)
}
