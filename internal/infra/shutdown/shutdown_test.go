package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quietHandler(timeout time.Duration) *Handler {
	return NewHandler(timeout, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5 * time.Second)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}
	if h.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestHandler_Done(t *testing.T) {
	h := quietHandler(5 * time.Second)

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Shutdown_ReverseOrder(t *testing.T) {
	h := quietHandler(5 * time.Second)

	var (
		mu        sync.Mutex
		callOrder []int
	)
	for i := 1; i <= 3; i++ {
		h.OnShutdown("hook", func(context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Shutdown")
	}
}

func TestHandler_Shutdown_Once(t *testing.T) {
	h := quietHandler(5 * time.Second)
	calls := 0
	h.OnShutdown("count", func(context.Context) error {
		calls++
		return nil
	})

	_ = h.Shutdown()
	_ = h.Shutdown()

	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
}

func TestHandler_Shutdown_HookErrors(t *testing.T) {
	h := quietHandler(5 * time.Second)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	h.OnShutdown("first", func(context.Context) error {
		ran = true
		return nil
	})
	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("b", func(context.Context) error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if !strings.Contains(err.Error(), "a: a failed") {
		t.Errorf("Shutdown() error = %q, want hook name", err)
	}
	if !ran {
		t.Error("a failing hook must not stop later hooks")
	}
}

func TestHandler_Shutdown_Timeout(t *testing.T) {
	h := quietHandler(20 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := h.Shutdown(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_Wait_Context(t *testing.T) {
	h := quietHandler(5 * time.Second)
	called := make(chan struct{}, 1)
	h.OnShutdown("server", func(context.Context) error {
		called <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancelCause(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	cancel(errors.New("listener failed"))

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	select {
	case <-called:
	default:
		t.Error("shutdown hook was not called")
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := quietHandler(5 * time.Second)

	reloads := make(chan struct{}, 1)
	h.OnReload(func() { reloads <- struct{}{} })

	var stopped bool
	h.OnShutdown("server", func(context.Context) error {
		stopped = true
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait(context.Background())
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)

	syscall.Kill(syscall.Getpid(), syscall.SIGHUP)
	select {
	case <-reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("SIGHUP did not run the reload functions")
	}

	select {
	case <-h.Done():
		t.Fatal("SIGHUP must not shut down")
	default:
	}

	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	if !stopped {
		t.Error("shutdown hook was not called")
	}
}

func TestHandler_ConcurrentRegistration(t *testing.T) {
	h := quietHandler(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("hook", func(context.Context) error { return nil })
			h.OnReload(func() {})
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 || len(h.reloads) != 10 {
		t.Errorf("hooks = %d, reloads = %d, want 10 each", len(h.hooks), len(h.reloads))
	}
}
