package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// Hook releases one component.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler coordinates graceful shutdown.
type Handler struct {
	timeout time.Duration
	log     logger.Logger

	mu    sync.Mutex
	hooks []namedHook

	trigger     chan string
	triggerOnce sync.Once
	done        chan struct{}
}

// NewHandler creates a handler whose hooks share timeout.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		timeout: timeout,
		log:     log.With("component", "shutdown"),
		trigger: make(chan string, 1),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook. Hooks run in reverse order of
// registration, so register in startup order.
func (h *Handler) OnShutdown(name string, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
}

// Trigger starts shutdown from inside the process. Only the first call
// has an effect.
func (h *Handler) Trigger(reason string) {
	h.triggerOnce.Do(func() { h.trigger <- reason })
}

// Wait blocks until a signal, Trigger, or ctx ends, then runs the hooks.
// The returned error joins every hook failure.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var reason string
	select {
	case sig := <-sigCh:
		reason = sig.String()
	case reason = <-h.trigger:
	case <-ctx.Done():
		reason = ctx.Err().Error()
	}
	h.log.Info("shutting down", "reason", reason)
	return h.Run()
}

// Run executes the hooks now.
func (h *Handler) Run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := append([]namedHook(nil), h.hooks...)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hk := hooks[i]
		start := time.Now()
		if err := hk.fn(ctx); err != nil {
			h.log.Error("shutdown hook failed", "hook", hk.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hk.name, err))
			continue
		}
		h.log.Debug("shutdown hook done", "hook", hk.name, "duration_ms", time.Since(start).Milliseconds())
	}
	return errors.Join(errs...)
}

// Done closes once the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
