// Package navigation models page transitions as an injected collaborator.
package navigation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"orgsite-client/internal/observability"
)

// Navigator performs a hard transition to another page.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Navigate(ctx context.Context, path string) { f(ctx, path) }

// Nop ignores every transition.
type Nop struct{}

func (Nop) Navigate(context.Context, string) {}

// Printer tells a terminal operator where they were sent.
type Printer struct {
	W io.Writer
}

func (p Printer) Navigate(ctx context.Context, path string) {
	observability.FromContext(ctx).Info("navigate", slog.String("path", path))
	fmt.Fprintf(p.W, "Session ended, continue at %s (run `orgsite login`)\n", path)
}

// Recorder keeps every requested path. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

// Paths returns a copy of the recorded transitions.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Last returns the most recent path or "".
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Pending is a scheduled transition that has not run yet.
type Pending struct {
	Path  string
	Delay time.Duration

	mu    sync.Mutex
	done  bool
	timer Timer
	run   func()
}

// Cancel stops the transition. It reports whether it was still pending.
func (p *Pending) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return false
	}
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
	}
	return true
}

// Fire runs the transition now unless it already ran or was cancelled.
func (p *Pending) Fire() bool {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return false
	}
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
	}
	run := p.run
	p.mu.Unlock()

	run()
	return true
}

// Done reports whether the transition ran or was cancelled.
func (p *Pending) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Scheduler performs delayed, cancellable transitions. Scheduling a new
// transition cancels the previous one.
type Scheduler struct {
	nav       Navigator
	afterFunc AfterFunc

	mu      sync.Mutex
	current *Pending
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithAfterFunc replaces the timer source, mainly for tests.
func WithAfterFunc(fn AfterFunc) SchedulerOption {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// NewScheduler creates a scheduler that navigates through nav.
func NewScheduler(nav Navigator, opts ...SchedulerOption) *Scheduler {
	if nav == nil {
		nav = Nop{}
	}
	s := &Scheduler{nav: nav, afterFunc: realAfterFunc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule navigates to path after delay.
func (s *Scheduler) Schedule(ctx context.Context, path string, delay time.Duration) *Pending {
	// The transition outlives the caller's request.
	navCtx := context.WithoutCancel(ctx)

	p := &Pending{Path: path, Delay: delay}
	p.run = func() { s.nav.Navigate(navCtx, path) }

	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}

	timer := s.afterFunc(delay, func() { p.Fire() })
	p.mu.Lock()
	p.timer = timer
	p.mu.Unlock()

	return p
}

// Pending returns the latest transition if it has not run yet.
func (s *Scheduler) Pending() *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Done() {
		return nil
	}
	return s.current
}

// Cancel drops the outstanding transition, if any.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	p := s.current
	s.current = nil
	s.mu.Unlock()
	if p == nil {
		return false
	}
	return p.Cancel()
}
