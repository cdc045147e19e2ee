// Package anim drives time-sliced edits such as animated transforms.
//
// A Scheduler holds at most one live Task. The host loop calls Tick with the
// current time; the scheduler steps the task with the wall-clock time elapsed
// since the previous step. Starting a new task, or calling Flush, finishes the
// live one immediately so its end state is never lost.
package anim

import (
	"log/slog"
	"time"
)

// Status is the result of stepping a task.
type Status int

const (
	Continue Status = iota
	Done
)

func (s Status) String() string {
	if s == Done {
		return "done"
	}
	return "continue"
}

// Task is one animation. Step advances it by elapsed and reports whether it
// wants more steps. Finish jumps straight to the end state; it is called when
// the task is cancelled and must leave the same state Step would on Done.
type Task interface {
	Step(elapsed time.Duration) Status
	Finish()
}

// Scheduler owns the live task of one editor. It is not safe for concurrent
// use; the editor's owner serializes calls.
type Scheduler struct {
	live    Task
	last    time.Time
	onFrame func()
}

// NewScheduler creates a scheduler. onFrame, if non-nil, runs after every
// step and every snap so the caller can re-render.
func NewScheduler(onFrame func()) *Scheduler {
	return &Scheduler{onFrame: onFrame}
}

// OnFrame replaces the render callback.
func (s *Scheduler) OnFrame(fn func()) {
	s.onFrame = fn
}

// Live reports whether a task is running.
func (s *Scheduler) Live() bool {
	return s.live != nil
}

// Start cancels and snaps any live task, then makes t live as of now.
func (s *Scheduler) Start(t Task, now time.Time) {
	s.Flush()
	s.live = t
	s.last = now
	slog.Debug("animation started")
}

// Tick steps the live task with the time elapsed since its previous step.
// It reports whether a task is still live afterwards.
func (s *Scheduler) Tick(now time.Time) bool {
	if s.live == nil {
		return false
	}
	elapsed := now.Sub(s.last)
	if elapsed < 0 {
		elapsed = 0
	}
	s.last = now

	t := s.live
	status := t.Step(elapsed)
	if status == Done && s.live == t {
		s.live = nil
		slog.Debug("animation finished")
	}
	s.frame()
	return s.live != nil
}

// Flush finishes the live task, if any, without starting another.
func (s *Scheduler) Flush() {
	if s.live == nil {
		return
	}
	t := s.live
	s.live = nil
	t.Finish()
	slog.Debug("animation snapped")
	s.frame()
}

func (s *Scheduler) frame() {
	if s.onFrame != nil {
		s.onFrame()
	}
}
