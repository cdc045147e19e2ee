package action

import "log/slog"

// Log is the undo/redo history of one editor.
type Log struct {
	history []Action
	future  []Action
}

func NewLog() *Log {
	return &Log{}
}

// Push records an already-applied action and clears the redo stack. Empty
// composites are dropped.
func (l *Log) Push(a Action) {
	if c, ok := a.(*Composite); ok && c.Len() == 0 {
		return
	}
	l.history = append(l.history, a)
	l.future = l.future[:0]
}

// Undo reverses the most recent action and moves it to the redo stack. It
// returns nil, nil when there is nothing to undo. A failed undo leaves the
// action in history.
func (l *Log) Undo(s *Scene) (Action, error) {
	if len(l.history) == 0 {
		return nil, nil
	}
	a := l.history[len(l.history)-1]
	if err := a.Undo(s); err != nil {
		slog.Warn("undo failed", "kind", a.Kind(), "error", err)
		return nil, err
	}
	l.history = l.history[:len(l.history)-1]
	l.future = append(l.future, a)
	return a, nil
}

// Redo re-applies the most recently undone action.
func (l *Log) Redo(s *Scene) (Action, error) {
	if len(l.future) == 0 {
		return nil, nil
	}
	a := l.future[len(l.future)-1]
	if err := a.Apply(s); err != nil {
		slog.Warn("redo failed", "kind", a.Kind(), "error", err)
		return nil, err
	}
	l.future = l.future[:len(l.future)-1]
	l.history = append(l.history, a)
	return a, nil
}

// PruneTrivial drops the last action when it changed nothing. It reports
// whether an action was dropped.
func (l *Log) PruneTrivial() bool {
	if len(l.history) == 0 {
		return false
	}
	if l.history[len(l.history)-1].ShouldKeep() {
		return false
	}
	l.history = l.history[:len(l.history)-1]
	return true
}

// Records describes the history in replay order.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.history))
	for i, a := range l.history {
		out[i] = RecordOf(a)
	}
	return out
}

// Last returns the most recent action, or nil.
func (l *Log) Last() Action {
	if len(l.history) == 0 {
		return nil
	}
	return l.history[len(l.history)-1]
}

func (l *Log) Len() int      { return len(l.history) }
func (l *Log) CanUndo() bool { return len(l.history) > 0 }
func (l *Log) CanRedo() bool { return len(l.future) > 0 }
func (l *Log) RedoLen() int  { return len(l.future) }
