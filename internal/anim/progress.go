package anim

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Progress maps elapsed time to an eased fraction in [0,1] (overshooting
// easings may leave that range mid-flight). It always ends exactly at 1.
type Progress struct {
	tween *gween.Tween
	t     float64
	done  bool
}

// NewProgress builds a progress curve lasting d. A nil fn means linear. A
// non-positive duration completes on the first Advance.
func NewProgress(d time.Duration, fn ease.TweenFunc) *Progress {
	if fn == nil {
		fn = ease.Linear
	}
	p := &Progress{}
	if d <= 0 {
		return p
	}
	p.tween = gween.New(0, 1, float32(d.Seconds()), fn)
	return p
}

// Advance moves the curve forward by elapsed and returns the eased fraction
// and whether the curve is complete. Once complete it keeps returning 1.
func (p *Progress) Advance(elapsed time.Duration) (float64, bool) {
	if p.done {
		return 1, true
	}
	if p.tween == nil {
		p.t, p.done = 1, true
		return 1, true
	}
	v, finished := p.tween.Update(float32(elapsed.Seconds()))
	if finished {
		p.t, p.done = 1, true
		return 1, true
	}
	p.t = float64(v)
	return p.t, false
}

// Value is the last fraction returned by Advance.
func (p *Progress) Value() float64 { return p.t }

// Finished reports whether the curve reached its end.
func (p *Progress) Finished() bool { return p.done }

// Complete jumps to the end of the curve.
func (p *Progress) Complete() {
	p.t, p.done = 1, true
}
