package anim

import (
	"errors"
	"fmt"

	"github.com/tanema/gween/ease"
)

var ErrUnknownEasing = errors.New("unknown easing")

// Easing names accepted in configuration.
const (
	EasingLinear     = "linear"
	EasingEaseIn     = "easeIn"
	EasingEaseOut    = "easeOut"
	EasingEaseInOut  = "easeInOut"
	EasingCubicIn    = "cubicIn"
	EasingCubicOut   = "cubicOut"
	EasingCubicInOut = "cubicInOut"
	EasingBackIn     = "backIn"
	EasingBackOut    = "backOut"
	EasingBackInOut  = "backInOut"
	EasingElasticOut = "elasticOut"
	EasingBounceOut  = "bounceOut"
)

var easings = map[string]ease.TweenFunc{
	EasingLinear:     ease.Linear,
	EasingEaseIn:     ease.InQuad,
	EasingEaseOut:    ease.OutQuad,
	EasingEaseInOut:  ease.InOutQuad,
	EasingCubicIn:    ease.InCubic,
	EasingCubicOut:   ease.OutCubic,
	EasingCubicInOut: ease.InOutCubic,
	EasingBackIn:     ease.InBack,
	EasingBackOut:    ease.OutBack,
	EasingBackInOut:  ease.InOutBack,
	EasingElasticOut: ease.OutElastic,
	EasingBounceOut:  ease.OutBounce,
}

// Easing looks an easing function up by name. The empty name is linear.
func Easing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	return fn, nil
}
