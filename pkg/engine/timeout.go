package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/vamp/pkg/scene"
)

// DefaultTimeout bounds one evaluation when Engine.Timeout is zero.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a scene program runs past the timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation was overtaken
	// by a newer one on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// wait blocks for the result of evaluation gen. A goroutine left running
// after a timeout finishes into a buffered channel nobody reads.
func (e *Engine) wait(ch <-chan evalResult, gen uint64, frame int) (*scene.Scene, []EvalError, error) {
	limit := e.Timeout
	if limit <= 0 {
		limit = DefaultTimeout
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("frame %d: %w", frame, ErrSuperseded)
		}
		return res.scene, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("frame %d: %w after %s", frame, ErrTimeout, limit)
	}
}
