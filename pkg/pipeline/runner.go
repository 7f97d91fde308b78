package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/vamp/pkg/engine"
	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/scene"
)

// Runner evaluates scene source, runs the pipeline and commits the result
// to its Store. Calls are serialised. A request for the frame that was
// just rendered from the same source is skipped.
type Runner struct {
	Store  *Store
	Params Params

	mu     sync.Mutex
	engine *engine.Engine
	kernel kernel.Kernel

	rendered   bool
	lastFrame  int
	lastSource string
}

// NewRunner returns a runner building solids with k.
func NewRunner(k kernel.Kernel, p Params) *Runner {
	return &Runner{
		Store:  NewStore(),
		Params: p,
		engine: engine.NewEngine(k),
		kernel: k,
	}
}

// Render produces the artifacts for one frame of source. The boolean
// reports whether work was done; false means the stored artifacts already
// belong to this frame. On error the store is left as it was.
func (r *Runner) Render(source string, frame int) (*Artifacts, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rendered && frame == r.lastFrame && source == r.lastSource {
		Logger().Debug("frame unchanged, skipping", "frame", frame)
		return r.Store.Artifacts(), false, nil
	}

	s, err := r.evaluate(source, frame)
	if err != nil {
		return nil, false, err
	}

	art, err := Run(s, r.kernel, r.Params)
	if err != nil {
		return nil, false, err
	}
	r.Store.Commit(art)
	r.rendered, r.lastFrame, r.lastSource = true, frame, source
	return art, true, nil
}

// SetParams replaces the run parameters. The next Render always runs.
func (r *Runner) SetParams(p Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Params = p
	r.rendered = false
}

// Inspect evaluates source for frame and summarises the scene without
// rendering it. The store and the frame memo are left alone.
func (r *Runner) Inspect(source string, frame int) (*Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.evaluate(source, frame)
	if err != nil {
		return nil, err
	}
	return Inspect(s, r.kernel)
}

func (r *Runner) evaluate(source string, frame int) (*scene.Scene, error) {
	s, evalErrs, err := r.engine.Evaluate(source, frame)
	if err != nil {
		return nil, fmt.Errorf("pipeline: evaluate: %w", err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("pipeline: evaluate: %w", errors.Join(errs...))
	}
	return s, nil
}
