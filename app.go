package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chazu/vamp/pkg/export"
	"github.com/chazu/vamp/pkg/kernel/sdfx"
	"github.com/chazu/vamp/pkg/pipeline"
)

// artifactsFile is the JSON dump written when the json format is chosen.
const artifactsFile = "artifacts"

// App ties the scene engine, the pipeline and the exporters together.
type App struct {
	runner  *pipeline.Runner
	formats []export.Format
	opts    export.Options
	log     *slog.Logger
}

// NewApp returns an App using the sdfx kernel.
func NewApp(p pipeline.Params, formats []export.Format) *App {
	return &App{
		runner:  pipeline.NewRunner(sdfx.New(), p),
		formats: formats,
		opts:    export.DefaultOptions(),
		log:     pipeline.Logger(),
	}
}

// Store returns the artifacts of the last successful render.
func (a *App) Store() *pipeline.Store { return a.runner.Store }

// Render evaluates source for frame and writes the flattened slice and
// silhouette, plus the trace when there is one, into dir.
func (a *App) Render(source string, frame int, dir string) ([]string, error) {
	art, _, err := a.runner.Render(source, frame)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	var written []string
	for _, item := range []struct {
		name string
		d    *export.Drawing
	}{
		{pipeline.ArtifactFlatSlice, export.FromCanvas(art.FlatSlice)},
		{pipeline.ArtifactFlatSilhouette, export.FromCanvas(art.FlatSilhouette)},
	} {
		paths, err := a.write(dir, item.name, item.d, nil)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	if art.Trace != nil {
		paths, err := a.writeTrace(dir, art)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}
	if a.wants(export.FormatJSON) {
		path, err := a.DumpArtifacts(dir)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// Trace renders source for frame and writes only the traced path. Tracing
// is switched on for the call.
func (a *App) Trace(source string, frame int, dir string) ([]string, error) {
	if !a.runner.Params.Trace {
		p := a.runner.Params
		p.Trace = true
		a.runner.SetParams(p)
	}
	art, _, err := a.runner.Render(source, frame)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return a.writeTrace(dir, art)
}

// Inspect evaluates source for frame and writes a JSON summary of the
// scene to w. A scene with validation errors is still summarised but
// returns an error.
func (a *App) Inspect(source string, frame int, w io.Writer) (*pipeline.Inventory, error) {
	inv, err := a.runner.Inspect(source, frame)
	if inv != nil {
		if werr := export.WriteJSON(w, inv); werr != nil {
			return inv, fmt.Errorf("inspect: %w", werr)
		}
	}
	if err != nil {
		return inv, err
	}
	if !inv.OK() {
		return inv, fmt.Errorf("inspect: scene has %d errors", len(inv.Errors))
	}
	return inv, nil
}

// Animate renders frames start through end, each into its own
// subdirectory of dir. Frames that fail are logged and skipped; the
// returned error joins every failure.
func (a *App) Animate(source string, start, end int, dir string) ([]string, error) {
	if end < start {
		return nil, fmt.Errorf("animate: end frame %d before start frame %d", end, start)
	}
	var written []string
	var errs []error
	for f := start; f <= end; f++ {
		paths, err := a.Render(source, f, FrameDir(dir, f))
		written = append(written, paths...)
		if err != nil {
			a.log.Error("frame failed", "frame", f, "err", err)
			errs = append(errs, fmt.Errorf("frame %d: %w", f, err))
			continue
		}
		a.log.Info("frame written", "frame", f, "files", len(paths))
	}
	return written, errors.Join(errs...)
}

// FrameDir names the output directory of one animation frame.
func FrameDir(dir string, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%04d", frame))
}

// writeTrace exports the traced curve. Curves from flat sources lie on the
// canvas and are drawn; others only reach the JSON dump.
func (a *App) writeTrace(dir string, art *pipeline.Artifacts) ([]string, error) {
	if art.Trace == nil {
		return nil, nil
	}
	var d *export.Drawing
	if a.runner.Params.TraceSource.Flat() && art.FlatSlice != nil {
		d = &export.Drawing{Width: art.FlatSlice.Width, Height: art.FlatSlice.Height}
		d.AddCurve(art.Trace)
	} else {
		a.log.Debug("trace source is not flat, writing json only", "source", a.runner.Params.TraceSource)
	}
	return a.write(dir, pipeline.ArtifactTrace, d, art.Trace)
}

// write saves d in every drawing format and dump as JSON. A nil d or dump
// skips that part.
func (a *App) write(dir, name string, d *export.Drawing, dump any) ([]string, error) {
	var written []string
	for _, f := range a.formats {
		if f == export.FormatJSON {
			continue
		}
		if d == nil {
			break
		}
		path, err := export.Write(dir, name, f, d, a.opts)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if dump == nil || !a.wants(export.FormatJSON) {
		return written, nil
	}
	path := filepath.Join(dir, name+export.FormatJSON.Ext())
	if err := export.SaveJSON(path, dump); err != nil {
		return written, fmt.Errorf("export: %s: %w", path, err)
	}
	return append(written, path), nil
}

// DumpArtifacts writes every artifact of the last render as one JSON file.
func (a *App) DumpArtifacts(dir string) (string, error) {
	art := a.runner.Store.Artifacts()
	if art == nil {
		return "", errors.New("dump: nothing rendered")
	}
	path := filepath.Join(dir, artifactsFile+export.FormatJSON.Ext())
	if err := export.SaveJSON(path, art); err != nil {
		return "", fmt.Errorf("dump: %w", err)
	}
	return path, nil
}

func (a *App) wants(f export.Format) bool {
	for _, g := range a.formats {
		if g == f {
			return true
		}
	}
	return false
}
