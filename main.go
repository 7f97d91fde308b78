// Command vamp renders a scene file to plotter-ready line art: the visible
// edges and silhouette seen from the scene camera, flattened onto a canvas
// and optionally traced into a single continuous path.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/cli"
	"github.com/chazu/vamp/pkg/config"
	"github.com/chazu/vamp/pkg/export"
	"github.com/chazu/vamp/pkg/pipeline"
)

// Config is the configuration of the vamp cli.
type Config struct {

	// Input is the scene file to render.
	Input string `posarg:"0" required:"-"`

	// Output is the directory files are written to.
	Output string `flag:"o,output" default:"out"`

	// Formats is a comma separated list of svg, pdf, png, dxf, gcode and json.
	Formats string `flag:"f,formats" default:"svg,pdf,png"`

	// Frame is the frame rendered by render, trace and inspect.
	Frame int `flag:"frame"`

	// Start is the first frame rendered by animate.
	Start int `cmd:"animate"`

	// End is the last frame rendered by animate.
	End int `cmd:"animate" default:"10"`

	// Verbose turns on debug logging.
	Verbose bool `flag:"v,verbose"`

	config.Params
}

func main() {
	opts := cli.DefaultOptions("vamp", "Extract visible line art from 3D scenes.")
	opts.DefaultFiles = []string{"vamp.toml"}
	cli.Run(opts, &Config{},
		&cli.Cmd[*Config]{Func: Render, Name: "render", Doc: "Render one frame of the scene.", Root: true},
		&cli.Cmd[*Config]{Func: Animate, Name: "animate", Doc: "Render a range of frames, one directory each."},
		&cli.Cmd[*Config]{Func: Trace, Name: "trace", Doc: "Render one frame and write only the traced path."},
		&cli.Cmd[*Config]{Func: Inspect, Name: "inspect", Doc: "Summarise the scene of one frame as JSON."},
		&cli.Cmd[*Config]{Func: PrintParams, Name: "params", Doc: "Print the effective render parameters as TOML."},
		&cli.Cmd[*Config]{Func: Check, Name: "check", Doc: "Validate a TOML parameter file."},
	)
}

// Render writes the flattened slice and silhouette of one frame.
func Render(c *Config) error {
	app, source, err := setup(c)
	if err != nil {
		return err
	}
	paths, err := app.Render(source, c.Frame, c.Output)
	report(paths)
	return err
}

// Animate renders frames Start through End.
func Animate(c *Config) error {
	app, source, err := setup(c)
	if err != nil {
		return err
	}
	paths, err := app.Animate(source, c.Start, c.End, c.Output)
	report(paths)
	return err
}

// Trace writes the traced path of one frame.
func Trace(c *Config) error {
	app, source, err := setup(c)
	if err != nil {
		return err
	}
	paths, err := app.Trace(source, c.Frame, c.Output)
	report(paths)
	return err
}

// Inspect prints the collections, objects and validation findings of
// one frame.
func Inspect(c *Config) error {
	app, source, err := setup(c)
	if err != nil {
		return err
	}
	_, err = app.Inspect(source, c.Frame, os.Stdout)
	return err
}

// PrintParams prints the parameters after defaults, files and flags apply.
func PrintParams(c *Config) error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	b, err := config.Encode(&c.Params)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

// Check loads the TOML file named by Input and reports clamped values.
func Check(c *Config) error {
	if c.Input == "" {
		return fmt.Errorf("check: no parameter file given")
	}
	p, err := config.Load(c.Input)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	b, err := config.Encode(p)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

// setup installs logging, resolves parameters and reads the scene.
func setup(c *Config) (*App, string, error) {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	pipeline.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.Input == "" {
		return nil, "", fmt.Errorf("no scene file given")
	}
	if err := c.Params.Validate(); err != nil {
		return nil, "", err
	}
	p, err := c.Params.Resolve()
	if err != nil {
		return nil, "", err
	}
	formats, err := export.ParseFormats(c.Formats)
	if err != nil {
		return nil, "", err
	}
	src, err := os.ReadFile(c.Input)
	if err != nil {
		return nil, "", err
	}
	pipeline.Logger().Debug("scene loaded", "file", c.Input, "output", errors.Log1(filepath.Abs(c.Output)))
	return NewApp(p, formats), string(src), nil
}

func report(paths []string) {
	for _, p := range paths {
		fmt.Println(p)
	}
}
