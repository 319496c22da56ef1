// lumen - progressive path tracer for the terminal
// Render OBJ, glTF/GLB or .rts scenes and watch the image converge.
//
// Controls:
//
//	W/A/S/D     - Move forward/left/back/right
//	Q/E         - Move down/up
//	Mouse drag  - Look around
//	Arrows      - Look around
//	I           - Toggle BVH debug view
//	. / ,       - Debug view one level deeper/shallower
//	L           - Toggle light sampling
//	R           - Restart accumulation
//	H           - Return to the starting view
//	P           - Hold/resume rendering
//	O           - Save the current image as PNG
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/lumen/pkg/log"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
	"github.com/taigrr/lumen/pkg/tracer"
)

var version = "dev"

var logger = log.New("lumen")

// options holds every command-line flag.
type options struct {
	samples       int
	bounces       int
	lightSampling bool
	sky           string
	skyColor      string
	texture       string
	fit           float64
	workers       int
	logFile       string
	verbose       bool
	veryVerbose   bool

	// view
	fps int

	// render
	width, height int
	out           string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "lumen <model.obj|model.glb|scene.rts>",
		Short: "Progressive path tracer for the terminal",
		Long: `lumen path traces a triangle scene and shows the image converging in the
terminal, one sample per pixel per frame. Models are loaded from OBJ/MTL,
glTF or GLB files; .rts scene files list several models and a camera.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), opts, args[0])
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.IntVar(&opts.samples, "samples", 0, "stop after this many samples per pixel (0 = unlimited in the viewer)")
	pf.IntVar(&opts.bounces, "bounces", tracer.DefaultMaxBounces, "maximum path length")
	pf.BoolVar(&opts.lightSampling, "light-sampling", false, "sample emissive triangles directly at every bounce")
	pf.StringVar(&opts.sky, "sky", "", "equirectangular environment image")
	pf.StringVar(&opts.skyColor, "sky-color", "0.5,0.6,0.8", "constant environment colour (r,g,b, linear)")
	pf.StringVar(&opts.texture, "texture", "", "albedo texture for materials without one (\"checker\" for a procedural one)")
	pf.Float64Var(&opts.fit, "fit", 0, "center the geometry and scale it to this size (0 = as authored)")
	pf.IntVar(&opts.workers, "workers", 0, "rows drawn in parallel (0 = GOMAXPROCS)")
	pf.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress")
	pf.BoolVar(&opts.veryVerbose, "vv", false, "log debugging detail")

	root.Flags().IntVar(&opts.fps, "fps", 30, "display refresh rate")

	root.AddCommand(newRenderCmd(opts))
	return root
}

// setupLogging applies the verbosity flags and routes output to the log
// file, to stderr when allowed, or nowhere. The returned func closes the
// log file.
func setupLogging(opts *options, stderr bool) (func(), error) {
	log.SetLevel(log.Verbosity(opts.verbose, opts.veryVerbose))

	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetSink(f)
		return func() {
			log.SetSink(os.Stderr)
			f.Close()
		}, nil
	case stderr:
		log.SetSink(os.Stderr)
	default:
		log.SetSink(io.Discard)
	}
	return func() {}, nil
}

// setup loads the scene and builds the integrator the flags describe.
func setup(opts *options, path string) (*scene.Scene, *tracer.Integrator, error) {
	if opts.bounces < 1 {
		return nil, nil, fmt.Errorf("--bounces must be at least 1, got %d", opts.bounces)
	}

	var fallback *render.Texture
	switch opts.texture {
	case "":
	case "checker":
		fallback = render.NewCheckerTexture(256, 256, 32, math3d.Splat(0.8), math3d.Splat(0.2))
	default:
		tex, err := render.LoadTexture(opts.texture)
		if err != nil {
			return nil, nil, err
		}
		fallback = tex
	}

	sc, err := scene.Load(path, scene.Options{Texture: fallback, Fit: opts.fit})
	if err != nil {
		return nil, nil, err
	}
	if sc.Camera == nil {
		sc.Camera = sc.FrameCamera()
	}

	env, err := environment(opts, sc)
	if err != nil {
		return nil, nil, err
	}

	in := tracer.NewIntegrator(env)
	in.MaxBounces = opts.bounces
	in.LightSampling = opts.lightSampling

	st := sc.BVH().Stats()
	logger.Infof("bvh: %d nodes, %d leaves, depth %d, largest leaf %d", st.Nodes, st.Leaves, st.MaxDepth, st.LargestLeaf)
	return sc, in, nil
}

// environment picks the sky: the --sky flag, then the scene file's sky,
// then the constant --sky-color.
func environment(opts *options, sc *scene.Scene) (tracer.Environment, error) {
	path := opts.sky
	if path == "" {
		path = sc.Sky
	}
	if path != "" {
		tex, err := render.LoadTexture(path)
		if err != nil {
			return nil, fmt.Errorf("load sky: %w", err)
		}
		logger.Infof("sky: %s (%dx%d)", path, tex.Width, tex.Height)
		return tracer.NewTextureEnvironment(tex), nil
	}

	c, err := parseColor(opts.skyColor)
	if err != nil {
		return nil, fmt.Errorf("sky colour: %w", err)
	}
	return tracer.ConstantEnvironment{Color: c}, nil
}

// parseColor reads "r,g,b".
func parseColor(s string) (math3d.Vec3, error) {
	var c math3d.Vec3
	if _, err := fmt.Sscanf(s, "%g,%g,%g", &c.X, &c.Y, &c.Z); err != nil {
		return math3d.Vec3{}, fmt.Errorf("parse %q as r,g,b: %w", s, err)
	}
	return c, nil
}
