package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/taigrr/lumen/pkg/bvh"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/tracer"
)

// defaultRenderSamples is used when render runs without --samples.
const defaultRenderSamples = 64

func newRenderCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <model.obj|model.glb|scene.rts>",
		Short: "Render to a PNG file without a terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.width, "width", 640, "image width")
	f.IntVar(&opts.height, "height", 360, "image height")
	f.StringVarP(&opts.out, "out", "o", "lumen.png", "output PNG path")
	return cmd
}

func runRender(ctx context.Context, opts *options, path string) error {
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", opts.width, opts.height)
	}

	closeLog, err := setupLogging(opts, true)
	if err != nil {
		return err
	}
	defer closeLog()

	sc, in, err := setup(opts, path)
	if err != nil {
		return err
	}

	r := tracer.NewRenderer(opts.width, opts.height, in)
	r.MaxSamples = opts.samples
	if r.MaxSamples <= 0 {
		r.MaxSamples = defaultRenderSamples
	}
	r.Workers = opts.workers

	var stats tracer.Stats
	last := time.Now()
	err = r.Render(ctx, sc, sc.Camera, func(frames int) {
		now := time.Now()
		stats.RecordFrame(now.Sub(last), frames)
		last = now
		logger.Debugf("sample %d/%d in %s", frames, r.MaxSamples, stats.LastFrame)
	})
	if err != nil {
		return err
	}

	fb := render.NewFramebuffer(opts.width, opts.height)
	fb.Resolve(r.Buffer, render.NewGammaLUT(render.DefaultLUTSize, render.DefaultGamma))
	if err := fb.SavePNG(opts.out); err != nil {
		return err
	}

	logger.Noticef("wrote %s", opts.out)
	displayStats(filepath.Base(path), len(sc.Triangles), sc.BVH().Stats(), stats)
	return nil
}

func displayStats(name string, triangles int, tree bvh.Stats, stats tracer.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Triangles", "BVH nodes", "Leaves", "Depth", "Largest leaf", "Samples", "Avg sample"})
	table.Append([]string{
		name,
		fmt.Sprintf("%d", triangles),
		fmt.Sprintf("%d", tree.Nodes),
		fmt.Sprintf("%d", tree.Leaves),
		fmt.Sprintf("%d", tree.MaxDepth),
		fmt.Sprintf("%d", tree.LargestLeaf),
		fmt.Sprintf("%d", stats.Samples),
		stats.AverageFrame().String(),
	})
	table.SetFooter([]string{"", "", "", "", "", "", "TOTAL", stats.Accumulated.String()})
	table.Render()
	logger.Noticef("render statistics\n%s", buf.String())
}
