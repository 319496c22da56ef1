package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/lumen/pkg/math3d"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    math3d.Vec3
		wantErr bool
	}{
		{"0.5,0.6,0.8", math3d.V3(0.5, 0.6, 0.8), false},
		{"1,2,3", math3d.V3(1, 2, 3), false},
		{"0,0,0", math3d.Vec3{}, false},
		{"1,2", math3d.Vec3{}, true},
		{"red", math3d.Vec3{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMotionSettles(t *testing.T) {
	m := newMotion(30)
	if m.Step().moving() {
		t.Fatal("new motion is moving")
	}

	m.Push(0.15, 0, 0)
	m.Turn(0, 0.02)
	first := m.Step()
	if first.forward != 0.15 || first.yaw != 0.02 {
		t.Errorf("first step = %+v, want the pushed velocities", first)
	}

	prev := first.forward
	for range 300 {
		s := m.Step()
		if s.forward > prev {
			t.Fatalf("forward speed grew from %v to %v", prev, s.forward)
		}
		prev = s.forward
	}
	if m.Step().moving() {
		t.Errorf("motion still moving after 300 frames: %+v", m.Step())
	}
}

func TestMotionStop(t *testing.T) {
	m := newMotion(60)
	m.Push(1, 1, 1)
	m.Turn(1, 1)
	m.Stop()
	if s := m.Step(); s.moving() {
		t.Errorf("Step after Stop = %+v, want no motion", s)
	}
}

const testOBJ = `# floor and a lamp
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
v -0.2 1 -0.2
v 0.2 1 -0.2
v 0.2 1 0.2
v -0.2 1 0.2
f 1 4 3 2
f 5 6 7 8
`

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "box.obj")
	if err := os.WriteFile(model, []byte(testOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.png")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"render", model,
		"--width", "8", "--height", "6",
		"--samples", "2", "--bounces", "2",
		"--sky-color", "0.2,0.2,0.2",
		"--texture", "checker",
		"--fit", "2",
		"--out", out,
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("image size = %dx%d, want 8x6", b.Dx(), b.Dy())
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "box.obj")
	if err := os.WriteFile(model, []byte(testOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"missing model", []string{"render", filepath.Join(dir, "nope.obj"), "--out", filepath.Join(dir, "a.png")}},
		{"bad size", []string{"render", model, "--width", "0", "--out", filepath.Join(dir, "b.png")}},
		{"bad sky colour", []string{"render", model, "--sky-color", "blue", "--out", filepath.Join(dir, "c.png")}},
		{"missing texture", []string{"render", model, "--texture", filepath.Join(dir, "nope.png"), "--out", filepath.Join(dir, "e.png")}},
		{"zero bounces", []string{"render", model, "--bounces", "0", "--out", filepath.Join(dir, "f.png")}},
		{"negative bounces", []string{"render", model, "--bounces", "-2", "--out", filepath.Join(dir, "g.png")}},
		{"unknown format", []string{"render", filepath.Join(dir, "model.stl"), "--out", filepath.Join(dir, "d.png")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SilenceErrors = true
			cmd.SetArgs(tt.args)
			if err := cmd.ExecuteContext(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
