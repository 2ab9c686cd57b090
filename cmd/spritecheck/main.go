// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command spritecheck loads a sprite manifest, uploads its textures,
// builds both pipelines and renders headless frames, then reports what
// the renderer did.
//
//	spritecheck -manifest scene.yaml -frames 120
//	spritecheck -manifest scene.yaml -backend native -v
//	spritecheck -manifest scene.yaml -pack -sheet 1024
//
// Texture array layers share one extent, so array mode rejects textures
// whose size differs from the first one. -scale resizes them to the layer
// extent and rescales their source rectangles to match. -pack instead
// packs every texture onto one sheet and draws the scene in single mode,
// offsetting each source rectangle by its image's place on the sheet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/asset"
	"github.com/gogpu/sprite/render"
)

type options struct {
	manifest string
	backend  string
	frames   int
	width    uint32
	height   uint32
	workers  int
	pack     bool
	sheet    int
	scale    bool
	verbose  bool
	quiet    bool
}

func main() {
	var (
		manifest = flag.String("manifest", "sprites.yaml", "scene manifest")
		backend  = flag.String("backend", "noop", "GPU backend: noop or native")
		frames   = flag.Int("frames", 60, "frames to render")
		width    = flag.Uint("width", 800, "framebuffer width")
		height   = flag.Uint("height", 600, "framebuffer height")
		workers  = flag.Int("workers", 0, "decode workers (0 = GOMAXPROCS)")
		pack     = flag.Bool("pack", false, "pack all textures onto one sheet and draw in single mode")
		sheet    = flag.Int("sheet", 2048, "sheet width and height for -pack")
		scale    = flag.Bool("scale", false, "scale array textures to the first texture's extent")
		verbose  = flag.Bool("v", false, "log renderer activity to stderr")
		quiet    = flag.Bool("q", false, "hide the progress bar")
	)
	flag.Parse()

	opts := options{
		manifest: *manifest,
		backend:  *backend,
		frames:   *frames,
		width:    uint32(*width),  //nolint:gosec // flag value
		height:   uint32(*height), //nolint:gosec // flag value
		workers:  *workers,
		pack:     *pack,
		sheet:    *sheet,
		scale:    *scale,
		verbose:  *verbose,
		quiet:    *quiet,
	}
	if opts.verbose {
		sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	rep, err := run(context.Background(), opts)
	if err != nil {
		log.Fatalf("spritecheck: %v", err)
	}
	rep.print(os.Stdout)
	if len(rep.uvErrors) > 0 {
		os.Exit(1)
	}
}

type report struct {
	backend   string
	adapter   string
	mode      sprite.TextureMode
	present   sprite.PresentMode
	textures  int
	sprites   int
	pipelines int
	frames    uint64
	skipped   uint64
	drawCalls int
	elapsed   time.Duration
	uvErrors  []error

	sheet       int
	utilization float64
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "backend:    %s (%s)\n", r.backend, r.adapter)
	fmt.Fprintf(w, "mode:       %s, present %s\n", r.mode, r.present)
	fmt.Fprintf(w, "textures:   %d\n", r.textures)
	if r.sheet > 0 {
		fmt.Fprintf(w, "sheet:      %dx%d, %.0f%% used\n", r.sheet, r.sheet, 100*r.utilization)
	}
	fmt.Fprintf(w, "sprites:    %d\n", r.sprites)
	fmt.Fprintf(w, "pipelines:  %d built\n", r.pipelines)
	fmt.Fprintf(w, "frames:     %d completed, %d skipped\n", r.frames, r.skipped)
	if r.frames > 0 {
		fmt.Fprintf(w, "draws:      %d per frame\n", r.drawCalls/int(r.frames)) //nolint:gosec // frame count
		fmt.Fprintf(w, "frame time: %s\n", r.elapsed/time.Duration(r.frames))   //nolint:gosec // frame count
	}
	for _, err := range r.uvErrors {
		fmt.Fprintf(w, "uv:         %v\n", err)
	}
}

func run(ctx context.Context, opts options) (*report, error) {
	m, err := LoadManifest(opts.manifest)
	if err != nil {
		return nil, err
	}
	cfg, err := m.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode := cfg.TextureMode()
	if opts.pack {
		mode = sprite.ModeSingle
	}

	pixels, err := decodeAll(ctx, m.Paths(), opts)
	if err != nil {
		return nil, err
	}

	dev, err := openDevice(opts.backend)
	if err != nil {
		return nil, err
	}
	defer dev.Destroy()

	rep := &report{backend: dev.Backend, adapter: dev.Adapter, mode: mode, textures: len(pixels)}

	pm, err := render.NewPipelineManager(dev.Device, render.PipelineOptionsFromConfig(cfg)...)
	if err != nil {
		return nil, err
	}
	defer pm.Destroy()

	format := gputypes.TextureFormatBGRA8UnormSrgb
	if _, err := pm.BuildSingleTexturePipeline(format); err != nil {
		return nil, err
	}
	if _, err := pm.BuildArrayTexturePipeline(format); err != nil {
		return nil, err
	}

	// Source rectangles are checked against the images as decoded, before
	// any packing or scaling rewrites them.
	checkMode := mode
	if opts.pack {
		checkMode = sprite.ModeArray
	}
	b := m.Batch(checkMode, opts.width, opts.height)
	rep.sprites = b.Len()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rep.uvErrors = CheckUV(b, imageSizes(pixels))

	frameOpts := render.OptionsFromConfig(cfg)
	switch {
	case opts.pack:
		sheet, err := asset.Pack(pixels, opts.sheet, opts.sheet, 1)
		if err != nil {
			return nil, err
		}
		atlas, err := uploadAtlas(dev, []*asset.Pixels{sheet.Pixels})
		if err != nil {
			return nil, err
		}
		defer atlas.Destroy()
		rep.sheet = opts.sheet
		rep.utilization = sheet.Utilization()
		b = Remap(b, sprite.ModeSingle, 0, PackedUV(sheet))
		frameOpts = append(frameOpts, render.WithTextureAtlas(atlas))
	case mode == sprite.ModeArray:
		arr, scaled, err := uploadArray(dev, pixels, opts.scale)
		if err != nil {
			return nil, err
		}
		defer arr.Destroy()
		if scaled {
			w, h := arr.Size()
			b = Remap(b, sprite.ModeArray, b.Texture(), ScaledUV(imageSizes(pixels), w, h))
		}
		frameOpts = append(frameOpts, render.WithTextureArray(arr))
	default:
		atlas, err := uploadAtlas(dev, pixels)
		if err != nil {
			return nil, err
		}
		defer atlas.Destroy()
		frameOpts = append(frameOpts, render.WithTextureAtlas(atlas))
	}

	rep.present = sprite.ChoosePresentMode(cfg.PresentModeList(), sprite.DefaultPresentModes)
	sc, err := render.NewOffscreenSwapchain(dev.Device, opts.width, opts.height, format, rep.present)
	if err != nil {
		return nil, err
	}
	defer sc.Destroy()

	fr, err := render.NewFrameRenderer(dev.Device, dev.Queue, sc, pm, frameOpts...)
	if err != nil {
		return nil, err
	}
	defer fr.Destroy()

	start := time.Now()
	for range opts.frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := fr.RenderFrame(b)
		if err != nil {
			return nil, err
		}
		rep.drawCalls += res.DrawCalls
	}
	rep.elapsed = time.Since(start)
	rep.frames = fr.Frames()
	rep.skipped = fr.SkippedFrames()
	rep.pipelines = pm.Builds()
	return rep, nil
}

func decodeAll(ctx context.Context, paths []string, opts options) ([]*asset.Pixels, error) {
	var done func(string)
	if !opts.quiet {
		bar := progressbar.Default(int64(len(paths)), "decoding")
		defer bar.Close()
		done = func(string) { _ = bar.Add(1) }
	}
	return asset.LoadAll(ctx, paths, opts.workers, done)
}

func openDevice(backend string) (*render.Device, error) {
	switch backend {
	case "noop":
		return render.OpenNoop()
	case "native":
		return render.OpenDevice()
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// uploadArray loads every image into the texture array, whose layers take
// the first image's extent. An image of another size is an error unless
// scale is set; scaled reports whether any image was resized.
func uploadArray(dev *render.Device, pixels []*asset.Pixels, scale bool) (arr *render.TextureArray, scaled bool, err error) {
	if len(pixels) == 0 {
		return nil, false, errors.New("no textures")
	}
	w, h := pixels[0].Width, pixels[0].Height
	arr, err = render.NewTextureArray(dev.Device, dev.Queue, w, h, pixels[0].Format)
	if err != nil {
		return nil, false, err
	}
	for i, p := range pixels {
		if p.Width != w || p.Height != h {
			if !scale {
				arr.Destroy()
				return nil, false, fmt.Errorf("%s: %dx%d texture in a %dx%d array: %w (use -scale or -pack)",
					p.Source, p.Width, p.Height, w, h, sprite.ErrAssetDimensions)
			}
			sprite.Logger().Warn("spritecheck: scaling texture to array extent",
				"path", p.Source, "from", fmt.Sprintf("%dx%d", p.Width, p.Height), "to", fmt.Sprintf("%dx%d", w, h))
			p = p.Resize(w, h, true)
			scaled = true
		}
		if err := arr.Load(uint32(i), p.Data, p.Width, p.Height, p.Format); err != nil { //nolint:gosec // at most MaxTextureSlots
			arr.Destroy()
			return nil, false, fmt.Errorf("%s: %w", p.Source, err)
		}
	}
	return arr, scaled, nil
}

func uploadAtlas(dev *render.Device, pixels []*asset.Pixels) (*render.TextureAtlas, error) {
	atlas := render.NewTextureAtlas(dev.Device, dev.Queue)
	for _, p := range pixels {
		if _, err := atlas.Load(p.Data, p.Width, p.Height, p.Format); err != nil {
			atlas.Destroy()
			return nil, fmt.Errorf("%s: %w", p.Source, err)
		}
	}
	return atlas, nil
}

func imageSizes(pixels []*asset.Pixels) []Size {
	sizes := make([]Size, len(pixels))
	for i, p := range pixels {
		sizes[i] = Size{W: p.Width, H: p.Height}
	}
	return sizes
}
