// Command atlasdump builds a glyph atlas from a font and writes it out as
// images, optionally rendering a line of text with it.
//
// Usage:
//
//	atlasdump [-font file.ttf | -mono] [-size 32] [-atlas atlas.png]
//	          [-text "..." -out text.png] [-list] [-v] [-logfile atlasdump.log]
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/unicode/runenames"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gogpu/fontatlas"
	"github.com/gogpu/fontatlas/render"
)

type options struct {
	fontPath string
	mono     bool
	size     int
	margin   int
	hinting  string
	atlasOut string
	text     string
	textOut  string
	padding  int
	list     bool
	verbose  bool
	logFile  string
}

func main() {
	var o options
	flag.StringVar(&o.fontPath, "font", "", "TrueType/OpenType font file (default: Go Regular)")
	flag.BoolVar(&o.mono, "mono", false, "use the embedded Go Mono font")
	flag.IntVar(&o.size, "size", 32, "rasterization size in pixels per em")
	flag.IntVar(&o.margin, "margin", 2, "blank texels around each glyph")
	flag.StringVar(&o.hinting, "hinting", "full", "hinting mode: none, vertical or full")
	flag.StringVar(&o.atlasOut, "atlas", "atlas.png", "atlas image output (empty to skip)")
	flag.StringVar(&o.text, "text", "", "text to render")
	flag.StringVar(&o.textOut, "out", "text.png", "rendered text output")
	flag.IntVar(&o.padding, "padding", 8, "padding around rendered text in pixels")
	flag.BoolVar(&o.list, "list", false, "print every glyph in the atlas")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.StringVar(&o.logFile, "logfile", "", "write JSON logs to this rotated file instead of stderr")
	flag.Parse()

	logger := newLogger(o)
	fontatlas.SetLogger(logger)
	slog.SetDefault(logger)

	if err := run(o, os.Stdout); err != nil {
		logger.Error("atlasdump failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func newLogger(o options) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if o.logFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, hopts))
	}
	w := &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    16, // MB
		MaxBackups: 2,
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

func run(o options, stdout io.Writer) error {
	data, err := loadFont(o)
	if err != nil {
		return err
	}
	hinting, err := parseHinting(o.hinting)
	if err != nil {
		return err
	}

	a, err := fontatlas.BuildAtlas(data, o.size,
		fontatlas.WithMargin(o.margin),
		fontatlas.WithHinting(hinting))
	if err != nil {
		var oe *fontatlas.OverflowError
		if errors.As(err, &oe) {
			return fmt.Errorf("%w (try a smaller -margin or -size)", err)
		}
		return err
	}

	if o.atlasOut != "" {
		if err := writePNG(o.atlasOut, a.Image()); err != nil {
			return err
		}
		slog.Info("atlas written", slog.String("path", o.atlasOut),
			slog.Int("width", a.Width()), slog.Int("height", a.Height()))
	}

	if o.list {
		if err := listGlyphs(stdout, a); err != nil {
			return err
		}
	}

	if o.text != "" {
		img, err := renderText(a, o.text, o.padding)
		if err != nil {
			return err
		}
		if err := writePNG(o.textOut, img); err != nil {
			return err
		}
		slog.Info("text written", slog.String("path", o.textOut),
			slog.Int("width", img.Bounds().Dx()), slog.Int("height", img.Bounds().Dy()))
	}
	return nil
}

func loadFont(o options) ([]byte, error) {
	switch {
	case o.fontPath != "":
		data, err := os.ReadFile(o.fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		return data, nil
	case o.mono:
		return gomono.TTF, nil
	default:
		return goregular.TTF, nil
	}
}

func parseHinting(s string) (font.Hinting, error) {
	switch s {
	case "none":
		return font.HintingNone, nil
	case "vertical":
		return font.HintingVertical, nil
	case "full":
		return font.HintingFull, nil
	}
	return 0, fmt.Errorf("unknown hinting mode %q", s)
}

// listGlyphs prints one line per codepoint with its Unicode name and atlas
// entry.
func listGlyphs(w io.Writer, a *fontatlas.FontAtlas) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "RUNE\tNAME\tTEX ORIGIN\tTEX SIZE\tGLYPH SIZE\tLEFT\tRIGHT\tBASELINE")
	for _, r := range a.Runes() {
		info, _ := a.Lookup(r)
		name := runenames.Name(r)
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%U\t%s\t%.4f,%.4f\t%.4f,%.4f\t%.3f,%.3f\t%.3f\t%.3f\t%.3f\n",
			r, name,
			info.TexOrigin[0], info.TexOrigin[1],
			info.TexSize[0], info.TexSize[1],
			info.GlyphSize[0], info.GlyphSize[1],
			info.LeftPadding, info.RightPadding, info.BaselineOffset)
	}
	return tw.Flush()
}

// renderText draws text in black on white, sized to fit the laid out run.
func renderText(a *fontatlas.FontAtlas, text string, padding int) (*image.NRGBA, error) {
	l := fontatlas.NewLayout(a, text)
	em := float32(a.EmPixels())

	var bottom, top float32
	for _, v := range l.Vertices() {
		bottom = min(bottom, v.Position[1])
		top = max(top, v.Position[1])
	}

	w := int(math.Ceil(float64(l.TotalWidth()*em))) + 2*padding
	h := int(math.Ceil(float64((top-bottom)*em))) + 2*padding
	target := render.NewPixmapTarget(max(w, 1), max(h, 1))
	target.Clear(color.White)

	sw := render.NewSoftware(target, render.WithBlendState(gputypes.BlendStateAlpha()))
	baseline := float32(padding) - bottom*em
	err := sw.Draw(a, l, fontatlas.DrawParams{
		Transform: fontatlas.PixelTransform(float32(padding), baseline, em, target.Width(), target.Height()),
		Color:     fontatlas.Black,
	})
	if err != nil {
		return nil, err
	}
	return target.Image(), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
