package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

const (
	barWidth = 40

	ansiClear  = "\x1b[2J"
	ansiHome   = "\x1b[H"
	ansiReset  = "\x1b[0m"
	fillGlyph  = "█"
	emptyGlyph = "·"
)

// ANSIRenderer redraws the whole status view on every tick: a colorized
// global progress bar, one line per worker, and a global summary line.
// Full refresh keeps the terminal handling trivial at the cost of a
// little flicker.
type ANSIRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewANSIRenderer writes to out, defaulting to stdout.
func NewANSIRenderer(out io.Writer) *ANSIRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &ANSIRenderer{out: out}
}

// Render implements SnapshotRenderer.
func (r *ANSIRenderer) Render(snapshot stats.Snapshot, perWorker []stats.View, opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString(ansiClear)
	b.WriteString(ansiHome)

	globalPercent := Percent(snapshot.Processed, float64(opts.Limit))
	b.WriteString("Bill text ingestion\n\n")
	writeBar(&b, globalPercent)
	fmt.Fprintf(&b, " %d%%\n\n", globalPercent)

	target := WorkerTarget(opts)
	for _, v := range perWorker {
		current := "idle"
		if v.Current != nil {
			current = v.Current.String()
		}
		fmt.Fprintf(&b, "worker %2d  %3d%%  %4d/%-4.0f  ok=%-4d fail=%-4d text=%-4d  %s\n",
			v.Worker,
			Percent(v.Processed, target),
			v.Processed, target,
			v.Successful, v.Failed, v.WithText,
			current,
		)
	}

	fmt.Fprintf(&b, "\ntotal      %3d%%  %4d/%-4d  ok=%-4d fail=%-4d text=%-4d  workers=%d\n",
		globalPercent,
		snapshot.Processed, opts.Limit,
		snapshot.Successful, snapshot.Failed, snapshot.WithText,
		snapshot.Workers,
	)

	_, _ = io.WriteString(r.out, b.String())
}

// writeBar renders the fixed-width bar. Filled cells are colored along a
// red->yellow->green gradient keyed to cell position; the bar itself
// caps at full even when the percent runs past 100.
func writeBar(b *strings.Builder, percent int) {
	filled := percent * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	b.WriteString("[")
	for cell := 0; cell < barWidth; cell++ {
		if cell < filled {
			red, green := gradient(cell)
			fmt.Fprintf(b, "\x1b[38;2;%d;%d;0m%s", red, green, fillGlyph)
		} else {
			b.WriteString(ansiReset)
			b.WriteString(emptyGlyph)
		}
	}
	b.WriteString(ansiReset)
	b.WriteString("]")
}

// gradient maps a cell position to a red->yellow->green ramp.
func gradient(cell int) (red, green int) {
	t := float64(cell) / float64(barWidth-1)
	if t < 0.5 {
		return 255, int(510 * t)
	}
	return int(510 * (1 - t)), 255
}
