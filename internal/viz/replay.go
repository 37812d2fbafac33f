package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/physics"
)

const (
	canvasWidth  = 36
	canvasHeight = 18
	frameRate    = 60
	playbackSecs = 10
	chartPoints  = 60
)

var ErrNoSamples = errors.New("viz: trajectory has no samples")

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type ReplayOptions struct {
	Title string
	// Inflow, when set, is shown alongside the level.
	Inflow control.Input
	// Equilibrium draws a dashed line at that level when positive.
	Equilibrium float64
	Theme       string
}

// Replay plays back a finished trajectory one sample at a time.
type Replay struct {
	traj     *dynamo.Trajectory
	opts     ReplayOptions
	levels   []float64
	scale    float64
	head     int
	speed    int
	playing  bool
	showHelp bool
	theme    Theme
	styles   styles
	canvas   *Canvas
}

func NewReplay(tr *dynamo.Trajectory, opts ReplayOptions) (Replay, error) {
	if tr == nil || tr.Len() == 0 {
		return Replay{}, ErrNoSamples
	}
	levels := tr.Component(0)

	scale := opts.Equilibrium
	for _, h := range levels {
		scale = math.Max(scale, h)
	}
	if scale <= 0 {
		scale = 1
	}

	theme := GetTheme(opts.Theme)
	return Replay{
		traj:    tr,
		opts:    opts,
		levels:  levels,
		scale:   scale * 1.1,
		speed:   max(1, tr.Len()/(frameRate*playbackSecs)),
		playing: true,
		theme:   theme,
		styles:  newStyles(theme),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}, nil
}

func (r Replay) Head() int     { return r.head }
func (r Replay) Speed() int    { return r.speed }
func (r Replay) Playing() bool { return r.playing }
func (r Replay) Theme() Theme  { return r.theme }

func (r Replay) Init() tea.Cmd { return tick() }

func (r Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case " ":
			if !r.playing && r.atEnd() {
				r.head = 0
			}
			r.playing = !r.playing
		case "+", "=":
			r.speed *= 2
		case "-", "_":
			r.speed = max(1, r.speed/2)
		case "[":
			r.playing = false
			r.head = max(0, r.head-1)
		case "]":
			r.playing = false
			r.head = min(r.traj.Len()-1, r.head+1)
		case "r":
			r.head = 0
			r.playing = true
		case "t":
			r.theme = nextTheme(r.theme)
			r.styles = newStyles(r.theme)
		case "?":
			r.showHelp = !r.showHelp
		}
	case TickMsg:
		if r.playing {
			r.head = min(r.traj.Len()-1, r.head+r.speed)
			if r.atEnd() {
				r.playing = false
			}
		}
		return r, tick()
	}
	return r, nil
}

func (r Replay) atEnd() bool { return r.head >= r.traj.Len()-1 }

func (r Replay) View() string {
	t, h := r.traj.Times[r.head], r.levels[r.head]

	r.draw(h)
	tank := r.styles.water.Render(r.canvas.String())

	var s strings.Builder
	title := r.opts.Title
	if title == "" {
		title = "bucket"
	}
	s.WriteString(r.styles.header.Render(strings.ToUpper(title)) + "\n")
	s.WriteString(r.status() + "\n\n")

	if r.head > 0 {
		chart := asciigraph.Plot(downsample(r.levels[:r.head+1], chartPoints),
			asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("level h(t)"))
		s.WriteString(r.styles.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(r.styles.label.Render(label) + r.styles.value.Render(value) + "\n")
	}
	span := r.traj.Times[r.traj.Len()-1] - r.traj.Times[0]
	progress := 1.0
	if span > 0 {
		progress = (t - r.traj.Times[0]) / span
	}
	row("Time", fmt.Sprintf("%.2fs", t))
	row("Progress", ProgressBar(progress, 20))
	row("Level", fmt.Sprintf("%.4f", h))
	if r.opts.Equilibrium > 0 {
		row("Equilibrium", fmt.Sprintf("%.4f", r.opts.Equilibrium))
	}
	if r.opts.Inflow != nil {
		row("Inflow", fmt.Sprintf("%.3f", r.opts.Inflow.Evaluate(t)))
	}
	row("Outflow", fmt.Sprintf("%.3f", physics.Outflow(math.Max(0, h))))
	row("Sample", fmt.Sprintf("%d/%d", r.head+1, r.traj.Len()))
	row("Speed", fmt.Sprintf("%dx", r.speed))
	row("Solver", fmt.Sprintf("%s (%d evals)", r.traj.Solver, r.traj.NFev))

	s.WriteString(r.styles.help.Render("SP:Pause +/-:Speed [ ]:Step\nR:Restart T:Theme ?:Help Q:Quit"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, r.styles.canvas.Render(tank), r.styles.stats.Render(s.String()))
	if r.showHelp {
		return r.styles.overlay.Render(helpText) + "\n\n" + view
	}
	return view
}

const helpText = `KEYBOARD SHORTCUTS

Space  Pause/Resume playback
+ / -  Double/halve playback speed
[ / ]  Step back/forward one sample
R      Restart from the beginning
T      Cycle themes
?      Toggle this help
Q      Quit`

func (r Replay) status() string {
	switch {
	case r.atEnd() && !r.traj.Success:
		return r.styles.failed.Render("FAILED: " + r.traj.Message)
	case r.atEnd():
		return r.styles.ok.Render("DONE")
	case r.playing:
		return r.styles.ok.Render("PLAYING")
	default:
		return r.styles.paused.Render("PAUSED")
	}
}

// draw renders the tank cross-section filled to level h.
func (r *Replay) draw(h float64) {
	c := r.canvas
	c.Clear()

	pw, ph := c.PixelWidth(), c.PixelHeight()
	left, right := 8, pw-12
	top, bottom := 4, ph-2

	c.DrawLine(left, top, left, bottom)
	c.DrawLine(right, top, right, bottom)
	c.DrawLine(left, bottom, right, bottom)

	toY := func(level float64) int {
		frac := math.Max(0, math.Min(1, level/r.scale))
		return bottom - int(frac*float64(bottom-top))
	}

	if y := toY(h); y < bottom {
		c.Fill(left+1, y, right-1, bottom-1)
	}
	if r.opts.Equilibrium > 0 {
		c.DashedLine(left-4, right+4, toY(r.opts.Equilibrium))
	}

	// Inlet pipe above the tank and its stream.
	c.DrawLine(0, 1, left+6, 1)
	if r.opts.Inflow != nil && r.opts.Inflow.Evaluate(r.traj.Times[r.head]) > 0 {
		c.DrawLine(left+6, 2, left+6, toY(h))
	}

	// Drain at the bottom right.
	c.DrawLine(right, bottom-1, pw-4, bottom-1)
	if h > 0 {
		for y := bottom; y < ph; y += 2 {
			c.Set(pw-4, y)
		}
	}
}

func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

// RunReplay takes over the terminal until the user quits.
func RunReplay(r Replay) error {
	_, err := tea.NewProgram(r, tea.WithAltScreen()).Run()
	return err
}
