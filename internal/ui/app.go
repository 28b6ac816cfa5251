package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/prabalesh/netoverlay/internal/models"
)

type readingMsg models.Reading

// PositionSaver persists the overlay position.
type PositionSaver interface {
	Save(models.OverlayPosition) error
}

type AppOptions struct {
	Position models.OverlayPosition
	Store    PositionSaver
	// Interval is the bandwidth tick, used to turn per-tick megabits into
	// link utilisation.
	Interval time.Duration
	Details  bool
	Log      *zap.Logger
}

// App is the overlay model: one small box at a persisted position that can
// be dragged with the mouse or nudged with the keyboard while unlocked.
type App struct {
	reading  models.Reading
	received bool
	position models.OverlayPosition
	store    PositionSaver
	interval time.Duration
	details  bool
	log      *zap.Logger

	width  int
	height int

	dragging bool
	dragDX   int
	dragDY   int

	keys        keyMap
	help        help.Model
	downloadBar progress.Model
}

func NewApp(opts AppOptions) *App {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &App{
		position:    opts.Position,
		store:       opts.Store,
		interval:    opts.Interval,
		details:     opts.Details,
		log:         opts.Log.Named("ui"),
		keys:        newKeyMap(),
		help:        help.New(),
		downloadBar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case readingMsg:
		a.reading = models.Reading(msg)
		a.received = true
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Lock):
			a.position.Locked = !a.position.Locked
			a.dragging = false
			a.savePosition()
		case key.Matches(msg, a.keys.Details):
			a.details = !a.details
		case key.Matches(msg, a.keys.Up):
			a.nudge(0, -1)
		case key.Matches(msg, a.keys.Down):
			a.nudge(0, 1)
		case key.Matches(msg, a.keys.Left):
			a.nudge(-1, 0)
		case key.Matches(msg, a.keys.Right):
			a.nudge(1, 0)
		}

	case tea.MouseMsg:
		a.handleMouse(msg)
	}

	return a, nil
}

func (a *App) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || a.position.Locked {
			return
		}
		x, y := a.placement()
		w, h := a.boxSize()
		if msg.X < x || msg.X >= x+w || msg.Y < y || msg.Y >= y+h {
			return
		}
		a.dragging = true
		a.dragDX = msg.X - x
		a.dragDY = msg.Y - y

	case tea.MouseActionMotion:
		if !a.dragging {
			return
		}
		a.moveTo(msg.X-a.dragDX, msg.Y-a.dragDY)

	case tea.MouseActionRelease:
		if !a.dragging {
			return
		}
		a.dragging = false
		a.savePosition()
	}
}

func (a *App) nudge(dx, dy int) {
	if a.position.Locked {
		return
	}
	x, y := a.placement()
	a.moveTo(x+dx, y+dy)
	a.savePosition()
}

func (a *App) moveTo(x, y int) {
	a.position.X, a.position.Y = a.clamp(x, y)
}

func (a *App) savePosition() {
	if a.store == nil {
		return
	}
	if err := a.store.Save(a.position); err != nil {
		a.log.Warn("save position failed", zap.Error(err))
	}
}

// Position is the overlay position as it would be persisted.
func (a *App) Position() models.OverlayPosition {
	return a.position
}

// placement is where the box is drawn: the stored position clamped to the
// terminal so an off-screen position stays reachable.
func (a *App) placement() (int, int) {
	return a.clamp(a.position.X, a.position.Y)
}

func (a *App) clamp(x, y int) (int, int) {
	w, h := a.boxSize()
	maxX := max(0, a.width-w)
	maxY := max(0, a.height-h)
	return min(max(x, 0), maxX), min(max(y, 0), maxY)
}

func (a *App) boxSize() (int, int) {
	box := a.renderBox()
	return lipgloss.Width(box), lipgloss.Height(box)
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	box := a.renderBox()
	x, y := a.placement()

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", y))
	b.WriteString(lipgloss.NewStyle().MarginLeft(x).Render(box))

	if a.details {
		b.WriteString("\n\n")
		b.WriteString(a.renderDetails())
		b.WriteString("\n\n")
		b.WriteString(a.help.View(a.keys))
	}
	return b.String()
}

func (a *App) renderBox() string {
	r := a.reading
	value := ValueStyle
	if a.received && !r.SourceOK {
		value = StaleStyle
	}

	sep := SeparatorStyle.Render("  |  ")
	line := LabelStyle.Render("DL") + " " + value.Render(fmt.Sprintf("%.1f", r.Rates.AvgDownloadMbps)) +
		sep +
		LabelStyle.Render("UL") + " " + value.Render(fmt.Sprintf("%.1f", r.Rates.AvgUploadMbps))
	if r.Alert.Active {
		line += SeparatorStyle.Render(" | ") + AlertStyle.Render(fmt.Sprintf("PING %dms", r.Alert.HighPingMs))
	}

	border := BaseStyle
	switch {
	case a.dragging:
		border = DraggingBorderStyle
	case a.position.Locked:
		border = LockedBorderStyle
	}
	return border.Render(line)
}

func (a *App) renderDetails() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Interfaces"))
	b.WriteString("\n")

	if len(a.reading.Interfaces) == 0 {
		b.WriteString(MutedStyle.Render("no matching interfaces"))
		b.WriteString("\n")
	}

	var linkMbps int64
	for _, iface := range a.reading.Interfaces {
		b.WriteString(fmt.Sprintf("%-12s %s  %-10s  rx %-9s tx %s\n",
			iface.Name,
			statusStyle(iface.Status).Render(fmt.Sprintf("%-8s", iface.Status)),
			iface.Speed,
			humanize.Bytes(iface.RxBytes),
			humanize.Bytes(iface.TxBytes)))
		linkMbps += iface.SpeedMbps
	}

	b.WriteString("\n")
	if linkMbps > 0 {
		b.WriteString(fmt.Sprintf("%-12s %s\n", "download", a.downloadBar.ViewAs(a.utilisation(linkMbps))))
	}

	lock := "unlocked"
	if a.position.Locked {
		lock = "locked"
	}
	x, y := a.placement()
	b.WriteString(MutedStyle.Render(fmt.Sprintf("position %d,%d  %s", x, y, lock)))
	return b.String()
}

// utilisation is the averaged download as a share of the summed link speed.
func (a *App) utilisation(linkMbps int64) float64 {
	perTick := float64(linkMbps) * a.interval.Seconds()
	if perTick <= 0 {
		return 0
	}
	return min(1, max(0, a.reading.Rates.AvgDownloadMbps/perTick))
}

// HUD is the terminal display sink.
type HUD struct {
	program *tea.Program
}

func NewHUD(app *App, opts ...tea.ProgramOption) *HUD {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, opts...)
	return &HUD{program: tea.NewProgram(app, opts...)}
}

// Render hands r to the program. It returns once the program has taken the
// reading or has exited.
func (h *HUD) Render(r models.Reading) {
	h.program.Send(readingMsg(r))
}

// Run blocks until the user quits.
func (h *HUD) Run() error {
	_, err := h.program.Run()
	return err
}
