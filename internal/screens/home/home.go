// Package home is the start screen: pick a case, resume the last session
// or quit.
package home

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/narrative"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/screen"
	"github.com/abhisek/audiotrainer/internal/screens/audiometer"
	"github.com/abhisek/audiotrainer/internal/screens/catalog"
	"github.com/abhisek/audiotrainer/internal/screens/history"
	"github.com/abhisek/audiotrainer/internal/session"
	"github.com/abhisek/audiotrainer/internal/store"
	"github.com/abhisek/audiotrainer/internal/ui/components"
	"github.com/abhisek/audiotrainer/internal/ui/layout"
	"github.com/abhisek/audiotrainer/internal/ui/theme"
)

// Recorder is the persistence the home screen and the audiometer need.
// store.Recorder implements it.
type Recorder interface {
	audiometer.Recorder
	Progress(ctx context.Context) (*session.Progress, error)
	Resume(ctx context.Context, base session.Session) (*store.Resumed, error)
}

// Deps wires the home screen.
type Deps struct {
	// Base is an empty session carrying the response engine.
	Base session.Session
	// Opts are the generation defaults from config. Seed is replaced per
	// case.
	Opts     casegen.GenerateOpts
	Recorder Recorder
	// History lists finished sessions. Nil disables the menu item.
	History  history.Source
	Enricher *narrative.Enricher
	Log      *zap.Logger
	Now      func() time.Time
}

type progressMsg struct {
	p   *session.Progress
	err error
}

type caseMsg struct {
	opts casegen.GenerateOpts
	c    *casegen.Case
	err  error
}

type resumeMsg struct {
	r   *store.Resumed
	err error
}

// Screen is the home menu.
type Screen struct {
	deps     Deps
	menu     components.Menu
	seed     components.TextInput
	seeding  bool
	progress *session.Progress
	busy     string
	errMsg   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Resumer = (*Screen)(nil)

// New builds the home screen.
func New(deps Deps) *Screen {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &Screen{deps: deps}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "Random case", Hint: "new seed every time", Action: func() tea.Cmd {
			return h.generate(h.deps.Now().UnixNano())
		}},
		{Label: "Case by seed", Hint: "replay a known case", Action: func() tea.Cmd {
			h.seeding = true
			h.seed = components.NewTextInput("seed", true, 19)
			return h.seed.Init()
		}},
		{Label: "Practice a disorder", Hint: "browse the catalog", Action: func() tea.Cmd {
			scr := catalog.New(h.practice)
			return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
		}},
		{Label: "Resume last session", Disabled: deps.Recorder == nil, Action: h.resume},
		{Label: "History", Disabled: deps.History == nil, Action: func() tea.Cmd {
			scr := history.New(h.deps.History)
			return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
		}},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func (h *Screen) Init() tea.Cmd {
	return h.loadProgress()
}

// Resume refreshes the stats when the screen is uncovered.
func (h *Screen) Resume() tea.Cmd {
	h.busy = ""
	return h.loadProgress()
}

func (h *Screen) Title() string {
	return "Home"
}

func (h *Screen) KeyHints() []layout.KeyHint {
	if h.seeding {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		if msg.err != nil {
			h.deps.Log.Warn("load progress", zap.Error(msg.err))
			return h, nil
		}
		h.progress = msg.p
		return h, nil

	case caseMsg:
		h.busy = ""
		if msg.err != nil {
			h.errMsg = msg.err.Error()
			return h, nil
		}
		return h, h.open(audiometer.Config{Opts: msg.opts, Case: msg.c, Session: h.deps.Base})

	case resumeMsg:
		h.busy = ""
		switch {
		case errors.Is(msg.err, store.ErrNotFound):
			h.errMsg = "No session to resume."
			return h, nil
		case msg.err != nil:
			h.errMsg = "Could not resume: " + msg.err.Error()
			return h, nil
		}
		r := msg.r
		return h, h.open(audiometer.Config{ID: r.SessionID, Opts: r.Opts, Case: r.Case, Session: r.Session})

	case tea.KeyMsg:
		if h.busy != "" {
			return h, nil
		}
		h.errMsg = ""
		if h.seeding {
			return h.updateSeed(msg)
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *Screen) updateSeed(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		h.seeding = false
		return h, nil
	case "enter":
		seed, err := h.seed.Int64Value()
		if err != nil {
			h.seed.SetError("enter a number")
			return h, nil
		}
		h.seeding = false
		return h, h.generate(seed)
	}
	var cmd tea.Cmd
	h.seed, cmd = h.seed.Update(msg)
	return h, cmd
}

// Seeding reports whether the seed prompt is open.
func (h *Screen) Seeding() bool { return h.seeding }

// generate builds a case off the UI goroutine.
func (h *Screen) generate(seed int64) tea.Cmd {
	opts := h.deps.Opts
	opts.Seed = seed
	h.busy = "Generating case..."
	return func() tea.Msg {
		return h.build(opts)
	}
}

// practice starts a case of one profile from the catalog, replacing the
// catalog so back returns home.
func (h *Screen) practice(profile disorder.Name) tea.Cmd {
	opts := h.deps.Opts
	opts.Profile = string(profile)
	opts.Seed = h.deps.Now().UnixNano()
	return func() tea.Msg {
		m := h.build(opts)
		if m.err != nil {
			return m
		}
		return router.ReplaceScreenMsg{Screen: h.audiometer(audiometer.Config{Opts: m.opts, Case: m.c, Session: h.deps.Base})}
	}
}

// build generates the case and, when an enricher is wired, rewrites its
// narrative. Enrichment failures keep the template narrative.
func (h *Screen) build(opts casegen.GenerateOpts) caseMsg {
	c, err := casegen.Generate(opts)
	if err != nil {
		return caseMsg{err: err}
	}
	if h.deps.Enricher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := h.deps.Enricher.Apply(ctx, c); err != nil {
			h.deps.Log.Warn("narrative enrichment failed, using template", zap.String("case", c.ID), zap.Error(err))
		}
	}
	return caseMsg{opts: opts, c: c}
}

func (h *Screen) resume() tea.Cmd {
	rec := h.deps.Recorder
	if rec == nil {
		return nil
	}
	base := h.deps.Base
	h.busy = "Loading session..."
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := rec.Resume(ctx, base)
		return resumeMsg{r: r, err: err}
	}
}

func (h *Screen) loadProgress() tea.Cmd {
	rec := h.deps.Recorder
	if rec == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := rec.Progress(ctx)
		return progressMsg{p: p, err: err}
	}
}

func (h *Screen) open(cfg audiometer.Config) tea.Cmd {
	scr := h.audiometer(cfg)
	return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
}

func (h *Screen) audiometer(cfg audiometer.Config) *audiometer.Screen {
	if h.deps.Recorder != nil {
		cfg.Recorder = h.deps.Recorder
	}
	cfg.Log = h.deps.Log
	cfg.Now = h.deps.Now
	return audiometer.New(cfg)
}

func (h *Screen) View(width, height int) string {
	var sections []string
	sections = append(sections, renderBanner(width))
	sections = append(sections, layout.Centered(h.statsLine(), width))

	if h.seeding {
		sections = append(sections, layout.Centered(theme.Label.Render("Seed")+h.seed.View(), width))
	} else {
		sections = append(sections, layout.Centered(h.menu.View(), width))
	}

	if h.busy != "" {
		sections = append(sections, layout.Centered(theme.Hint.Render(h.busy), width))
	}
	if h.errMsg != "" {
		sections = append(sections, layout.Centered(theme.Warning.Render(h.errMsg), width))
	}
	return strings.Join(sections, "\n\n")
}

func (h *Screen) statsLine() string {
	p := h.progress
	if p == nil || p.TotalSessions == 0 {
		return theme.Hint.Render("No sessions yet.")
	}
	var sum int
	for _, ca := range p.CaseAccuracy {
		sum += ca.Accuracy
	}
	mean := 0
	if n := len(p.CaseAccuracy); n > 0 {
		mean = sum / n
	}
	return theme.Body.Render(fmt.Sprintf("Sessions: %d    Cases completed: %d    Mean accuracy: %d%%",
		p.TotalSessions, p.CompletedCases, mean))
}
