// Package audiometer is the TUI screen where the trainee runs the
// audiometer against a loaded case.
package audiometer

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/router"
	"github.com/abhisek/audiotrainer/internal/scoring"
	"github.com/abhisek/audiotrainer/internal/screen"
	"github.com/abhisek/audiotrainer/internal/screens/summary"
	"github.com/abhisek/audiotrainer/internal/session"
	"github.com/abhisek/audiotrainer/internal/ui/layout"
)

// FrameInterval is the display frame length. Lamp suppression after a
// frequency change lasts one frame.
const FrameInterval = 100 * time.Millisecond

// MaskerStep is the masker increment of the [ and ] keys.
const MaskerStep = 5

// Recorder persists session progress. store.Recorder implements it.
type Recorder interface {
	Start(ctx context.Context, sessionID string, c *casegen.Case) error
	Measure(ctx context.Context, sessionID, caseID string, p audiometry.Point, masker int, at time.Time) error
	Checkpoint(ctx context.Context, sessionID string, opts casegen.GenerateOpts, n casegen.Narrative, s session.Session) error
	Finish(ctx context.Context, sessionID string, c *casegen.Case, res scoring.Result, elapsed time.Duration, at time.Time) error
}

// Config describes the session the screen runs.
type Config struct {
	// ID of a resumed session. Empty starts a new one.
	ID      string
	Opts    casegen.GenerateOpts
	Case    *casegen.Case
	Session session.Session

	Recorder Recorder
	Log      *zap.Logger
	Now      func() time.Time
}

// Screen is the audiometer.
type Screen struct {
	id      string
	resumed bool
	opts    casegen.GenerateOpts
	c       *casegen.Case
	sess    session.Session
	rec     Recorder
	log     *zap.Logger
	now     func() time.Time
	started time.Time

	// presented holds the response to the last space press until the
	// stimulus changes.
	presented *response.Result
	last      *session.CommitResult
	errMsg    string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)

// New loads cfg.Case into cfg.Session unless the session is a resumed one
// that already holds it.
func New(cfg Config) *Screen {
	s := &Screen{
		id:   cfg.ID,
		opts: cfg.Opts,
		c:    cfg.Case,
		sess: cfg.Session,
		rec:  cfg.Recorder,
		log:  cfg.Log,
		now:  cfg.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.id == "" {
		s.id = uuid.NewString()
		s.sess = s.sess.LoadCase(s.c)
	} else {
		s.resumed = true
	}
	s.started = s.now()
	return s
}

func (s *Screen) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd()}
	if !s.resumed {
		cmds = append(cmds, s.persist("start", func(ctx context.Context, r Recorder) error {
			return r.Start(ctx, s.id, s.c)
		}))
	}
	return tea.Batch(cmds...)
}

func (s *Screen) Title() string {
	return "Audiometer"
}

func (s *Screen) Status() string {
	return fmt.Sprintf("case %s  %d/%d plotted", shortID(s.c.ID), len(s.sess.Points()), len(s.sess.Targets()))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Level"},
		{Key: "←→", Description: "Freq"},
		{Key: "R/L", Description: "Ear"},
		{Key: "A/B", Description: "AC/BC"},
		{Key: "M [ ]", Description: "Mask"},
		{Key: "Space", Description: "Present"},
		{Key: "Enter", Description: "Plot"},
		{Key: "S", Description: "Score"},
	}
}

// Session returns the current session value.
func (s *Screen) Session() session.Session { return s.sess }

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		s.sess = s.sess.Tick()
		return s, frameCmd()

	case persistedMsg:
		if msg.Err != nil {
			s.log.Warn("persist session", zap.String("what", msg.What), zap.String("session", s.id), zap.Error(msg.Err))
			s.errMsg = "could not save " + msg.What
		}
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	before := s.sess.Stimulus()
	var cmd tea.Cmd

	switch msg.String() {
	case "up":
		cmd = s.commit(s.sess.StepLevel(session.Up, s.now()))
	case "down":
		cmd = s.commit(s.sess.StepLevel(session.Down, s.now()))
	case "left":
		s.sess = s.sess.StepFrequency(session.Prev)
	case "right":
		s.sess = s.sess.StepFrequency(session.Next)
	case "r":
		s.sess = s.sess.SelectEar(audiometry.Right)
	case "l":
		s.sess = s.sess.SelectEar(audiometry.Left)
	case "a":
		s.sess = s.sess.SelectTransducer(audiometry.AC)
	case "b":
		s.sess = s.sess.SelectTransducer(audiometry.BC)
	case "m":
		s.sess = s.sess.SwitchMasking(!before.Masked)
		cmd = s.checkpoint()
	case "[":
		s.sess = s.sess.StepMasker(-MaskerStep)
	case "]":
		s.sess = s.sess.StepMasker(MaskerStep)
	case "space":
		res := s.sess.Evaluate()
		s.presented = &res
		return s, nil
	case "enter":
		cmd = s.commit(s.sess.CommitCurrent(s.now()))
	case "d":
		s.sess = s.sess.RemoveCurrentPoint()
		cmd = s.checkpoint()
	case "c":
		s.sess = s.sess.ClearAll()
		cmd = s.checkpoint()
	case "s":
		return s, s.finish()
	default:
		return s, nil
	}

	if s.sess.Stimulus() != before {
		s.presented = nil
	}
	return s, cmd
}

// commit installs the result of a plotting transition and persists the
// point.
func (s *Screen) commit(next session.Session, res session.CommitResult) tea.Cmd {
	s.sess = next
	if !res.Applied {
		return nil
	}
	s.last = &res
	s.errMsg = ""
	at := s.now()
	masker := next.Stimulus().Masker
	return tea.Batch(
		s.persist("measurement", func(ctx context.Context, r Recorder) error {
			return r.Measure(ctx, s.id, s.c.ID, res.Point, masker, at)
		}),
		s.checkpoint(),
	)
}

func (s *Screen) checkpoint() tea.Cmd {
	snap, narr := s.sess, s.c.Narrative
	return s.persist("checkpoint", func(ctx context.Context, r Recorder) error {
		return r.Checkpoint(ctx, s.id, s.opts, narr, snap)
	})
}

// finish scores the session and swaps in the summary screen.
func (s *Screen) finish() tea.Cmd {
	res := s.sess.Score()
	now := s.now()
	elapsed := now.Sub(s.started)
	sum := summary.New(summary.Data{
		CaseID:    s.c.ID,
		Profile:   string(s.c.Meta.Profile),
		Narrative: s.c.Narrative,
		Result:    res,
		Elapsed:   elapsed,
	})
	return tea.Batch(
		s.persist("score", func(ctx context.Context, r Recorder) error {
			return r.Finish(ctx, s.id, s.c, res, elapsed, now)
		}),
		func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} },
	)
}

// persist runs fn in the background when a recorder is wired.
func (s *Screen) persist(what string, fn func(context.Context, Recorder) error) tea.Cmd {
	if s.rec == nil {
		return nil
	}
	rec := s.rec
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return persistedMsg{What: what, Err: fn(ctx, rec)}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
