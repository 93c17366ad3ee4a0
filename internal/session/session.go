// Package session holds the trainee's working state for one case: the
// audiometer stimulus, the plotted points and the response log.
//
// Session is a value type. Every transition returns a new Session and
// leaves the receiver untouched, so renderers can hold on to any value as
// a consistent snapshot.
package session

import (
	"slices"
	"time"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/scoring"
)

// Direction of a keyboard step.
type Direction int

const (
	Up Direction = iota
	Down
	Prev
	Next
)

// LevelStep is the keyboard level increment in dB.
const LevelStep = 5

// LogEntry records a presentation the patient responded to.
type LogEntry struct {
	Index      int                   `json:"index"`
	Time       time.Time             `json:"time"`
	Ear        audiometry.Ear        `json:"ear"`
	Transducer audiometry.Transducer `json:"transducer"`
	Frequency  int                   `json:"frequency"`
	Level      int                   `json:"level"`
	Masked     bool                  `json:"masked"`
	Masker     int                   `json:"masker"`
	ScaleOut   bool                  `json:"scale_out"`
}

// CommitResult reports what a commit did.
type CommitResult struct {
	Applied  bool
	Point    audiometry.Point
	Result   response.Result
	Logged   bool
	Warnings []response.Warning
}

// Session is the trainee state for one loaded case.
type Session struct {
	caseID   string
	patient  response.Patient
	engine   *response.Engine
	stimulus audiometry.Stimulus
	points   []audiometry.Point
	log      []LogEntry
	targets  []audiometry.Target

	lampSuppressed bool
}

// New returns an empty session evaluated by engine.
func New(engine *response.Engine) Session {
	if engine == nil {
		engine = response.New(response.DefaultConfig())
	}
	return Session{engine: engine, stimulus: audiometry.DefaultStimulus()}
}

// LoadCase installs c, clearing points and log.
func (s Session) LoadCase(c *casegen.Case) Session {
	return s.LoadPatient(c.ID, c, c.Targets(s.engine.Config().Attenuation))
}

// LoadPatient installs an arbitrary patient with explicit targets.
func (s Session) LoadPatient(id string, p response.Patient, targets []audiometry.Target) Session {
	s.caseID = id
	s.patient = p
	s.targets = slices.Clone(targets)
	s.points = nil
	s.log = nil
	s.stimulus = audiometry.DefaultStimulus()
	s.lampSuppressed = false
	return s
}

// Restore reinstates saved points, log and stimulus on a loaded session.
// Points that cannot be plotted are dropped.
func (s Session) Restore(st audiometry.Stimulus, points []audiometry.Point, log []LogEntry) Session {
	s = s.SetStimulus(st)
	s.points = nil
	for _, p := range points {
		s = s.AddOrReplacePoint(p)
	}
	s.log = slices.Clone(log)
	return s
}

// CaseID returns the loaded case ID.
func (s Session) CaseID() string { return s.caseID }

// Loaded reports whether a case is installed.
func (s Session) Loaded() bool { return s.patient != nil }

// Stimulus returns the current audiometer state.
func (s Session) Stimulus() audiometry.Stimulus { return s.stimulus }

// Points returns a copy of the plotted points.
func (s Session) Points() []audiometry.Point { return slices.Clone(s.points) }

// Log returns a copy of the response log.
func (s Session) Log() []LogEntry { return slices.Clone(s.log) }

// Targets returns a copy of the hidden targets.
func (s Session) Targets() []audiometry.Target { return slices.Clone(s.targets) }

// Engine returns the response engine.
func (s Session) Engine() *response.Engine { return s.engine }

// SetStimulus replaces the audiometer state. Levels are clamped.
func (s Session) SetStimulus(st audiometry.Stimulus) Session {
	s.stimulus = st.Normalize()
	return s
}

// SelectEar switches the test ear.
func (s Session) SelectEar(ear audiometry.Ear) Session {
	if ear.Valid() {
		s.stimulus.Ear = ear
	}
	return s
}

// SelectTransducer switches transducer and moves the frequency to the
// nearest one the transducer can test.
func (s Session) SelectTransducer(t audiometry.Transducer) Session {
	if !t.Valid() {
		return s
	}
	s.stimulus.Transducer = t
	if !audiometry.Measurable(t, s.stimulus.Frequency) {
		s.stimulus.Frequency = nearestFrequency(t, s.stimulus.Frequency)
	}
	return s
}

// StepMasker moves the masker level by delta dB.
func (s Session) StepMasker(delta int) Session {
	s.stimulus.Masker = audiometry.ClampInput(s.stimulus.Masker + delta)
	return s
}

// Evaluate returns the patient's response to the current stimulus.
func (s Session) Evaluate() response.Result {
	return s.engine.Evaluate(s.patient, s.stimulus)
}

// Warnings returns the unsuppressed warnings for the current stimulus.
func (s Session) Warnings() []response.Warning {
	return s.engine.Warnings(s.Evaluate())
}

// Lamp reports whether the response lamp is lit.
func (s Session) Lamp() bool {
	if s.lampSuppressed || !s.Loaded() {
		return false
	}
	return s.Evaluate().Respond
}

// LampSuppressed reports whether the lamp is held off for this frame.
func (s Session) LampSuppressed() bool { return s.lampSuppressed }

// Tick ends a frame and releases lamp suppression.
func (s Session) Tick() Session {
	s.lampSuppressed = false
	return s
}

// Commit sets the stimulus and plots the resulting point. A log entry is
// appended only when the patient responds at the committed state.
func (s Session) Commit(st audiometry.Stimulus, at time.Time) (Session, CommitResult) {
	s = s.SetStimulus(st)
	if !s.Loaded() {
		return s, CommitResult{}
	}
	c := s.engine.Commit(s.patient, s.stimulus)
	if !c.Applied {
		return s, CommitResult{}
	}

	s = s.AddOrReplacePoint(c.Point)
	res := CommitResult{
		Applied:  true,
		Point:    c.Point,
		Result:   c.Result,
		Warnings: s.engine.Warnings(c.Result),
	}
	if c.Result.Respond {
		s.log = append(slices.Clone(s.log), LogEntry{
			Index:      len(s.log) + 1,
			Time:       at,
			Ear:        c.Point.Ear,
			Transducer: c.Point.Transducer,
			Frequency:  c.Point.Frequency,
			Level:      c.Point.Level,
			Masked:     c.Point.Masked,
			Masker:     s.stimulus.Masker,
			ScaleOut:   c.Point.ScaleOut,
		})
		res.Logged = true
	}
	return s, res
}

// CommitCurrent commits the current stimulus.
func (s Session) CommitCurrent(at time.Time) (Session, CommitResult) {
	return s.Commit(s.stimulus, at)
}

// AddOrReplacePoint plots p, replacing any point at the same ear,
// transducer and frequency in either masking mode. BC points at
// frequencies without BC are ignored.
func (s Session) AddOrReplacePoint(p audiometry.Point) Session {
	if !p.Ear.Valid() || !audiometry.Measurable(p.Transducer, p.Frequency) {
		return s
	}
	slot := p.Slot()
	points := make([]audiometry.Point, 0, len(s.points)+1)
	for _, q := range s.points {
		if q.Slot() != slot {
			points = append(points, q)
		}
	}
	points = append(points, p)
	slices.SortFunc(points, comparePoints)
	s.points = points
	return s
}

// RemovePoint deletes the point with key k.
func (s Session) RemovePoint(k audiometry.PointKey) Session {
	s.points = slices.DeleteFunc(slices.Clone(s.points), func(p audiometry.Point) bool {
		return p.Key() == k
	})
	return s
}

// RemoveCurrentPoint deletes the point at the current stimulus in either
// masking mode.
func (s Session) RemoveCurrentPoint() Session {
	slot := s.stimulus.Slot()
	s.points = slices.DeleteFunc(slices.Clone(s.points), func(p audiometry.Point) bool {
		return p.Slot() == slot
	})
	return s
}

// ClearAll removes every plotted point. The log is kept.
func (s Session) ClearAll() Session {
	s.points = nil
	return s
}

// SwitchMasking turns the masker on or off and deletes the point of the
// opposite mode at the current ear, transducer and frequency.
func (s Session) SwitchMasking(masked bool) Session {
	if s.stimulus.Masked == masked {
		return s
	}
	opposite := s.stimulus.Key()
	s.stimulus.Masked = masked
	return s.RemovePoint(opposite)
}

// StepLevel moves the level one step (Up is 5 dB softer) and commits.
func (s Session) StepLevel(dir Direction, at time.Time) (Session, CommitResult) {
	st := s.stimulus
	switch dir {
	case Up:
		st.Level -= LevelStep
	case Down:
		st.Level += LevelStep
	default:
		return s, CommitResult{}
	}
	return s.Commit(st, at)
}

// StepFrequency moves to the adjacent frequency the current transducer can
// test. The lamp is suppressed until the next Tick.
func (s Session) StepFrequency(dir Direction) Session {
	freqs := testable(s.stimulus.Transducer)
	i := slices.Index(freqs, s.stimulus.Frequency)
	if i < 0 {
		s.stimulus.Frequency = nearestFrequency(s.stimulus.Transducer, s.stimulus.Frequency)
		s.lampSuppressed = true
		return s
	}
	switch dir {
	case Prev:
		i = max(0, i-1)
	case Next:
		i = min(len(freqs)-1, i+1)
	default:
		return s
	}
	if freqs[i] != s.stimulus.Frequency {
		s.stimulus.Frequency = freqs[i]
		s.lampSuppressed = true
	}
	return s
}

// Score grades the plotted points against the targets.
func (s Session) Score() scoring.Result {
	return scoring.Score(s.targets, s.points)
}

// Snapshot is a plain copy of the session for renderers and transports.
type Snapshot struct {
	CaseID   string              `json:"case_id"`
	Stimulus audiometry.Stimulus `json:"stimulus"`
	Points   []audiometry.Point  `json:"points"`
	Log      []LogEntry          `json:"log"`
	Lamp     bool                `json:"lamp"`
	Result   response.Result     `json:"result"`
	Warnings []response.Warning  `json:"warnings,omitempty"`
}

// Snapshot copies the observable state.
func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		CaseID:   s.caseID,
		Stimulus: s.stimulus,
		Points:   s.Points(),
		Log:      s.Log(),
		Lamp:     s.Lamp(),
	}
	if s.Loaded() {
		snap.Result = s.Evaluate()
		snap.Warnings = s.engine.Warnings(snap.Result)
	}
	return snap
}

func testable(t audiometry.Transducer) []int {
	if t == audiometry.BC {
		return audiometry.BCFrequencies()
	}
	return audiometry.Frequencies
}

func nearestFrequency(t audiometry.Transducer, f int) int {
	freqs := testable(t)
	best := freqs[0]
	for _, c := range freqs {
		if abs(c-f) < abs(best-f) {
			best = c
		}
	}
	return best
}

func comparePoints(a, b audiometry.Point) int {
	if a.Ear != b.Ear {
		if a.Ear == audiometry.Right {
			return -1
		}
		return 1
	}
	if a.Transducer != b.Transducer {
		if a.Transducer == audiometry.AC {
			return -1
		}
		return 1
	}
	return a.Frequency - b.Frequency
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
