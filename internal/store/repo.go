package store

import (
	"context"
	"strconv"
	"time"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/session"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only
}

// Measurement is one plotted threshold.
type Measurement struct {
	ID         int64     `db:"id"`
	Sequence   int64     `db:"sequence"`
	UserID     string    `db:"user_id"`
	SessionID  string    `db:"session_id"`
	CaseID     string    `db:"case_id"`
	Ear        string    `db:"ear"`
	Transducer string    `db:"transducer"`
	Freq       int       `db:"freq"`
	Level      int       `db:"db"`
	Masked     bool      `db:"masked"`
	MaskLevel  *int      `db:"mask_level"` // nil when unmasked
	ScaleOut   bool      `db:"so"`
	CreatedAt  time.Time `db:"created_at"`
}

// NewMeasurement converts a plotted point.
func NewMeasurement(userID, sessionID, caseID string, p audiometry.Point, masker int, at time.Time) Measurement {
	m := Measurement{
		UserID:     userID,
		SessionID:  sessionID,
		CaseID:     caseID,
		Ear:        string(p.Ear),
		Transducer: string(p.Transducer),
		Freq:       p.Frequency,
		Level:      p.Level,
		Masked:     p.Masked,
		ScaleOut:   p.ScaleOut,
		CreatedAt:  at.UTC(),
	}
	if p.Masked {
		m.MaskLevel = &masker
	}
	return m
}

// Point converts back to a plotted point.
func (m Measurement) Point() audiometry.Point {
	return audiometry.Point{
		Ear:        audiometry.Ear(m.Ear),
		Transducer: audiometry.Transducer(m.Transducer),
		Masked:     m.Masked,
		Frequency:  m.Freq,
		Level:      m.Level,
		ScaleOut:   m.ScaleOut,
	}
}

// LogRow renders m as an export row numbered index.
func (m Measurement) LogRow(index int) session.LogRow {
	masker := "-"
	if m.MaskLevel != nil {
		masker = strconv.Itoa(*m.MaskLevel)
	}
	return session.LogRow{
		Index:       index,
		Timestamp:   m.CreatedAt,
		Ear:         m.Ear,
		Transducer:  m.Transducer,
		FrequencyHz: m.Freq,
		DB:          m.Level,
		Masked:      m.Masked,
		MaskerLevel: masker,
		ScaleOut:    m.ScaleOut,
	}
}

// MeasurementRepo stores plotted thresholds.
type MeasurementRepo interface {
	// Append records m and fills its ID and Sequence.
	Append(ctx context.Context, m *Measurement) error

	// BySession returns the measurements of a session in sequence order.
	BySession(ctx context.Context, sessionID string) ([]Measurement, error)

	// DeleteAll removes every measurement.
	DeleteAll(ctx context.Context) error
}

// Session lifecycle actions.
const (
	ActionStart = "start"
	ActionEnd   = "end"
)

// SessionEventData captures a session start or end.
type SessionEventData struct {
	SessionID    string `db:"session_id"`
	Action       string `db:"action"`
	CaseID       string `db:"case_id"`
	Seed         int64  `db:"seed"`
	Profile      string `db:"profile"`
	Total        int    `db:"total"`    // end only
	Correct      int    `db:"correct"`  // end only
	Accuracy     int    `db:"accuracy"` // end only
	DurationSecs int    `db:"duration_secs"`
}

// SessionEvent is a stored SessionEventData.
type SessionEvent struct {
	ID        int64     `db:"id"`
	Sequence  int64     `db:"sequence"`
	Timestamp time.Time `db:"timestamp"`
	SessionEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int64     `db:"id"`
	Sequence  int64     `db:"sequence"`
	Timestamp time.Time `db:"timestamp"`
	LLMRequestEventData
}

// EventRepo provides append and query access to events.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEvent, error)
	// SessionEnded reports whether sessionID has an end event.
	SessionEnded(ctx context.Context, sessionID string) (bool, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns ErrNotFound for an unknown id.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)
}

// ProgressRepo stores the per-user progress blob.
type ProgressRepo interface {
	// Load returns an empty progress record for an unknown user.
	Load(ctx context.Context, userID string) (*session.Progress, error)
	Save(ctx context.Context, userID string, p *session.Progress) error
}

// SnapshotData is enough to rebuild an in-progress session: the case is
// regenerated from its options.
type SnapshotData struct {
	Version   int                  `json:"version"`
	SessionID string               `json:"session_id"`
	Case      casegen.GenerateOpts `json:"case"`
	Narrative *casegen.Narrative   `json:"narrative,omitempty"`
	Stimulus  audiometry.Stimulus  `json:"stimulus"`
	Points    []audiometry.Point   `json:"points"`
	Log       []session.LogEntry   `json:"log"`
}

// Snapshot represents a point-in-time capture of an open session.
type Snapshot struct {
	ID        int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages session snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot of a session that has no
	// end event, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error

	// DeleteSession deletes every snapshot of one session.
	DeleteSession(ctx context.Context, sessionID string) error
}
