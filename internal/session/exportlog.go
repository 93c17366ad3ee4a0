package session

import (
	"strconv"
	"time"
)

// LogHeader is the column order of ExportLog rows.
var LogHeader = []string{
	"index", "timestamp", "ear", "transducer", "freq_Hz", "dB", "masked", "maskerLevel_dB", "scaleOut",
}

// LogRow is one exported log entry. MaskerLevel is "-" when the masker was
// off.
type LogRow struct {
	Index       int
	Timestamp   time.Time
	Ear         string
	Transducer  string
	FrequencyHz int
	DB          int
	Masked      bool
	MaskerLevel string
	ScaleOut    bool
}

// Record renders the row in LogHeader order.
func (r LogRow) Record() []string {
	return []string{
		strconv.Itoa(r.Index),
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Ear,
		r.Transducer,
		strconv.Itoa(r.FrequencyHz),
		strconv.Itoa(r.DB),
		strconv.FormatBool(r.Masked),
		r.MaskerLevel,
		strconv.FormatBool(r.ScaleOut),
	}
}

// ExportLog returns the response log as flat rows.
func (s Session) ExportLog() []LogRow {
	rows := make([]LogRow, 0, len(s.log))
	for _, e := range s.log {
		masker := "-"
		if e.Masked {
			masker = strconv.Itoa(e.Masker)
		}
		rows = append(rows, LogRow{
			Index:       e.Index,
			Timestamp:   e.Time,
			Ear:         string(e.Ear),
			Transducer:  string(e.Transducer),
			FrequencyHz: e.Frequency,
			DB:          e.Level,
			Masked:      e.Masked,
			MaskerLevel: masker,
			ScaleOut:    e.ScaleOut,
		})
	}
	return rows
}
