package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/disorder"
	"github.com/abhisek/audiotrainer/internal/export"
	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/session"
)

const maxBody = 1 << 16

type profileView struct {
	Name        disorder.Name `json:"name"`
	Label       string        `json:"label"`
	Class       string        `json:"class"`
	Unilateral  bool          `json:"unilateral"`
	Description string        `json:"description"`
}

type sessionView struct {
	ID        string            `json:"id"`
	Narrative casegen.Narrative `json:"narrative"`
	session.Snapshot
}

type evaluateView struct {
	Result   response.Result    `json:"result"`
	Warnings []response.Warning `json:"warnings"`
	Lamp     bool               `json:"lamp"`
}

type commitView struct {
	Applied  bool               `json:"applied"`
	Logged   bool               `json:"logged"`
	Point    *audiometry.Point  `json:"point,omitempty"`
	Warnings []response.Warning `json:"warnings"`
	Snapshot session.Snapshot   `json:"snapshot"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.len(),
	})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	all := disorder.All()
	out := make([]profileView, 0, len(all))
	for _, p := range all {
		out = append(out, profileView{
			Name:        p.Name,
			Label:       p.Label,
			Class:       p.Class.String(),
			Unilateral:  p.Unilateral,
			Description: p.Description,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateCase(w http.ResponseWriter, r *http.Request) {
	var opts casegen.GenerateOpts
	if !s.decode(w, r, &opts) {
		return
	}
	c, err := casegen.Generate(opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var opts casegen.GenerateOpts
	if !s.decode(w, r, &opts) {
		return
	}
	c, err := casegen.Generate(opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	e := &entry{
		sess:    session.New(s.engine).LoadCase(c),
		c:       c,
		started: s.now(),
	}
	id := s.sessions.add(e)

	if s.recorder != nil {
		if err := s.recorder.Start(r.Context(), id, c); err != nil {
			s.log.Warn("record session start", zap.String("session", id), zap.Error(err))
		}
	}

	s.writeJSON(w, http.StatusCreated, sessionView{ID: id, Narrative: c.Narrative, Snapshot: e.get().Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sessionView{ID: id, Narrative: e.c.Narrative, Snapshot: e.get().Snapshot()})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	_, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	st := audiometry.Stimulus{Masker: audiometry.NoMasking}
	if !s.decode(w, r, &st) {
		return
	}
	sess := e.update(func(cur session.Session) session.Session { return cur.SetStimulus(st) })
	res := sess.Evaluate()
	s.writeJSON(w, http.StatusOK, evaluateView{
		Result:   res,
		Warnings: sess.Engine().Warnings(res),
		Lamp:     sess.Lamp(),
	})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	st := audiometry.Stimulus{Masker: audiometry.NoMasking}
	if !s.decode(w, r, &st) {
		return
	}

	at := s.now()
	sess, res := e.commit(st, at)
	view := commitView{
		Applied:  res.Applied,
		Logged:   res.Logged,
		Warnings: res.Warnings,
		Snapshot: sess.Snapshot(),
	}
	if res.Applied {
		p := res.Point
		view.Point = &p
		if s.recorder != nil {
			if err := s.recorder.Measure(r.Context(), id, sess.CaseID(), p, sess.Stimulus().Masker, at); err != nil {
				s.log.Warn("record measurement", zap.String("session", id), zap.Error(err))
			}
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleClearPoints(w http.ResponseWriter, r *http.Request) {
	_, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess := e.update(session.Session.ClearAll)
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	_, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, e.get().Score())
}

// handleFinish scores the session and records the end event and progress
// when a recorder is wired.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res := e.get().Score()
	if s.recorder != nil {
		now := s.now()
		if err := s.recorder.Finish(r.Context(), id, e.c, res, now.Sub(e.started), now); err != nil {
			s.log.Warn("record session end", zap.String("session", id), zap.Error(err))
		}
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogCSV(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)
	if err := export.WriteCSV(w, e.get().ExportLog()); err != nil {
		s.log.Warn("write log csv", zap.String("session", id), zap.Error(err))
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *entry, bool) {
	id := chi.URLParam(r, "id")
	e, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, r, err)
		return id, nil, false
	}
	return id, e, true
}

// decode reads a JSON body into v. An empty body leaves v at its zero
// value.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, casegen.ErrInvalidOpts):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}
