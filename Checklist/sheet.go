// Package Checklist holds the answer state, validation, submission and
// reporting rules of a shift checklist.
package Checklist

import (
	"errors"
	"math"
	"sync"

	"ShiftAudit/Models"

	"github.com/google/uuid"
)

var (
	ErrUnknownQuestion = errors.New("question is not part of this checklist")
	ErrInvalidStatus   = errors.New("invalid answer status")
)

// Entry is the in-progress answer to one question.
type Entry struct {
	Status        Models.Status `json:"status"`
	Justification string        `json:"justification,omitempty"`
}

// normalize drops the justification of anything that is not a NOK.
func (e Entry) normalize() Entry {
	if e.Status != Models.StatusNOK {
		e.Justification = ""
	}
	return e
}

type Counts struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	OK       int `json:"ok"`
	NOK      int `json:"nok"`
	NA       int `json:"na"`
}

// AnswerSheet is the answer state of one session while it is being filled.
// Every update replaces the whole entry of a question.
type AnswerSheet struct {
	mu        sync.RWMutex
	questions []Models.Question
	known     map[uuid.UUID]struct{}
	answers   map[uuid.UUID]Entry
}

// NewAnswerSheet builds a sheet over questions, restoring existing entries.
// Entries for questions outside the list are discarded.
func NewAnswerSheet(questions []Models.Question, existing map[uuid.UUID]Entry) *AnswerSheet {
	s := &AnswerSheet{
		questions: sortedQuestions(questions),
		known:     make(map[uuid.UUID]struct{}, len(questions)),
		answers:   make(map[uuid.UUID]Entry, len(questions)),
	}
	for _, q := range questions {
		s.known[q.ID] = struct{}{}
	}
	for id, e := range existing {
		if _, ok := s.known[id]; ok && e.Status.Valid() {
			s.answers[id] = e.normalize()
		}
	}
	return s
}

// SetAnswer replaces the answer to questionID. A status other than NOK
// always clears the justification.
func (s *AnswerSheet) SetAnswer(questionID uuid.UUID, status Models.Status, justification string) (Entry, error) {
	if !status.Valid() {
		return Entry{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.known[questionID]; !ok {
		return Entry{}, ErrUnknownQuestion
	}
	e := Entry{Status: status, Justification: justification}.normalize()
	if e.Status == Models.StatusUnset {
		delete(s.answers, questionID)
	} else {
		s.answers[questionID] = e
	}
	return e, nil
}

func (s *AnswerSheet) Entry(questionID uuid.UUID) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers[questionID]
}

// Answers returns a copy of the current entries keyed by question id.
func (s *AnswerSheet) Answers() map[uuid.UUID]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]Entry, len(s.answers))
	for id, e := range s.answers {
		out[id] = e
	}
	return out
}

func (s *AnswerSheet) Questions() []Models.Question {
	return s.questions
}

func (s *AnswerSheet) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Total: len(s.questions)}
	for _, q := range s.questions {
		switch s.answers[q.ID].Status {
		case Models.StatusOK:
			c.OK++
		case Models.StatusNOK:
			c.NOK++
		case Models.StatusNA:
			c.NA++
		default:
			continue
		}
		c.Answered++
	}
	return c
}

// Progress is the percentage of questions with a status, 0 when the sheet
// has no questions.
func (s *AnswerSheet) Progress() int {
	c := s.Counts()
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.Answered) / float64(c.Total)))
}

// Validate runs the submission checks against the current entries.
func (s *AnswerSheet) Validate() []Violation {
	return Validate(s.questions, s.Answers())
}
