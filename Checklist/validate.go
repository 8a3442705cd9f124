package Checklist

import (
	"fmt"
	"sort"
	"strings"

	"ShiftAudit/Models"

	"github.com/google/uuid"
)

type Reason string

const (
	ReasonMissing               Reason = "missing"
	ReasonJustificationRequired Reason = "justification_required"
)

type Violation struct {
	QuestionID uuid.UUID `json:"question_id"`
	Number     int       `json:"question_number"`
	Reason     Reason    `json:"reason"`
}

// ValidationError carries the violations that blocked a submission.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	nums := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		nums[i] = fmt.Sprintf("%d", v.Number)
	}
	return fmt.Sprintf("checklist incomplete: questions %s", strings.Join(nums, ", "))
}

// FirstInvalid is the question the client should scroll to.
func (e *ValidationError) FirstInvalid() uuid.UUID {
	if len(e.Violations) == 0 {
		return uuid.Nil
	}
	return e.Violations[0].QuestionID
}

// Validate returns the questions that block submission, in question-number
// order. A question is invalid when it has no status, or when it is a NOK
// whose justification is blank.
func Validate(questions []Models.Question, answers map[uuid.UUID]Entry) []Violation {
	var out []Violation
	for _, q := range sortedQuestions(questions) {
		e, ok := answers[q.ID]
		switch {
		case !ok || e.Status == Models.StatusUnset:
			out = append(out, Violation{QuestionID: q.ID, Number: q.Number, Reason: ReasonMissing})
		case e.Status == Models.StatusNOK && strings.TrimSpace(e.Justification) == "":
			out = append(out, Violation{QuestionID: q.ID, Number: q.Number, Reason: ReasonJustificationRequired})
		}
	}
	return out
}

func sortedQuestions(questions []Models.Question) []Models.Question {
	out := make([]Models.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
