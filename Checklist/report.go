package Checklist

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"ShiftAudit/Models"

	"github.com/google/uuid"
)

type Stats struct {
	OK         int `json:"ok"`
	NOK        int `json:"nok"`
	NA         int `json:"na"`
	Total      int `json:"total"`
	OKPercent  int `json:"ok_percent"`
	NOKPercent int `json:"nok_percent"`
	NAPercent  int `json:"na_percent"`
}

// Aggregate counts each status and converts the counts to rounded
// percentages of the sequence length. Percentages are not forced to sum
// to 100.
func Aggregate(statuses []Models.Status) Stats {
	st := Stats{Total: len(statuses)}
	for _, s := range statuses {
		switch s {
		case Models.StatusOK:
			st.OK++
		case Models.StatusNOK:
			st.NOK++
		case Models.StatusNA:
			st.NA++
		}
	}
	st.OKPercent = percent(st.OK, st.Total)
	st.NOKPercent = percent(st.NOK, st.Total)
	st.NAPercent = percent(st.NA, st.Total)
	return st
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

type ReportRow struct {
	QuestionID    uuid.UUID     `json:"question_id"`
	Number        int           `json:"question_number"`
	Text          string        `json:"question_text"`
	Status        Models.Status `json:"status"`
	StatusLabel   string        `json:"status_label"`
	Justification string        `json:"justification,omitempty"`
}

// Report is the read-only view of one completed session.
type Report struct {
	SessionID   uuid.UUID            `json:"session_id"`
	Responsible string               `json:"responsible"`
	Shift       Models.Shift         `json:"shift"`
	ShiftLabel  string               `json:"shift_label"`
	Area        Models.Area          `json:"area"`
	Context     Models.ContextLabels `json:"context"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at"`
	Rows        []ReportRow          `json:"answers"`
	Stats       Stats                `json:"stats"`
}

// BuildReport orders the answers by question number and attaches their
// stats.
func BuildReport(session Models.FormSession, responsible string, answers []Models.Answer) Report {
	sorted := make([]Models.Answer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Question.Number < sorted[j].Question.Number
	})

	rows := make([]ReportRow, len(sorted))
	statuses := make([]Models.Status, len(sorted))
	for i, a := range sorted {
		rows[i] = ReportRow{
			QuestionID:  a.QuestionID,
			Number:      a.Question.Number,
			Text:        a.Question.Text,
			Status:      a.Status,
			StatusLabel: a.Status.Label(),
		}
		if a.Justification != nil {
			rows[i].Justification = *a.Justification
		}
		statuses[i] = a.Status
	}

	return Report{
		SessionID:   session.ID,
		Responsible: responsible,
		Shift:       session.Shift,
		ShiftLabel:  session.Shift.Label(),
		Area:        session.Area,
		Context:     Labels(session),
		StartedAt:   session.StartedAt,
		CompletedAt: session.CompletedAt,
		Rows:        rows,
		Stats:       Aggregate(statuses),
	}
}

// Labels decodes the context snapshot of a session, falling back to the
// area label when the snapshot is missing or unreadable.
func Labels(session Models.FormSession) Models.ContextLabels {
	var labels Models.ContextLabels
	if len(session.ContextLabels) > 0 {
		_ = json.Unmarshal(session.ContextLabels, &labels)
	}
	if labels.Area == "" {
		labels.Area = session.Area.Label()
	}
	return labels
}
