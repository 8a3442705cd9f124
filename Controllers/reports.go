package Controllers

import (
	"errors"
	"fmt"
	"time"

	"ShiftAudit/Checklist"
	"ShiftAudit/Export"
	"ShiftAudit/Models"
	"ShiftAudit/Store"
	"ShiftAudit/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportController serves completed checklists and the history
type ReportController struct {
	Repo Store.Repository
	Log  *zap.Logger
	Now  func() time.Time
}

func NewReportController(repo Store.Repository, log *zap.Logger) *ReportController {
	return &ReportController{Repo: repo, Log: log, Now: time.Now}
}

var errNotComplete = errors.New("session is not complete yet")

// loadReport builds the report of a completed session owned by user.
func (rc *ReportController) loadReport(ctx *fiber.Ctx, sessionID uuid.UUID, user Models.User) (*Checklist.Report, error) {
	c := ctx.UserContext()
	session, err := rc.Repo.GetSession(c, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != user.ID {
		return nil, Checklist.ErrSessionNotFound
	}
	if !session.IsComplete {
		return nil, errNotComplete
	}
	answers, err := rc.Repo.ListAnswersWithQuestions(c, sessionID)
	if err != nil {
		return nil, err
	}
	responsible, err := responsibleName(c, rc.Repo, user)
	if err != nil {
		return nil, err
	}
	report := Checklist.BuildReport(*session, responsible, answers)
	return &report, nil
}

func (rc *ReportController) reportOrError(ctx *fiber.Ctx) (*Checklist.Report, error) {
	id, ok := sessionParam(ctx)
	if !ok {
		return nil, invalidSession(ctx)
	}
	user, _ := middleware.CurrentUser(ctx)
	report, err := rc.loadReport(ctx, id, user)
	if errors.Is(err, errNotComplete) {
		return nil, ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    "This checklist has not been submitted yet",
			"redirect": "/form/" + id.String(),
		})
	}
	if err != nil {
		return nil, respondError(ctx, rc.Log, err)
	}
	return report, nil
}

// GetReport returns the report with its stats
// GET /api/sessions/:id/report
func (rc *ReportController) GetReport(ctx *fiber.Ctx) error {
	report, err := rc.reportOrError(ctx)
	if report == nil {
		return err
	}
	return ctx.JSON(report)
}

// ViewReport renders the report page
// GET /api/sessions/:id/report/view
func (rc *ReportController) ViewReport(ctx *fiber.Ctx) error {
	report, err := rc.reportOrError(ctx)
	if report == nil {
		return err
	}
	completed := ""
	if report.CompletedAt != nil {
		completed = report.CompletedAt.Format("2006-01-02 15:04")
	}
	return ctx.Render("report", fiber.Map{
		"Report":    report,
		"Hours":     report.Shift.Hours(),
		"Completed": completed,
		"PDFURL":    fmt.Sprintf("/api/sessions/%s/report/pdf", report.SessionID),
	})
}

// DownloadPDF exports the report as a paginated PDF
// GET /api/sessions/:id/report/pdf
func (rc *ReportController) DownloadPDF(ctx *fiber.Ctx) error {
	report, err := rc.reportOrError(ctx)
	if report == nil {
		return err
	}

	doc, err := Export.PDF(*report, rc.Now())
	if errors.Is(err, Export.ErrReportTooLarge) {
		rc.Log.Warn("pdf export too large", zap.String("session_id", report.SessionID.String()), zap.Int("rows", len(report.Rows)))
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Report is too large to export as PDF"})
	}
	if err != nil {
		rc.Log.Error("pdf export failed", zap.String("session_id", report.SessionID.String()), zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate PDF"})
	}

	rc.Log.Info("pdf exported",
		zap.String("session_id", report.SessionID.String()),
		zap.Int("pages", doc.Pages),
		zap.Int("bytes", len(doc.Bytes)))

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	return ctx.Send(doc.Bytes)
}

func parseDay(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// historyFilter reads date_from, date_to, shift and area. "all" or an
// empty value means no filter.
func historyFilter(ctx *fiber.Ctx) (Store.HistoryFilter, error) {
	var f Store.HistoryFilter
	var err error
	if f.DateFrom, err = parseDay(ctx.Query("date_from")); err != nil {
		return f, fmt.Errorf("date_from must be in YYYY-MM-DD format")
	}
	if f.DateTo, err = parseDay(ctx.Query("date_to")); err != nil {
		return f, fmt.Errorf("date_to must be in YYYY-MM-DD format")
	}
	if s := ctx.Query("shift"); s != "" && s != "all" {
		f.Shift = Models.Shift(s)
		if !f.Shift.Valid() {
			return f, fmt.Errorf("unknown shift %q", s)
		}
	}
	if a := ctx.Query("area"); a != "" && a != "all" {
		f.Area = Models.Area(a)
		if !f.Area.Valid() {
			return f, fmt.Errorf("unknown area %q", a)
		}
	}
	return f, nil
}

type HistoryItem struct {
	ID          uuid.UUID            `json:"id"`
	Shift       Models.Shift         `json:"shift"`
	ShiftLabel  string               `json:"shift_label"`
	Area        Models.Area          `json:"area"`
	Context     Models.ContextLabels `json:"context"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at"`
}

func historyItem(s Models.FormSession) HistoryItem {
	return HistoryItem{
		ID:          s.ID,
		Shift:       s.Shift,
		ShiftLabel:  s.Shift.Label(),
		Area:        s.Area,
		Context:     Checklist.Labels(s),
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

// GetHistory lists the user's completed checklists, newest first
// GET /api/history
func (rc *ReportController) GetHistory(ctx *fiber.Ctx) error {
	filter, err := historyFilter(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	user, _ := middleware.CurrentUser(ctx)

	sessions, err := rc.Repo.ListCompletedSessions(ctx.UserContext(), user.ID, filter)
	if err != nil {
		return respondError(ctx, rc.Log, err)
	}
	items := make([]HistoryItem, len(sessions))
	for i, s := range sessions {
		items[i] = historyItem(s)
	}
	return ctx.JSON(items)
}

// ExportHistory downloads the filtered history as a workbook
// GET /api/history/export
func (rc *ReportController) ExportHistory(ctx *fiber.Ctx) error {
	filter, err := historyFilter(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	user, _ := middleware.CurrentUser(ctx)
	c := ctx.UserContext()

	sessions, err := rc.Repo.ListCompletedSessions(c, user.ID, filter)
	if err != nil {
		return respondError(ctx, rc.Log, err)
	}
	responsible, err := responsibleName(c, rc.Repo, user)
	if err != nil {
		return respondError(ctx, rc.Log, err)
	}

	reports := make([]Checklist.Report, len(sessions))
	for i, s := range sessions {
		answers, err := rc.Repo.ListAnswersWithQuestions(c, s.ID)
		if err != nil {
			return respondError(ctx, rc.Log, err)
		}
		reports[i] = Checklist.BuildReport(s, responsible, answers)
	}

	buf, err := Export.HistoryWorkbook(reports)
	if err != nil {
		rc.Log.Error("history export failed", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate workbook"})
	}

	filename := fmt.Sprintf("checklist-history-%s.xlsx", rc.Now().Format("2006-01-02"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.Send(buf.Bytes())
}

// GetNeedsReview lists sessions whose answers were saved but that never
// completed
// GET /api/history/needs-review
func (rc *ReportController) GetNeedsReview(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	sessions, err := rc.Repo.ListNeedsReview(ctx.UserContext(), user.ID)
	if err != nil {
		return respondError(ctx, rc.Log, err)
	}
	items := make([]HistoryItem, len(sessions))
	for i, s := range sessions {
		items[i] = historyItem(s)
	}
	return ctx.JSON(items)
}

// Success renders the confirmation page shown after a submission
// GET /success
func (rc *ReportController) Success(ctx *fiber.Ctx) error {
	data := fiber.Map{}
	if id, err := uuid.Parse(ctx.Query("session")); err == nil {
		data["SessionID"] = id.String()
	}
	return ctx.Render("success", data)
}
