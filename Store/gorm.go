package Store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"ShiftAudit/Models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAlreadyComplete = errors.New("session already complete")

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormRepository) ListQuestions(ctx context.Context) ([]Models.Question, error) {
	var questions []Models.Question
	if err := r.db.WithContext(ctx).Order("question_number ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *GormRepository) CreateSession(ctx context.Context, s NewSession) (*Models.FormSession, error) {
	labels, err := json.Marshal(s.Labels)
	if err != nil {
		return nil, fmt.Errorf("encoding context labels: %w", err)
	}
	startedAt := s.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	session := &Models.FormSession{
		UserID:           s.UserID,
		Shift:            s.Shift,
		Area:             s.Area,
		ProductionLineID: s.ProductionLineID,
		OperationID:      s.OperationID,
		StartedAt:        startedAt,
		ContextLabels:    datatypes.JSON(labels),
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *GormRepository) GetSession(ctx context.Context, id uuid.UUID) (*Models.FormSession, error) {
	var session Models.FormSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

// InsertAnswers writes every record in one transaction. Rows left behind by
// an earlier submission whose completion failed are replaced, so a retry
// does not trip the (session, question) unique index. A session that is
// already complete keeps its answers and ErrAlreadyComplete is returned.
func (r *GormRepository) InsertAnswers(ctx context.Context, sessionID uuid.UUID, records []AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	answers := make([]Models.Answer, len(records))
	for i, rec := range records {
		answers[i] = Models.Answer{
			FormSessionID: sessionID,
			QuestionID:    rec.QuestionID,
			Status:        rec.Status,
			AnsweredAt:    now,
		}
		if rec.Status == Models.StatusNOK {
			j := rec.Justification
			answers[i].Justification = &j
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session Models.FormSession
		q := tx.Select("id", "is_complete")
		// sqlite serialises writers on its own and has no FOR UPDATE
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&session, "id = ?", sessionID).Error; err != nil {
			return notFound(err)
		}
		if session.IsComplete {
			return ErrAlreadyComplete
		}

		if err := tx.Where("form_session_id = ?", sessionID).Delete(&Models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&answers).Error
	})
}

func (r *GormRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&Models.FormSession{}).
		Where("id = ? AND is_complete = ?", sessionID, false).
		Updates(map[string]interface{}{
			"is_complete":  true,
			"completed_at": completedAt,
			"needs_review": false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return err
	}
	return ErrAlreadyComplete
}

func (r *GormRepository) ListCompletedSessions(ctx context.Context, userID uuid.UUID, f HistoryFilter) ([]Models.FormSession, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND is_complete = ?", userID, true)

	if f.DateFrom != nil {
		y, m, d := f.DateFrom.Date()
		query = query.Where("completed_at >= ?", time.Date(y, m, d, 0, 0, 0, 0, f.DateFrom.Location()))
	}
	if f.DateTo != nil {
		y, m, d := f.DateTo.Date()
		query = query.Where("completed_at <= ?", time.Date(y, m, d, 23, 59, 59, 999999999, f.DateTo.Location()))
	}
	if f.Shift != "" {
		query = query.Where("shift = ?", f.Shift)
	}
	if f.Area != "" {
		query = query.Where("area = ?", f.Area)
	}

	var sessions []Models.FormSession
	if err := query.Order("completed_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *GormRepository) ListAnswersWithQuestions(ctx context.Context, sessionID uuid.UUID) ([]Models.Answer, error) {
	var answers []Models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Where("form_session_id = ?", sessionID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Question.Number < answers[j].Question.Number
	})
	return answers, nil
}

// Catalog

func (r *GormRepository) ListProductionLines(ctx context.Context, area Models.Area) ([]Models.ProductionLine, error) {
	var lines []Models.ProductionLine
	if err := r.db.WithContext(ctx).
		Where("area = ?", area).
		Order("line_number ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepository) GetProductionLine(ctx context.Context, id uuid.UUID) (*Models.ProductionLine, error) {
	var line Models.ProductionLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &line, nil
}

func (r *GormRepository) ListOperations(ctx context.Context, lineID uuid.UUID) ([]Models.Operation, error) {
	var ops []Models.Operation
	if err := r.db.WithContext(ctx).
		Where("production_line_id = ?", lineID).
		Order("operation_number ASC").
		Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *GormRepository) GetOperation(ctx context.Context, id uuid.UUID) (*Models.Operation, error) {
	var op Models.Operation
	if err := r.db.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &op, nil
}

// Accounts

func (r *GormRepository) CreateUser(ctx context.Context, email string, passwordHash []byte, fullName string) (*Models.User, error) {
	user := &Models.User{Email: email, PasswordHash: passwordHash}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&Models.Profile{UserID: user.ID, FullName: fullName}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (*Models.User, error) {
	var user Models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepository) GetUser(ctx context.Context, id uuid.UUID) (*Models.User, error) {
	var user Models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*Models.Profile, error) {
	var profile Models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *GormRepository) CreateLoginSession(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*Models.LoginSession, error) {
	ls := &Models.LoginSession{UserID: userID, ExpiresAt: expiresAt}
	if err := r.db.WithContext(ctx).Create(ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

func (r *GormRepository) GetLoginSession(ctx context.Context, id uuid.UUID) (*Models.LoginSession, error) {
	var ls Models.LoginSession
	if err := r.db.WithContext(ctx).First(&ls, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ls, nil
}

func (r *GormRepository) DeleteLoginSession(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Models.LoginSession{}, "id = ?", id).Error
}

// Orphans

// ListOrphanedSessions returns incomplete sessions that have answers, none
// of them saved at or after answeredBefore.
func (r *GormRepository) ListOrphanedSessions(ctx context.Context, answeredBefore time.Time) ([]OrphanedSession, error) {
	var sessions []Models.FormSession
	if err := r.db.WithContext(ctx).
		Where("is_complete = ?", false).
		Where("EXISTS (SELECT 1 FROM answers WHERE answers.form_session_id = form_sessions.id)").
		Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.form_session_id = form_sessions.id AND answers.answered_at >= ?)", answeredBefore).
		Order("started_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	var answers []Models.Answer
	if err := r.db.WithContext(ctx).
		Select("form_session_id", "answered_at").
		Where("form_session_id IN ?", ids).
		Find(&answers).Error; err != nil {
		return nil, err
	}

	type agg struct {
		count int
		last  time.Time
	}
	byID := make(map[uuid.UUID]*agg, len(sessions))
	for _, a := range answers {
		g, ok := byID[a.FormSessionID]
		if !ok {
			g = &agg{}
			byID[a.FormSessionID] = g
		}
		g.count++
		if a.AnsweredAt.After(g.last) {
			g.last = a.AnsweredAt
		}
	}

	orphans := make([]OrphanedSession, 0, len(sessions))
	for _, s := range sessions {
		g := byID[s.ID]
		if g == nil || !g.last.Before(answeredBefore) {
			continue
		}
		orphans = append(orphans, OrphanedSession{Session: s, AnswerCount: g.count, LastAnswerAt: g.last})
	}
	return orphans, nil
}

func (r *GormRepository) MarkNeedsReview(ctx context.Context, sessionID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Models.FormSession{}).
		Where("id = ? AND is_complete = ?", sessionID, false).
		Update("needs_review", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) ListNeedsReview(ctx context.Context, userID uuid.UUID) ([]Models.FormSession, error) {
	var sessions []Models.FormSession
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_complete = ? AND needs_review = ?", userID, false, true).
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
