package Checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/google/uuid"
)

type Step string

const (
	StepArea      Step = "area"
	StepLine      Step = "line"
	StepOperation Step = "operation"
	StepShift     Step = "shift"
	StepForm      Step = "form"
)

var (
	ErrInvalidArea       = errors.New("unknown area")
	ErrInvalidLine       = errors.New("production line does not belong to the selected area")
	ErrInvalidOperation  = errors.New("operation does not belong to the selected production line")
	ErrInvalidShift      = errors.New("unknown shift")
	ErrContextIncomplete = errors.New("work context is incomplete")
)

// GateError reports the step whose value was rejected.
type GateError struct {
	Step Step
	Err  error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *GateError) Unwrap() error {
	return e.Err
}

// Catalog is the lookup the gates use to check the line and operation.
type Catalog interface {
	GetProductionLine(ctx context.Context, id uuid.UUID) (*Models.ProductionLine, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*Models.Operation, error)
}

// WorkContext accumulates the selections made before a checklist starts:
// area, then line, then operation, then shift.
type WorkContext struct {
	Area             Models.Area  `json:"area"`
	ProductionLineID *uuid.UUID   `json:"production_line_id,omitempty"`
	OperationID      *uuid.UUID   `json:"operation_id,omitempty"`
	Shift            Models.Shift `json:"shift"`
}

// NextStep is the first step still missing a value.
func (w WorkContext) NextStep() Step {
	switch {
	case w.Area == "":
		return StepArea
	case w.ProductionLineID == nil:
		return StepLine
	case w.OperationID == nil:
		return StepOperation
	case w.Shift == "":
		return StepShift
	}
	return StepForm
}

// Resolved is a work context whose every gate passed.
type Resolved struct {
	Context WorkContext
	Line    *Models.ProductionLine
	Op      *Models.Operation
}

func (r Resolved) Labels() Models.ContextLabels {
	labels := Models.ContextLabels{Area: r.Context.Area.Label()}
	if r.Line != nil {
		labels.ProductionLine = r.Line.LineName
	}
	if r.Op != nil {
		labels.Operation = fmt.Sprintf("%d - %s", r.Op.OperationNumber, r.Op.OperationName)
	}
	return labels
}

// NewSession turns the resolved context into the fields of a new session.
func (r Resolved) NewSession(userID uuid.UUID, startedAt time.Time) Store.NewSession {
	return Store.NewSession{
		UserID:           userID,
		Shift:            r.Context.Shift,
		Area:             r.Context.Area,
		ProductionLineID: r.Context.ProductionLineID,
		OperationID:      r.Context.OperationID,
		Labels:           r.Labels(),
		StartedAt:        startedAt,
	}
}

// Check runs the gates of every filled step in order and stops at the first
// rejection. Unfilled steps are not an error; use Resolve to require all.
func (w WorkContext) Check(ctx context.Context, cat Catalog) (Resolved, error) {
	res := Resolved{Context: w}

	if w.Area == "" {
		return res, nil
	}
	if !w.Area.Valid() {
		return res, &GateError{Step: StepArea, Err: ErrInvalidArea}
	}

	if w.ProductionLineID == nil {
		return res, nil
	}
	line, err := cat.GetProductionLine(ctx, *w.ProductionLineID)
	if errors.Is(err, Store.ErrNotFound) || (err == nil && line.Area != w.Area) {
		return res, &GateError{Step: StepLine, Err: ErrInvalidLine}
	}
	if err != nil {
		return res, err
	}
	res.Line = line

	if w.OperationID == nil {
		return res, nil
	}
	op, err := cat.GetOperation(ctx, *w.OperationID)
	if errors.Is(err, Store.ErrNotFound) || (err == nil && op.ProductionLineID != line.ID) {
		return res, &GateError{Step: StepOperation, Err: ErrInvalidOperation}
	}
	if err != nil {
		return res, err
	}
	res.Op = op

	if w.Shift != "" && !w.Shift.Valid() {
		return res, &GateError{Step: StepShift, Err: ErrInvalidShift}
	}
	return res, nil
}

// Resolve requires every step to be filled and to pass its gate.
func (w WorkContext) Resolve(ctx context.Context, cat Catalog) (Resolved, error) {
	res, err := w.Check(ctx, cat)
	if err != nil {
		return res, err
	}
	if step := w.NextStep(); step != StepForm {
		return res, &GateError{Step: step, Err: ErrContextIncomplete}
	}
	return res, nil
}
