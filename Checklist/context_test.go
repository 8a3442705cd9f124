package Checklist

import (
	"context"
	"testing"
	"time"

	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	lines map[uuid.UUID]*Models.ProductionLine
	ops   map[uuid.UUID]*Models.Operation
}

func (c fakeCatalog) GetProductionLine(_ context.Context, id uuid.UUID) (*Models.ProductionLine, error) {
	if l, ok := c.lines[id]; ok {
		return l, nil
	}
	return nil, Store.ErrNotFound
}

func (c fakeCatalog) GetOperation(_ context.Context, id uuid.UUID) (*Models.Operation, error) {
	if o, ok := c.ops[id]; ok {
		return o, nil
	}
	return nil, Store.ErrNotFound
}

func newCatalog() (fakeCatalog, *Models.ProductionLine, *Models.Operation, *Models.ProductionLine) {
	press := &Models.ProductionLine{Area: Models.AreaStamping, LineNumber: 1, LineName: "Press Line 1"}
	press.ID = uuid.New()
	cell := &Models.ProductionLine{Area: Models.AreaWelding, LineNumber: 1, LineName: "Welding Cell A"}
	cell.ID = uuid.New()
	op := &Models.Operation{ProductionLineID: press.ID, OperationNumber: 20, OperationName: "Deep drawing"}
	op.ID = uuid.New()
	return fakeCatalog{
		lines: map[uuid.UUID]*Models.ProductionLine{press.ID: press, cell.ID: cell},
		ops:   map[uuid.UUID]*Models.Operation{op.ID: op},
	}, press, op, cell
}

func TestNextStep(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		ctx  WorkContext
		want Step
	}{
		{WorkContext{}, StepArea},
		{WorkContext{Area: Models.AreaStamping}, StepLine},
		{WorkContext{Area: Models.AreaStamping, ProductionLineID: &id}, StepOperation},
		{WorkContext{Area: Models.AreaStamping, ProductionLineID: &id, OperationID: &id}, StepShift},
		{WorkContext{Area: Models.AreaStamping, ProductionLineID: &id, OperationID: &id, Shift: Models.ShiftNight}, StepForm},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ctx.NextStep())
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	cat, press, op, cell := newCatalog()
	unknown := uuid.New()

	tests := []struct {
		name string
		wc   WorkContext
		step Step
		err  error
	}{
		{"bad area", WorkContext{Area: "paint"}, StepArea, ErrInvalidArea},
		{"line from other area", WorkContext{Area: Models.AreaStamping, ProductionLineID: &cell.ID}, StepLine, ErrInvalidLine},
		{"unknown line", WorkContext{Area: Models.AreaStamping, ProductionLineID: &unknown}, StepLine, ErrInvalidLine},
		{"operation from other line", WorkContext{Area: Models.AreaWelding, ProductionLineID: &cell.ID, OperationID: &op.ID}, StepOperation, ErrInvalidOperation},
		{"bad shift", WorkContext{Area: Models.AreaStamping, ProductionLineID: &press.ID, OperationID: &op.ID, Shift: "evening"}, StepShift, ErrInvalidShift},
		{"missing shift", WorkContext{Area: Models.AreaStamping, ProductionLineID: &press.ID, OperationID: &op.ID}, StepShift, ErrContextIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.wc.Resolve(ctx, cat)
			var gerr *GateError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.step, gerr.Step)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	wc := WorkContext{Area: Models.AreaStamping, ProductionLineID: &press.ID, OperationID: &op.ID, Shift: Models.ShiftNight}
	res, err := wc.Resolve(ctx, cat)
	require.NoError(t, err)

	user := uuid.New()
	ns := res.NewSession(user, time.Unix(0, 0))
	assert.Equal(t, user, ns.UserID)
	assert.Equal(t, Models.ShiftNight, ns.Shift)
	assert.Equal(t, Models.ContextLabels{Area: "Stamping", ProductionLine: "Press Line 1", Operation: "20 - Deep drawing"}, ns.Labels)
}

func TestCheckAllowsPartialContext(t *testing.T) {
	cat, press, _, _ := newCatalog()
	res, err := WorkContext{Area: Models.AreaStamping, ProductionLineID: &press.ID}.Check(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, "Press Line 1", res.Line.LineName)
	assert.Nil(t, res.Op)
}
