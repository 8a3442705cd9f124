package Controllers

import (
	"ShiftAudit/Checklist"
	"ShiftAudit/Models"
	"ShiftAudit/Store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogController serves the choices of the work context steps
type CatalogController struct {
	Catalog Store.Catalog
	Log     *zap.Logger
}

func NewCatalogController(catalog Store.Catalog, log *zap.Logger) *CatalogController {
	return &CatalogController{Catalog: catalog, Log: log}
}

// GetAreas lists the work areas
// GET /api/areas
func (cc *CatalogController) GetAreas(ctx *fiber.Ctx) error {
	areas := make([]fiber.Map, len(Models.Areas))
	for i, a := range Models.Areas {
		areas[i] = fiber.Map{"id": a, "name": a.Label(), "description": a.Description()}
	}
	return ctx.JSON(areas)
}

// GetShifts lists the shifts with their hours
// GET /api/shifts
func (cc *CatalogController) GetShifts(ctx *fiber.Ctx) error {
	shifts := make([]fiber.Map, len(Models.Shifts))
	for i, s := range Models.Shifts {
		shifts[i] = fiber.Map{"id": s, "name": s.Label(), "hours": s.Hours()}
	}
	return ctx.JSON(shifts)
}

// GetLines lists the production lines of an area
// GET /api/areas/:area/lines
func (cc *CatalogController) GetLines(ctx *fiber.Ctx) error {
	area := Models.Area(ctx.Params("area"))
	if !area.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown area"})
	}
	lines, err := cc.Catalog.ListProductionLines(ctx.UserContext(), area)
	if err != nil {
		return respondError(ctx, cc.Log, err)
	}
	return ctx.JSON(lines)
}

// GetOperations lists the operations of a production line
// GET /api/lines/:id/operations
func (cc *CatalogController) GetOperations(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid production line ID"})
	}
	if _, err := cc.Catalog.GetProductionLine(ctx.UserContext(), id); err != nil {
		return respondError(ctx, cc.Log, err)
	}
	ops, err := cc.Catalog.ListOperations(ctx.UserContext(), id)
	if err != nil {
		return respondError(ctx, cc.Log, err)
	}
	return ctx.JSON(ops)
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GetNextStep validates the selections made so far and names the next one
// GET /api/context/next?area=&line=&operation=&shift=
func (cc *CatalogController) GetNextStep(ctx *fiber.Ctx) error {
	lineID, err1 := optionalUUID(ctx.Query("line"))
	opID, err2 := optionalUUID(ctx.Query("operation"))
	if err1 != nil || err2 != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid line or operation ID"})
	}

	wc := Checklist.WorkContext{
		Area:             Models.Area(ctx.Query("area")),
		ProductionLineID: lineID,
		OperationID:      opID,
		Shift:            Models.Shift(ctx.Query("shift")),
	}
	res, err := wc.Check(ctx.UserContext(), cc.Catalog)
	if err != nil {
		return respondError(ctx, cc.Log, err)
	}
	return ctx.JSON(fiber.Map{
		"context":   wc,
		"next_step": wc.NextStep(),
		"labels":    res.Labels(),
	})
}
