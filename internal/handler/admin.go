package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-slot-reservation/internal/booking"
	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

// bulkTimeout bounds one bulk run; a full horizon touches thousands of keys.
const bulkTimeout = 60 * time.Second

type bulkReq struct {
	Venue       string   `json:"venue"`
	Area        string   `json:"area"`
	Days        []string `json:"days"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Action      string   `json:"action"`
	HorizonDays int      `json:"horizon_days"`
}

// BulkBlock handles POST /v1/admin/bulk-block.  An incomplete run answers
// 503 with the partial counts alongside the error.
func (h *BookingHandler) BulkBlock(c echo.Context) error {
	caller, ok, err := callerOrReject(c)
	if !ok {
		return err
	}
	var req bulkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	days, err := model.ParseWeekdaySet(req.Days)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	action, err := booking.ParseBlockAction(req.Action)
	if err != nil {
		return h.fail(c, "bulk block", err)
	}
	if req.HorizonDays < 0 || req.HorizonDays > 366 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "horizon_days must be between 0 and 366; 0 uses the configured default"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), bulkTimeout)
	defer cancel()
	res, err := h.Engine.ApplyBulk(ctx, booking.BulkRequest{
		Venue:       strings.TrimSpace(req.Venue),
		Area:        strings.TrimSpace(req.Area),
		Days:        days,
		From:        strings.TrimSpace(req.From),
		To:          strings.TrimSpace(req.To),
		Action:      action,
		HorizonDays: req.HorizonDays,
	}, caller)
	if errors.Is(err, booking.ErrBulkIncomplete) {
		h.Logger.Warn("bulk block incomplete", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": booking.ErrBulkIncomplete.Error(), "result": res})
	}
	if err != nil {
		return h.fail(c, "bulk block", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": res})
}
