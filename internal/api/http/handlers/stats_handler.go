package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/helpdesk-service/internal/service"
)

// StatsHandler serves staff dashboard rollups.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get GET /tickets/admin/statistics.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "dateFrom")
	if err != nil {
		return err
	}
	to, err := parseDateQuery(c, "dateTo")
	if err != nil {
		return err
	}

	stats, err := h.stats.Get(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
