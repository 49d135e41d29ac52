package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/service"
)

func listQueryFixture(t *testing.T) (*fiber.App, *service.TicketListInput) {
	t.Helper()
	app := fiber.New()
	var got service.TicketListInput
	app.Get("/tickets", func(c *fiber.Ctx) error {
		input, err := parseTicketListQuery(c)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		got = input
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &got
}

func TestParseTicketListQueryFilters(t *testing.T) {
	app, got := listQueryFixture(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet,
		"/tickets?createdBy=u1&assignedTo=a1&status=Open&myTickets=true&limit=500&sortOrder=asc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, "u1", *got.CreatedBy)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "a1", *got.AssignedTo)
	require.NotNil(t, got.Status)
	assert.Equal(t, domain.TicketStatusOpen, *got.Status)
	assert.True(t, got.Mine)
	assert.Equal(t, 100, got.PageSize)
	assert.False(t, got.SortDesc)
}

func TestParseTicketListQueryDefaultsAndRejections(t *testing.T) {
	app, got := listQueryFixture(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/tickets", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, got.CreatedBy)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 10, got.PageSize)
	assert.True(t, got.SortDesc)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/tickets?status=Pending", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/tickets?dateFrom=not-a-date", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
