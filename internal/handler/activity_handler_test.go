package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/handler"
	"github.com/noah-isme/ternak-go-api/internal/middleware"
	"github.com/noah-isme/ternak-go-api/internal/service"
)

type mockActivityService struct {
	lastList   dto.ActivityListRequest
	lastCreate dto.ActivityCreateRequest
	err        error
}

func (m *mockActivityService) Create(_ context.Context, _ uint, req dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	m.lastCreate = req
	return dto.ActivityResponse{ID: 10, ActivityType: req.ActivityType}, m.err
}

func (m *mockActivityService) List(_ context.Context, _ uint, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	m.lastList = req
	return dto.ActivityListResponse{Pagination: dto.PaginationMeta{Page: 1, PageSize: 20}}, m.err
}

func (m *mockActivityService) Update(context.Context, uint, uint, dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	return dto.ActivityResponse{}, m.err
}

func (m *mockActivityService) Delete(context.Context, uint, uint) error {
	return m.err
}

type stubBirthdays struct {
	created int
	err     error
	calls   int
}

func (s *stubBirthdays) GenerateBirthdayActivities(context.Context) (int, error) {
	s.calls++
	return s.created, s.err
}

func newActivityApp(svc service.ActivityService, birthdays service.BirthdayGenerator, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/activities", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalOwnerID, uint(2))
		return c.Next()
	})
	handler.NewActivityHandler(svc, birthdays, zerolog.New(io.Discard)).Register(group, guards...)
	return app
}

func TestActivityHandler_ListParsesFilters(t *testing.T) {
	svc := &mockActivityService{}
	app := newActivityApp(svc, &stubBirthdays{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/activities?animal_id=7&type=medical&automatic=false&pageSize=10", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, uint(7), svc.lastList.AnimalID)
	require.Equal(t, "medical", svc.lastList.ActivityType)
	require.NotNil(t, svc.lastList.Automatic)
	require.False(t, *svc.lastList.Automatic)
	require.Equal(t, 10, svc.lastList.PageSize)

	for _, query := range []string{"automatic=maybe", "animal_id=-1", "animal_id=x"} {
		bad, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/activities?"+query, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, bad.StatusCode, query)
	}
}

func TestActivityHandler_CreateAndReadOnly(t *testing.T) {
	svc := &mockActivityService{}
	app := newActivityApp(svc, &stubBirthdays{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/activities", map[string]interface{}{
		"animal_id":     7,
		"activity_type": "medical",
		"description":   "deworming",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastCreate.AnimalID)

	svc.err = service.ErrAutomaticActivityReadOnly
	patch, err := app.Test(jsonRequest(t, http.MethodPatch, "/api/v1/activities/3", map[string]string{"description": "x"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, patch.StatusCode)

	svc.err = service.ErrActivityNotFound
	del, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/activities/3", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, del.StatusCode)

	svc.err = service.ErrEmptyDescription
	empty, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/activities", map[string]interface{}{
		"animal_id":     7,
		"activity_type": "custom",
		"description":   "<b></b>",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, empty.StatusCode)
}

func TestActivityHandler_BirthdaySweep(t *testing.T) {
	birthdays := &stubBirthdays{created: 3}
	app := newActivityApp(&mockActivityService{}, birthdays)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/activities/birthdays", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.BirthdayRunResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, 3, body.Data.Created)
	require.False(t, body.Data.RanAt.IsZero())

	birthdays.err = errors.New("query failed")
	failed, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/activities/birthdays", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, failed.StatusCode)
}

func TestActivityHandler_BirthdaySweepGuards(t *testing.T) {
	birthdays := &stubBirthdays{}
	deny := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusForbidden) }
	app := newActivityApp(&mockActivityService{}, birthdays, deny)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/activities/birthdays", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Zero(t, birthdays.calls)

	list, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/activities", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, list.StatusCode)
}
