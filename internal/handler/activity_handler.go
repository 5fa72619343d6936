package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/service"
	"github.com/noah-isme/ternak-go-api/internal/utils"
)

// ActivityHandler exposes the activity log and the birthday sweep trigger.
type ActivityHandler struct {
	service   service.ActivityService
	birthdays service.BirthdayGenerator
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, birthdays service.BirthdayGenerator, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		birthdays: birthdays,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity routes. The guards protect the birthday sweep.
func (h *ActivityHandler) Register(router fiber.Router, sweepGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)

	handlers := append(append([]fiber.Handler{}, sweepGuards...), h.generateBirthdays)
	router.Post("/birthdays", handlers...)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	animalID, err := parseQueryInt(c, "animal_id")
	if err != nil || animalID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid animal_id")
	}
	automatic, err := parseQueryBool(c, "automatic")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid automatic flag")
	}

	req := dto.ActivityListRequest{
		AnimalID:     uint(animalID),
		ActivityType: c.Query("type"),
		Automatic:    automatic,
		Page:         page,
		PageSize:     pageSize,
	}

	result, err := h.service.List(c.UserContext(), ownerIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}

	return utils.OK(c, result.Items, "activities retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Create(c.UserContext(), ownerIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to record activity")
	}

	return utils.SendCreated(c, "activity recorded", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.service.Update(c.UserContext(), ownerIDFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), ownerIDFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete activity")
	}

	return utils.SendSuccess(c, "activity deleted", fiber.Map{"id": id})
}

func (h *ActivityHandler) generateBirthdays(c *fiber.Ctx) error {
	created, err := h.birthdays.GenerateBirthdayActivities(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate birthday activities")
	}

	requestLogger(h.logger, c).Info().Int("created", created).Msg("birthday sweep triggered")

	return utils.SendSuccess(c, "birthday activities generated", dto.BirthdayRunResponse{
		Created: created,
		RanAt:   time.Now().UTC(),
	})
}
