package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ternak-go-api/internal/dto"
	"github.com/noah-isme/ternak-go-api/internal/service"
	"github.com/noah-isme/ternak-go-api/internal/utils"
)

// AnimalHandler exposes animal registration and lookups.
type AnimalHandler struct {
	service service.AnimalService
	logger  zerolog.Logger
}

// NewAnimalHandler constructs the handler.
func NewAnimalHandler(service service.AnimalService, logger zerolog.Logger) *AnimalHandler {
	return &AnimalHandler{
		service: service,
		logger:  logger.With().Str("component", "animal_handler").Logger(),
	}
}

// Register attaches animal routes.
func (h *AnimalHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/family", h.family)
}

func (h *AnimalHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.AnimalListRequest{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := h.service.List(c.UserContext(), ownerIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list animals")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.OK(c, result.Items, "animals retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *AnimalHandler) create(c *fiber.Ctx) error {
	var payload dto.AnimalCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Create(c.UserContext(), ownerIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register animal")
	}

	return utils.SendCreated(c, "animal registered", result)
}

func (h *AnimalHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	animal, err := h.service.Get(c.UserContext(), ownerIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load animal")
	}

	return utils.SendSuccess(c, "animal retrieved", animal)
}

func (h *AnimalHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnimalUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	animal, err := h.service.Update(c.UserContext(), ownerIDFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update animal")
	}

	return utils.SendSuccess(c, "animal updated", animal)
}

func (h *AnimalHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), ownerIDFromContext(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete animal")
	}

	return utils.SendSuccess(c, "animal deleted", fiber.Map{"id": id})
}

func (h *AnimalHandler) family(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	depth, err := parseQueryInt(c, "depth")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid depth")
	}

	tree, err := h.service.Family(c.UserContext(), ownerIDFromContext(c), id, depth)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load family tree")
	}

	return utils.SendSuccess(c, "family tree retrieved", tree)
}
