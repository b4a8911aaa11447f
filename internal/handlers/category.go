package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/utils"
)

// CategoryHandler manages categories and the organizer request workflow.
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler constructs CategoryHandler.
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

type categoryRequest struct {
	NameEn string `json:"name_en"`
	NameAr string `json:"name_ar"`
}

func (r categoryRequest) name() models.LocalizedText {
	return models.LocalizedText{En: strings.TrimSpace(r.NameEn), Ar: strings.TrimSpace(r.NameAr)}
}

// ListCategories returns approved categories.
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.db.Where("status = ?", models.CategoryApproved).
		Order("name_en asc").
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// CreateCategory adds a category. Admins publish directly, organizers file a
// pending request.
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	category := models.Category{
		Name:        req.name(),
		Status:      models.CategoryPending,
		CreatedByID: userID,
	}
	if category.Name.IsZero() {
		return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
	}
	if isAdminRole(middleware.GetCurrentRole(c)) {
		category.Status = models.CategoryApproved
	}

	if err := h.db.Create(&category).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// ListRequests returns category requests, pending ones by default.
func (h *CategoryHandler) ListRequests(c *fiber.Ctx) error {
	status := c.Query("status", models.CategoryPending)
	switch status {
	case models.CategoryPending, models.CategoryApproved, models.CategoryRejected:
	default:
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Category{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var categories []models.Category
	if err := query.Order("created_at asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       categories,
		"pagination": pg.Meta(total),
	})
}

type reviewCategoryRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// ReviewRequest approves or rejects a category request.
func (h *CategoryHandler) ReviewRequest(c *fiber.Ctx) error {
	category, err := h.findCategory(c)
	if err != nil {
		return err
	}

	var req reviewCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	reason := ""
	switch req.Status {
	case models.CategoryApproved:
	case models.CategoryRejected:
		reason = strings.TrimSpace(req.RejectionReason)
	default:
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
	}

	if err := h.db.Model(category).Updates(map[string]interface{}{
		"status":           req.Status,
		"rejection_reason": reason,
	}).Error; err != nil {
		return err
	}
	category.Status = req.Status
	category.RejectionReason = reason

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory renames a category.
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	category, err := h.findCategory(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	name := req.name()
	if name.IsZero() {
		return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
	}

	if err := h.db.Model(category).Updates(map[string]interface{}{
		"name_en": name.En,
		"name_ar": name.Ar,
	}).Error; err != nil {
		return err
	}
	category.Name = name

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category no event references.
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	category, err := h.findCategory(c)
	if err != nil {
		return err
	}

	var inUse int64
	if err := h.db.Model(&models.Event{}).Where("category_id = ?", category.ID).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return fail(c, fiber.StatusConflict, utils.MsgCategoryInUse)
	}

	// Deleted events keep their row, so they let go of the category first.
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Event{}).
			Where("category_id = ? AND deleted_at IS NOT NULL", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", category.ID).Error
	}); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CategoryHandler) findCategory(c *fiber.Ctx) (*models.Category, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, utils.MsgCategoryNotFound)
		}
		return nil, err
	}
	return &category, nil
}
