package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

// EventHandler manages event endpoints.
type EventHandler struct {
	db       *gorm.DB
	media    services.MediaStore
	currency string
}

// NewEventHandler constructs EventHandler. media may be nil when uploads are
// not configured.
func NewEventHandler(db *gorm.DB, media services.MediaStore, currency string) *EventHandler {
	return &EventHandler{db: db, media: media, currency: currency}
}

// eventRequest is accepted as JSON or multipart form. Pointer fields keep
// partial updates apart from zero values.
type eventRequest struct {
	NameEn        *string  `json:"name_en" form:"name_en"`
	NameAr        *string  `json:"name_ar" form:"name_ar"`
	DescriptionEn *string  `json:"description_en" form:"description_en"`
	DescriptionAr *string  `json:"description_ar" form:"description_ar"`
	VenueEn       *string  `json:"venue_en" form:"venue_en"`
	VenueAr       *string  `json:"venue_ar" form:"venue_ar"`
	Date          *string  `json:"date" form:"date"`
	Price         *float64 `json:"price" form:"price"`
	Capacity      *int     `json:"capacity" form:"capacity"`
	CategoryID    *string  `json:"category_id" form:"category_id"`
	Status        *string  `json:"status" form:"status"`
}

func parseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// ListEvents returns events with pagination, search and filters.
func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Event{})

	switch status := c.Query("status", models.EventStatusActive); status {
	case "all":
	default:
		if !models.IsValidEventStatus(status) {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
		}
		query = query.Where("status = ?", status)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name_en) LIKE ? OR name_ar LIKE ?", like, "%"+search+"%")
	}

	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
		}
		query = query.Where("category_id = ?", id)
	}

	if raw := c.Query("organizer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
		}
		query = query.Where("created_by_id = ?", id)
	}

	if c.Query("upcoming") == "true" {
		query = query.Where("date >= ?", time.Now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var events []models.Event
	if err := query.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order asc")
	}).Preload("Category").
		Order("date asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&events).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       events,
		"pagination": pg.Meta(total),
	})
}

// GetEvent returns a single event with its images, category and organizer.
func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var event models.Event
	if err := h.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order asc")
	}).Preload("Category").
		Preload("CreatedBy").
		First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, utils.MsgEventNotFound)
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": event})
}

// MyEvents lists the events created by the caller.
func (h *EventHandler) MyEvents(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Event{}).Where("created_by_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var events []models.Event
	if err := query.Preload("Images").Preload("Category").
		Order("date desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&events).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       events,
		"pagination": pg.Meta(total),
	})
}

// CreateEvent creates an event owned by the caller. Images arrive as
// multipart files under "images".
func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	event := models.Event{
		Name:        models.LocalizedText{En: strValue(req.NameEn), Ar: strValue(req.NameAr)},
		Description: models.LocalizedText{En: strValue(req.DescriptionEn), Ar: strValue(req.DescriptionAr)},
		Venue:       models.LocalizedText{En: strValue(req.VenueEn), Ar: strValue(req.VenueAr)},
		Currency:    h.currency,
		Status:      models.EventStatusActive,
		CreatedByID: userID,
	}
	if event.Name.IsZero() {
		return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
	}

	if req.Date == nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidDate)
	}
	if event.Date, err = parseEventDate(*req.Date); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidDate)
	}

	if req.Price != nil {
		if *req.Price < 0 {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
		}
		event.Price = *req.Price
	}
	if req.Capacity == nil || *req.Capacity < 1 {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidQuantity)
	}
	event.Capacity = *req.Capacity

	if req.Status != nil && *req.Status != "" {
		if !models.IsValidEventStatus(*req.Status) {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
		}
		event.Status = *req.Status
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := h.approvedCategory(c, *req.CategoryID)
		if err != nil {
			return err
		}
		event.CategoryID = &categoryID
	}

	images, err := h.uploadImages(c, 0)
	if err != nil {
		return err
	}
	event.Images = images

	if err := h.db.Create(&event).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": event})
}

// UpdateEvent applies a partial update. New images are appended.
func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	updates := map[string]interface{}{}
	setText := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setText("name_en", req.NameEn)
	setText("name_ar", req.NameAr)
	setText("description_en", req.DescriptionEn)
	setText("description_ar", req.DescriptionAr)
	setText("venue_en", req.VenueEn)
	setText("venue_ar", req.VenueAr)

	nameEn, nameAr := event.Name.En, event.Name.Ar
	if req.NameEn != nil {
		nameEn = strValue(req.NameEn)
	}
	if req.NameAr != nil {
		nameAr = strValue(req.NameAr)
	}
	if (models.LocalizedText{En: nameEn, Ar: nameAr}).IsZero() {
		return fail(c, fiber.StatusBadRequest, utils.MsgNameRequired)
	}

	if req.Date != nil {
		date, err := parseEventDate(*req.Date)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidDate)
		}
		updates["date"] = date
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
		}
		updates["price"] = *req.Price
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 || *req.Capacity < event.TicketsSold {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidQuantity)
		}
		updates["capacity"] = *req.Capacity
	}
	if req.Status != nil {
		if !models.IsValidEventStatus(*req.Status) {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
		}
		updates["status"] = *req.Status
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			categoryID, err := h.approvedCategory(c, *req.CategoryID)
			if err != nil {
				return err
			}
			updates["category_id"] = categoryID
		}
	}

	images, err := h.uploadImages(c, len(event.Images))
	if err != nil {
		return err
	}

	if len(updates) == 0 && len(images) == 0 {
		return fail(c, fiber.StatusBadRequest, utils.MsgNoFieldsToUpdate)
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(event).Updates(updates).Error; err != nil {
				return err
			}
		}
		for i := range images {
			images[i].EventID = event.ID
		}
		if len(images) > 0 {
			return tx.Create(&images).Error
		}
		return nil
	}); err != nil {
		return err
	}

	var updated models.Event
	if err := h.db.Preload("Images").Preload("Category").First(&updated, "id = ?", event.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

type eventStatusRequest struct {
	Status string `json:"status"`
}

// UpdateEventStatus changes only the event status.
func (h *EventHandler) UpdateEventStatus(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return err
	}

	var req eventStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}
	if !models.IsValidEventStatus(req.Status) {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
	}

	if err := h.db.Model(event).Update("status", req.Status).Error; err != nil {
		return err
	}
	event.Status = req.Status

	return c.JSON(fiber.Map{"success": true, "data": event})
}

// DeleteEvent removes an event that has no active bookings.
func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return err
	}

	active, err := activeBookingCount(h.db, "event_id", event.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return fail(c, fiber.StatusConflict, utils.MsgActiveBookings)
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventImage{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_wishlist WHERE event_id = ?", event.ID).Error; err != nil {
			return err
		}
		// Soft delete: past bookings and ledger rows still reference the event.
		return tx.Delete(&models.Event{}, "id = ?", event.ID).Error
	}); err != nil {
		return err
	}

	if h.media != nil && len(event.Images) > 0 {
		images := event.Images
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			for _, img := range images {
				if err := h.media.Delete(ctx, img.URL); err != nil {
					log.Warn().Err(err).Str("url", img.URL).Msg("failed to delete event image")
				}
			}
		}()
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ownedEvent loads the :id event and checks the caller may manage it.
func (h *EventHandler) ownedEvent(c *fiber.Ctx) (*models.Event, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.Preload("Images").First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, utils.MsgEventNotFound)
		}
		return nil, err
	}

	if event.CreatedByID != userID && !isAdminRole(middleware.GetCurrentRole(c)) {
		return nil, fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}
	return &event, nil
}

func (h *EventHandler) approvedCategory(c *fiber.Ctx, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
	}

	var count int64
	if err := h.db.Model(&models.Category{}).
		Where("id = ? AND status = ?", id, models.CategoryApproved).
		Count(&count).Error; err != nil {
		return uuid.Nil, err
	}
	if count == 0 {
		return uuid.Nil, fail(c, fiber.StatusNotFound, utils.MsgCategoryNotFound)
	}
	return id, nil
}

// uploadImages pushes multipart "images" files to the media store. JSON
// requests carry no files and yield nothing.
func (h *EventHandler) uploadImages(c *fiber.Ctx, startOrder int) ([]models.EventImage, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	files := form.File["images"]
	if len(files) == 0 {
		return nil, nil
	}
	if h.media == nil {
		return nil, fail(c, fiber.StatusServiceUnavailable, utils.MsgUploadsDisabled)
	}

	images := make([]models.EventImage, 0, len(files))
	for i, fh := range files {
		file, err := fh.Open()
		if err != nil {
			return nil, err
		}
		url, err := h.media.Upload(c.UserContext(), file, services.EventImagesFolder)
		file.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, models.EventImage{URL: url, DisplayOrder: startOrder + i})
	}
	return images, nil
}
