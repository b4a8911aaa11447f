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

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

type groupCount struct {
	GroupKey string
	Count    int64
}

// countBy groups rows of model by column and returns count per value.
func countBy(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []groupCount
	if err := db.Model(model).
		Select(column + " as group_key, count(*) as count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Count
	}
	return out, nil
}

// sumTransactions sums completed ledger rows of txType within scope.
func sumTransactions(scope *gorm.DB, txType string) (float64, error) {
	var total float64
	err := scope.Model(&models.Transaction{}).
		Where("transactions.type = ? AND transactions.status = ?", txType, models.TransactionCompleted).
		Select("COALESCE(SUM(transactions.amount), 0)").
		Scan(&total).Error
	return total, err
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	usersByRole, err := countBy(h.db, &models.User{}, "role")
	if err != nil {
		return err
	}
	eventsByStatus, err := countBy(h.db, &models.Event{}, "status")
	if err != nil {
		return err
	}
	bookingsByStatus, err := countBy(h.db, &models.Booking{}, "status")
	if err != nil {
		return err
	}

	gross, err := sumTransactions(h.db, models.TransactionPayment)
	if err != nil {
		return err
	}
	refunded, err := sumTransactions(h.db, models.TransactionRefund)
	if err != nil {
		return err
	}

	var totalUsers, totalEvents, totalBookings int64
	for _, n := range usersByRole {
		totalUsers += n
	}
	for _, n := range eventsByStatus {
		totalEvents += n
	}
	for _, n := range bookingsByStatus {
		totalBookings += n
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":        totalUsers,
			"total_events":       totalEvents,
			"total_bookings":     totalBookings,
			"users_by_role":      usersByRole,
			"events_by_status":   eventsByStatus,
			"bookings_by_status": bookingsByStatus,
			"gross_revenue":      gross,
			"refunded":           refunded,
			"net_revenue":        gross - refunded,
		},
	})
}

// ListAllUsers returns all registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like,
		)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole changes a user's role. Only a super-admin grants or revokes
// admin, and super-admins cannot be edited.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	target, err := h.manageableUser(c)
	if err != nil {
		return err
	}

	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
	}

	switch req.Role {
	case models.RoleUser, models.RoleOrganizer, models.RoleAdmin:
	default:
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidRole)
	}

	touchesAdmin := req.Role == models.RoleAdmin || target.Role == models.RoleAdmin
	if touchesAdmin && middleware.GetCurrentRole(c) != models.RoleSuperAdmin {
		return fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}

	if err := h.db.Model(target).Update("role", req.Role).Error; err != nil {
		return err
	}
	target.Role = req.Role

	return c.JSON(fiber.Map{"success": true, "data": target})
}

type blockUserRequest struct {
	Blocked *bool `json:"blocked"`
}

// ToggleBlock blocks or unblocks a user. Without a body the flag flips.
func (h *AdminHandler) ToggleBlock(c *fiber.Ctx) error {
	target, err := h.manageableUser(c)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin && middleware.GetCurrentRole(c) != models.RoleSuperAdmin {
		return fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}

	var req blockUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, utils.MsgInvalidBody)
		}
	}

	blocked := !target.IsBlocked
	if req.Blocked != nil {
		blocked = *req.Blocked
	}

	if err := h.db.Model(target).Update("is_blocked", blocked).Error; err != nil {
		return err
	}
	target.IsBlocked = blocked

	return c.JSON(fiber.Map{"success": true, "data": target})
}

// DeleteUser removes a user that has no active bookings.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	target, err := h.manageableUser(c)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin && middleware.GetCurrentRole(c) != models.RoleSuperAdmin {
		return fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}

	if err := deleteUser(c, h.db, target); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// manageableUser loads the :id user, refusing super-admins and the caller.
func (h *AdminHandler) manageableUser(c *fiber.Ctx) (*models.User, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}
	callerID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	if id == callerID {
		return nil, fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, utils.MsgUserNotFound)
		}
		return nil, err
	}
	if user.Role == models.RoleSuperAdmin {
		return nil, fail(c, fiber.StatusForbidden, utils.MsgForbidden)
	}
	return &user, nil
}

// OrganizerStats summarizes the caller's events, sales and followers.
func (h *AdminHandler) OrganizerStats(c *fiber.Ctx) error {
	organizerID, err := currentUserID(c)
	if err != nil {
		return err
	}

	owned := h.db.Where("created_by_id = ?", organizerID)

	eventsByStatus, err := countBy(owned, &models.Event{}, "status")
	if err != nil {
		return err
	}

	var sold struct {
		Tickets  int64
		Capacity int64
	}
	if err := h.db.Model(&models.Event{}).
		Where("created_by_id = ?", organizerID).
		Select("COALESCE(SUM(tickets_sold), 0) as tickets, COALESCE(SUM(capacity), 0) as capacity").
		Scan(&sold).Error; err != nil {
		return err
	}

	ownedTx := h.db.Joins("JOIN events ON events.id = transactions.event_id").
		Where("events.created_by_id = ?", organizerID)
	gross, err := sumTransactions(ownedTx, models.TransactionPayment)
	if err != nil {
		return err
	}
	ownedTx = h.db.Joins("JOIN events ON events.id = transactions.event_id").
		Where("events.created_by_id = ?", organizerID)
	refunded, err := sumTransactions(ownedTx, models.TransactionRefund)
	if err != nil {
		return err
	}

	var followers int64
	if err := h.db.Table("user_following").Where("organizer_id = ?", organizerID).Count(&followers).Error; err != nil {
		return err
	}

	var totalEvents int64
	for _, n := range eventsByStatus {
		totalEvents += n
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_events":     totalEvents,
			"events_by_status": eventsByStatus,
			"tickets_sold":     sold.Tickets,
			"total_capacity":   sold.Capacity,
			"gross_revenue":    gross,
			"refunded":         refunded,
			"net_revenue":      gross - refunded,
			"followers":        followers,
		},
	})
}
