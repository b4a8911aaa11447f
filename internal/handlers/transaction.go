package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

// TransactionHandler exposes the payment ledger.
type TransactionHandler struct {
	ledger *services.LedgerService
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(ledger *services.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

func (h *TransactionHandler) parseFilter(c *fiber.Ctx) (services.LedgerFilter, error) {
	var f services.LedgerFilter

	switch t := c.Query("type"); t {
	case "", models.TransactionPayment, models.TransactionRefund:
		f.Type = t
	default:
		return f, fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
	}

	switch s := c.Query("status"); s {
	case "", models.TransactionPending, models.TransactionCompleted, models.TransactionFailed:
		f.Status = s
	default:
		return f, fail(c, fiber.StatusBadRequest, utils.MsgInvalidStatus)
	}

	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
		}
		f.EventID = &id
	}

	return f, nil
}

// ListMine returns the caller's transactions.
func (h *TransactionHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	f.UserID = &userID

	return h.list(c, f)
}

// StatsMine aggregates the caller's transactions by type and status.
func (h *TransactionHandler) StatsMine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	f.UserID = &userID

	return h.stats(c, f)
}

// ListAll returns every transaction, optionally narrowed to one user.
func (h *TransactionHandler) ListAll(c *fiber.Ctx) error {
	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	if err := h.applyUserFilter(c, &f); err != nil {
		return err
	}
	return h.list(c, f)
}

// StatsAll aggregates the whole ledger.
func (h *TransactionHandler) StatsAll(c *fiber.Ctx) error {
	f, err := h.parseFilter(c)
	if err != nil {
		return err
	}
	if err := h.applyUserFilter(c, &f); err != nil {
		return err
	}
	return h.stats(c, f)
}

func (h *TransactionHandler) applyUserFilter(c *fiber.Ctx, f *services.LedgerFilter) error {
	raw := c.Query("user_id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, utils.MsgInvalidID)
	}
	f.UserID = &id
	return nil
}

func (h *TransactionHandler) list(c *fiber.Ctx, f services.LedgerFilter) error {
	pg := utils.ParsePagination(c)

	rows, total, err := h.ledger.List(c.UserContext(), f, pg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       rows,
		"pagination": pg.Meta(total),
	})
}

func (h *TransactionHandler) stats(c *fiber.Ctx, f services.LedgerFilter) error {
	stats, err := h.ledger.Stats(c.UserContext(), f)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
