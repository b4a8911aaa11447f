package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/utils"
)

// seedLedger writes five ledger rows for user on a fresh event and returns
// that event's id.
func seedLedger(t *testing.T, svc *LedgerService, user models.User) uuid.UUID {
	t.Helper()

	event := createEvent(t, svc.db, user, 100, 50)

	rows := []models.Transaction{
		{Type: models.TransactionPayment, Status: models.TransactionCompleted, Amount: 300},
		{Type: models.TransactionPayment, Status: models.TransactionCompleted, Amount: 200},
		{Type: models.TransactionPayment, Status: models.TransactionFailed, Amount: 150},
		{Type: models.TransactionPayment, Status: models.TransactionPending, Amount: 100},
		{Type: models.TransactionRefund, Status: models.TransactionCompleted, Amount: 200},
	}
	for i := range rows {
		booking := models.Booking{
			UserID:        user.ID,
			EventID:       event.ID,
			Quantity:      1,
			TotalAmount:   rows[i].Amount,
			Currency:      "egp",
			Status:        models.BookingPending,
			PaymentStatus: models.PaymentPending,
		}
		if err := svc.db.Create(&booking).Error; err != nil {
			t.Fatalf("seed booking: %v", err)
		}

		rows[i].UserID = user.ID
		rows[i].EventID = event.ID
		rows[i].BookingID = booking.ID
		rows[i].Currency = "egp"
		if err := svc.db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	return event.ID
}

func TestLedgerStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	ctx := context.Background()

	buyer := createUser(t, db, "buyer@example.com")
	seedLedger(t, svc, buyer)
	seedLedger(t, svc, createUser(t, db, "other@example.com"))

	stats, err := svc.Stats(ctx, LedgerFilter{UserID: &buyer.ID})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalCount != 5 {
		t.Errorf("TotalCount = %d, want 5", stats.TotalCount)
	}
	if len(stats.Buckets) != 4 {
		t.Errorf("buckets = %d, want 4", len(stats.Buckets))
	}
	payments := stats.ByType[models.TransactionPayment]
	if payments.Count != 4 || payments.TotalAmount != 750 {
		t.Errorf("payments = %+v", payments)
	}
	if got := payments.ByStatus[models.TransactionCompleted]; got.Count != 2 || got.TotalAmount != 500 {
		t.Errorf("completed payments = %+v", got)
	}
	if stats.CompletedPayments != 500 || stats.CompletedRefunds != 200 || stats.NetRevenue != 300 {
		t.Errorf("revenue = %v - %v = %v", stats.CompletedPayments, stats.CompletedRefunds, stats.NetRevenue)
	}

	all, err := svc.Stats(ctx, LedgerFilter{})
	if err != nil {
		t.Fatalf("Stats all: %v", err)
	}
	if all.TotalCount != 10 || all.NetRevenue != 600 {
		t.Errorf("all stats count=%d net=%v", all.TotalCount, all.NetRevenue)
	}

	refunds, err := svc.Stats(ctx, LedgerFilter{Type: models.TransactionRefund})
	if err != nil {
		t.Fatalf("Stats refunds: %v", err)
	}
	if refunds.TotalCount != 2 || refunds.CompletedPayments != 0 {
		t.Errorf("refund stats = %+v", refunds)
	}
}

func TestLedgerList(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	ctx := context.Background()

	event := seedLedger(t, svc, createUser(t, db, "buyer@example.com"))
	seedLedger(t, svc, createUser(t, db, "other@example.com"))

	txns, total, err := svc.List(ctx, LedgerFilter{EventID: &event, Status: models.TransactionCompleted}, utils.Pagination{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(txns) != 2 {
		t.Errorf("page size = %d, want 2", len(txns))
	}
	for _, txn := range txns {
		if txn.EventID != event || txn.Status != models.TransactionCompleted {
			t.Errorf("unexpected row %+v", txn)
		}
	}

	_, total, err = svc.List(ctx, LedgerFilter{}, utils.Pagination{Page: 3, Limit: 4, Offset: 8})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
}

func TestSummarizeTransactionsEmpty(t *testing.T) {
	stats := SummarizeTransactions(nil)
	if stats.Buckets == nil || len(stats.ByType) != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if stats.NetRevenue != 0 || stats.TotalCount != 0 {
		t.Errorf("empty totals = %+v", stats)
	}
}
