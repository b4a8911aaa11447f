package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/utils"
)

// LedgerService answers read queries over the transaction ledger.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// LedgerFilter narrows ledger queries. Zero values match everything.
type LedgerFilter struct {
	UserID  *uuid.UUID
	EventID *uuid.UUID
	Type    string
	Status  string
}

func (s *LedgerService) scope(ctx context.Context, f LedgerFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.EventID != nil {
		q = q.Where("event_id = ?", *f.EventID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// List returns one page of transactions, newest first, with the total count.
func (s *LedgerService) List(ctx context.Context, f LedgerFilter, pg utils.Pagination) ([]models.Transaction, int64, error) {
	var total int64
	if err := s.scope(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	if err := s.scope(ctx, f).
		Preload("Event", models.IncludeDeleted).
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// StatsBucket is one {type, status} group of the ledger.
type StatsBucket struct {
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// StatusSummary aggregates a type's rows in one status.
type StatusSummary struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// TypeSummary aggregates every row of one transaction type.
type TypeSummary struct {
	Count       int64                    `json:"count"`
	TotalAmount float64                  `json:"total_amount"`
	ByStatus    map[string]StatusSummary `json:"by_status"`
}

// TransactionStats is the folded result of the ledger aggregation.
type TransactionStats struct {
	Buckets           []StatsBucket          `json:"buckets"`
	ByType            map[string]TypeSummary `json:"by_type"`
	TotalCount        int64                  `json:"total_count"`
	CompletedPayments float64                `json:"completed_payments"`
	CompletedRefunds  float64                `json:"completed_refunds"`
	NetRevenue        float64                `json:"net_revenue"`
}

// Stats groups matching transactions by type and status in a single query.
func (s *LedgerService) Stats(ctx context.Context, f LedgerFilter) (*TransactionStats, error) {
	var rows []StatsBucket
	if err := s.scope(ctx, f).
		Select("type, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount").
		Group("type, status").
		Order("type, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return SummarizeTransactions(rows), nil
}

// SummarizeTransactions folds {type, status} buckets into per-type totals.
func SummarizeTransactions(rows []StatsBucket) *TransactionStats {
	stats := &TransactionStats{
		Buckets: rows,
		ByType:  make(map[string]TypeSummary),
	}
	if stats.Buckets == nil {
		stats.Buckets = []StatsBucket{}
	}

	for _, r := range rows {
		ts := stats.ByType[r.Type]
		if ts.ByStatus == nil {
			ts.ByStatus = make(map[string]StatusSummary)
		}
		ts.Count += r.Count
		ts.TotalAmount += r.TotalAmount

		ss := ts.ByStatus[r.Status]
		ss.Count += r.Count
		ss.TotalAmount += r.TotalAmount
		ts.ByStatus[r.Status] = ss
		stats.ByType[r.Type] = ts

		stats.TotalCount += r.Count
		if r.Status == models.TransactionCompleted {
			switch r.Type {
			case models.TransactionPayment:
				stats.CompletedPayments += r.TotalAmount
			case models.TransactionRefund:
				stats.CompletedRefunds += r.TotalAmount
			}
		}
	}

	stats.NetRevenue = stats.CompletedPayments - stats.CompletedRefunds
	return stats
}
