package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tickethub/internal/database"
	"github.com/example/tickethub/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      models.RoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createEvent(t *testing.T, db *gorm.DB, organizer models.User, price float64, capacity int) models.Event {
	t.Helper()
	event := models.Event{
		Name:        models.LocalizedText{En: "Cairo Jazz Night", Ar: "ليلة جاز القاهرة"},
		Date:        time.Now().Add(7 * 24 * time.Hour),
		Price:       price,
		Currency:    "egp",
		Capacity:    capacity,
		Status:      models.EventStatusActive,
		CreatedByID: organizer.ID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

type sentMessage struct {
	To   string
	Body string
}

type fakeWhatsApp struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeWhatsApp) SendWhatsApp(_ context.Context, phone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: phone, Body: body})
	return nil
}

func (f *fakeWhatsApp) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeGateway struct {
	mu        sync.Mutex
	sessions  map[string]*CheckoutSession
	requests  []CheckoutRequest
	refunds   []string
	amounts   []int64
	expired   []string
	createErr error
	refundErr error
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*CheckoutSession)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	s := &CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		Status:        SessionStatusOpen,
		PaymentStatus: SessionPaymentUnpaid,
		AmountTotal:   ToMinorUnits(req.UnitAmount, req.Currency) * int64(req.Quantity),
		Currency:      req.Currency,
		Metadata:      map[string]string{metadataBookingIDKey: req.BookingID.String()},
	}
	g.sessions[id] = s
	g.requests = append(g.requests, req)
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	copied := *s
	return &copied, nil
}

func (g *fakeGateway) Refund(_ context.Context, paymentIntentID string, amount int64) (*RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, paymentIntentID)
	g.amounts = append(g.amounts, amount)
	return &RefundResult{ID: "re_" + paymentIntentID, Status: "succeeded"}, nil
}

// ExpireCheckoutSession fails once the session is complete, as Stripe does.
func (g *fakeGateway) ExpireCheckoutSession(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[id]
	if !ok {
		return errors.New("no such checkout session")
	}
	if s.Status != SessionStatusOpen {
		return fmt.Errorf("checkout session %s is %s", id, s.Status)
	}
	s.Status = SessionStatusExpired
	g.expired = append(g.expired, id)
	return nil
}

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunds)
}

// pay marks a session as paid the way Stripe reports it after checkout.
func (g *fakeGateway) pay(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions[id]
	s.Status = SessionStatusComplete
	s.PaymentStatus = SessionPaymentPaid
	s.PaymentIntentID = "pi_" + id
	s.ChargeID = "ch_" + id
}

func (g *fakeGateway) expire(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Status = SessionStatusExpired
}

type fakeNotifier struct {
	paid    chan BookingNotification
	refunds chan BookingNotification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		paid:    make(chan BookingNotification, 4),
		refunds: make(chan BookingNotification, 4),
	}
}

func (n *fakeNotifier) NotifyBookingPaid(_ context.Context, b BookingNotification) error {
	n.paid <- b
	return nil
}

func (n *fakeNotifier) NotifyRefund(_ context.Context, b BookingNotification) error {
	n.refunds <- b
	return nil
}
