package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/example/tickethub/internal/config"
	"github.com/example/tickethub/internal/handlers"
	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/models"
	"github.com/example/tickethub/internal/services"
	"github.com/example/tickethub/internal/utils"
)

// Dependencies carries the external integrations. Nil fields disable the
// matching feature.
type Dependencies struct {
	OTPStore services.OTPStore
	Payments services.PaymentGateway
	Email    services.EmailSender
	WhatsApp services.WhatsAppSender
	Media    services.MediaStore
	Notifier services.BookingNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	if deps.OTPStore == nil {
		deps.OTPStore = services.NewMemoryOTPStore()
	}

	phoneOTP := services.NewPhoneOTPService(db, deps.OTPStore, deps.WhatsApp, deps.Email, cfg.OTPSecret)
	twoFactor := services.NewTwoFactorService(deps.OTPStore, deps.WhatsApp, deps.Email, cfg.OTPSecret)
	bookingService := services.NewBookingService(db, deps.Payments, deps.Notifier, cfg.Currency, cfg.ClientURL)
	ledger := services.NewLedgerService(db)

	authHandler := handlers.NewAuthHandler(db, cfg, twoFactor)
	resetHandler := handlers.NewPasswordResetHandler(db, cfg, deps.Email)
	phoneHandler := handlers.NewPhoneHandler(db, phoneOTP)
	eventHandler := handlers.NewEventHandler(db, deps.Media, cfg.Currency)
	categoryHandler := handlers.NewCategoryHandler(db)
	bookingHandler := handlers.NewBookingHandler(db, bookingService)
	userHandler := handlers.NewUserHandler(db)
	transactionHandler := handlers.NewTransactionHandler(ledger)
	adminHandler := handlers.NewAdminHandler(db)

	auth := middleware.AuthMiddleware(cfg)
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	publishers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleOrganizer)

	// Code-sending endpoints share a per-IP budget.
	codeLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, utils.MsgTooManyRequests.In(middleware.Lang(c)))
		},
	})

	// Code-checking endpoints get their own budget on top of the per-code
	// attempt limit.
	verifyLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, utils.MsgTooManyRequests.In(middleware.Lang(c)))
		},
	})

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", codeLimiter, authHandler.Login)
	authGroup.Post("/verify-2fa", verifyLimiter, authHandler.VerifyTwoFactor)
	authGroup.Patch("/changePassword", auth, authHandler.ChangePassword)
	authGroup.Patch("/forgetCode", codeLimiter, resetHandler.ForgetCode)
	authGroup.Patch("/verifyCode", verifyLimiter, resetHandler.VerifyCode)
	authGroup.Patch("/resetPassword", resetHandler.ResetPassword)

	// Events
	events := api.Group("/event")
	events.Get("/", eventHandler.ListEvents)
	events.Get("/organizer/mine", auth, publishers, eventHandler.MyEvents)
	events.Get("/:id", eventHandler.GetEvent)
	events.Post("/", auth, publishers, eventHandler.CreateEvent)
	events.Patch("/:id", auth, publishers, eventHandler.UpdateEvent)
	events.Patch("/:id/status", auth, publishers, eventHandler.UpdateEventStatus)
	events.Delete("/:id", auth, publishers, eventHandler.DeleteEvent)

	// Categories
	categories := api.Group("/categories")
	categories.Get("/", categoryHandler.ListCategories)
	categories.Post("/", auth, publishers, categoryHandler.CreateCategory)
	categories.Get("/requests", auth, staff, categoryHandler.ListRequests)
	categories.Patch("/requests/:id", auth, staff, categoryHandler.ReviewRequest)
	categories.Patch("/:id", auth, staff, categoryHandler.UpdateCategory)
	categories.Delete("/:id", auth, staff, categoryHandler.DeleteCategory)

	// Booking and payment
	booking := api.Group("/booking")
	booking.Post("/webhook", middleware.StripeSignatureMiddleware(cfg.StripeWebhookSecret), bookingHandler.Webhook)
	booking.Post("/addBooking", auth, bookingHandler.AddBooking)
	booking.Post("/verify-session", auth, bookingHandler.VerifySession)
	booking.Get("/event/:eventId", auth, publishers, bookingHandler.EventBookings)
	booking.Get("/:id", auth, bookingHandler.GetBooking)
	booking.Get("/:id/qrcode", auth, bookingHandler.QRCode)
	booking.Patch("/:id/cancel", auth, bookingHandler.CancelBooking)

	// Current user
	user := api.Group("/user", auth)
	user.Get("/profile", userHandler.GetProfile)
	user.Patch("/profile", userHandler.UpdateProfile)
	user.Patch("/2fa", userHandler.UpdateTwoFactor)
	user.Delete("/account", userHandler.DeleteAccount)
	user.Get("/bookings", bookingHandler.ListMyBookings)
	user.Get("/wishlist", userHandler.ListWishlist)
	user.Post("/wishlist/:eventId", userHandler.ToggleWishlist)
	user.Get("/following", userHandler.ListFollowing)
	user.Post("/follow/:organizerId", userHandler.ToggleFollow)
	user.Post("/send-phone-otp", codeLimiter, phoneHandler.SendOTP)
	user.Post("/verify-phone-otp", verifyLimiter, phoneHandler.VerifyOTP)
	user.Get("/transactions", transactionHandler.ListMine)
	user.Get("/transactions/stats", transactionHandler.StatsMine)

	// Dashboards
	organizer := api.Group("/organizer", auth, middleware.RequireRoles(models.RoleOrganizer))
	organizer.Get("/stats", adminHandler.OrganizerStats)

	admin := api.Group("/admin", auth, staff)
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Patch("/users/:id/role", adminHandler.UpdateUserRole)
	admin.Patch("/users/:id/block", adminHandler.ToggleBlock)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Get("/transactions", transactionHandler.ListAll)
	admin.Get("/transactions/stats", transactionHandler.StatsAll)
}
