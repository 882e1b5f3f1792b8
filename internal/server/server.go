package server

import (
	"context"
	"net/http"

	"toonlord/internal/analytics"
	"toonlord/internal/auth"
	"toonlord/internal/chapter"
	"toonlord/internal/comment"
	"toonlord/internal/config"
	"toonlord/internal/email"
	"toonlord/internal/ledger"
	"toonlord/internal/library"
	"toonlord/internal/manga"
	"toonlord/internal/notification"
	"toonlord/internal/payment"
	"toonlord/internal/premium"
	"toonlord/internal/report"
	"toonlord/internal/user"
	"toonlord/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, emailService *email.Service, notifications *notification.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	walletStore := wallet.NewStore(db)
	walletLog := wallet.NewLog(db)

	userRepo := user.NewRepository(db)
	otpStore := user.NewOTPStore(rdb)
	userService := user.NewService(userRepo, otpStore, emailService, cfg.JWTSecret)
	userHandler := user.NewHandler(userService)

	mangaRepo := manga.NewRepository(db)
	mangaHandler := manga.NewHandler(mangaRepo)

	engine := ledger.NewEngine(db, walletStore, walletLog, mangaRepo, userRepo, notifications, cfg.PlatformUserID)
	ledgerHandler := ledger.NewHandler(engine, walletLog, walletStore)
	walletHandler := wallet.NewHandler(walletStore, walletLog)

	provider := payment.NewProvider(cfg.PaymentAPIKey, cfg.PaymentBaseURL, cfg.PaymentSuccessURL, cfg.PaymentCancelURL)
	bridge := payment.NewBridge(provider, engine, userRepo)
	paymentHandler := payment.NewHandler(bridge)

	libraryRepo := library.NewRepository(db)
	libraryHandler := library.NewHandler(libraryRepo)

	chapterRepo := chapter.NewRepository(db)
	chapterHandler := chapter.NewHandler(chapterRepo, mangaRepo, walletStore, libraryRepo, notifications)

	commentRepo := comment.NewRepository(db)
	commentHandler := comment.NewHandler(commentRepo)

	notificationHandler := notification.NewHandler(notification.NewRepository(db))

	reportHandler := report.NewHandler(report.NewRepository(db))
	analyticsHandler := analytics.NewHandler(analytics.NewRepository(db))
	premiumHandler := premium.NewHandler(premium.NewRepository(db), notifications)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	// Reads work for guests too; a valid token upgrades access to owned
	// premium chapters.
	browse := router.Group("/")
	browse.Use(auth.OptionalAuthMiddleware(cfg.JWTSecret))
	{
		browse.GET("/manga", mangaHandler.List)
		browse.GET("/manga/:mangaID", mangaHandler.Get)
		browse.GET("/manga/:mangaID/chapters", chapterHandler.List)
		browse.GET("/manga/:mangaID/chapters/:chapterNum", chapterHandler.GetContent)
		browse.GET("/comments/:targetID", commentHandler.List)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me", userHandler.UpdateProfile)
		protected.POST("/auth/verify-email", userHandler.VerifyEmail)
		protected.POST("/auth/resend-otp", userHandler.ResendOTP)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/wallet/unlocks", walletHandler.ListUnlocks)

		protected.POST("/manga", mangaHandler.Create)
		protected.PUT("/manga/:mangaID", mangaHandler.Update)
		protected.DELETE("/manga/:mangaID", mangaHandler.Delete)
		protected.POST("/manga/:mangaID/chapters", chapterHandler.Upload)
		protected.PUT("/manga/:mangaID/chapters/:chapterID", chapterHandler.Edit)
		protected.DELETE("/manga/:mangaID/chapters/:chapterID", chapterHandler.Delete)

		protected.POST("/manga/:mangaID/unlock", ledgerHandler.Unlock)
		protected.POST("/rewards/ad", ledgerHandler.RewardAd)

		protected.POST("/payments/checkout", paymentHandler.CreateCheckout)
		protected.GET("/payments/verify/:sessionID", paymentHandler.VerifyPayment)

		protected.POST("/library", libraryHandler.Update)
		protected.GET("/library", libraryHandler.List)
		protected.DELETE("/library/:mangaID", libraryHandler.Remove)
		protected.POST("/library/progress", libraryHandler.RecordProgress)

		protected.POST("/comments", commentHandler.Post)
		protected.POST("/comments/:id/vote", commentHandler.Vote)
		protected.DELETE("/comments/:id", commentHandler.Delete)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/read", notificationHandler.MarkRead)

		protected.POST("/reports", reportHandler.Create)

		protected.POST("/analytics/heartbeat", analyticsHandler.SyncHeartbeat)
		protected.GET("/analytics/reading", analyticsHandler.ReadingOverview)

		protected.GET("/creator/manga", mangaHandler.ListOwn)
		protected.POST("/creator/payouts", ledgerHandler.RequestPayout)
		protected.GET("/creator/earnings", ledgerHandler.ListEarnings)
		protected.POST("/creator/manga/:mangaID/premium-request", premiumHandler.Create)
		protected.GET("/creator/premium-requests", premiumHandler.ListOwn)
		protected.POST("/creator/premium-requests/:id/respond", premiumHandler.Respond)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/transactions/:id/refund", ledgerHandler.Refund)
		admin.GET("/payouts", ledgerHandler.ListPendingPayouts)
		admin.POST("/payouts/:id/complete", ledgerHandler.CompletePayout)
		admin.POST("/creators/:userID/settle", ledgerHandler.SettleEarnings)
		admin.POST("/wallets/:userID/lock", ledgerHandler.SetWalletLock)
		admin.GET("/revenue", ledgerHandler.Revenue)
		admin.POST("/comments/:id/pin", commentHandler.Pin)
		admin.GET("/reports", reportHandler.List)
		admin.POST("/reports/:id", reportHandler.Act)
		admin.DELETE("/reports", reportHandler.Purge)
		admin.GET("/premium-requests", premiumHandler.ListQueue)
		admin.POST("/premium-requests/:id/offer", premiumHandler.Offer)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
