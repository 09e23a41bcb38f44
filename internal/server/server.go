package server

import (
	"context"
	"net/http"

	"campark/internal/auth"
	"campark/internal/config"
	"campark/internal/live"
	"campark/internal/lot"
	"campark/internal/notify"
	"campark/internal/receipt"
	"campark/internal/session"
	"campark/internal/user"
	"campark/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, notifyService *notify.Service, hub *live.Hub) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	userRepo := user.NewRepository(db)
	lotRepo := lot.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	walletRepo := wallet.NewRepository(db)

	dispatcher := notify.NewDispatcher(notifyService, userRepo, sessionRepo)

	lotService := lot.NewService(lotRepo, hub)
	sessionService := session.NewService(sessionRepo, lotRepo, walletRepo, userRepo, hub, dispatcher)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	lotHandler := lot.NewHandler(db, hub)
	sessionHandler := session.NewHandler(sessionService)
	walletHandler := wallet.NewHandler(db, dispatcher)
	receiptHandler := receipt.NewHandler(sessionService, userRepo)
	liveHandler := live.NewHandler(hub, lotService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me", userHandler.UpdateMe)

		protected.GET("/lots", lotHandler.ListLots)
		protected.GET("/lots/:lotID", lotHandler.GetLot)
		protected.GET("/lots/:lotID/spots", lotHandler.ListSpots)
		protected.GET("/lots/:lotID/map", lotHandler.MapView)

		protected.POST("/sessions/start", sessionHandler.StartSession)
		protected.POST("/sessions/end", sessionHandler.EndSession)
		protected.GET("/sessions/active", sessionHandler.GetActive)
		protected.GET("/sessions/history", sessionHandler.GetHistory)
		protected.POST("/sessions/:sessionID/pay", sessionHandler.PayOutstanding)
		protected.GET("/sessions/:sessionID/receipt", receiptHandler.Download)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.POST("/wallet/topup", walletHandler.TopUp)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/lots", lotHandler.CreateLot)
		admin.POST("/lots/:lotID/spots", lotHandler.CreateSpot)
		admin.PATCH("/spots/:spotID/status", lotHandler.SetSpotStatus)
		admin.GET("/lots/:lotID/sessions", sessionHandler.GetLotSessions)
		admin.GET("/wallets/:userID/reconcile", walletHandler.Reconcile)
		admin.GET("/test-notification", TestNotification(notifyService))
	}

	// Websocket endpoint carries its own auth via the initial HTTP upgrade.
	router.GET("/ws/lots/:lotID", authMiddleware, liveHandler.Subscribe)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

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
