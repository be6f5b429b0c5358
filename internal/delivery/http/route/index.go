package route

import (
	"net/http"

	"swap-market/internal/config"
	httpHandler "swap-market/internal/delivery/http/handler"
	"swap-market/internal/delivery/http/middleware"
	mongorepo "swap-market/internal/repository/mongodb"
	repo "swap-market/internal/repository/postgresql"
	service "swap-market/internal/service/postgresql"

	_ "swap-market/docs"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func SetupRoute(app *gin.Engine, db *sqlx.DB, mongoDB *mongo.Database, cfg *config.Config, logger *zap.Logger) {
	// --- 1. REPOSITORIES ---
	offerRepo := repo.NewOfferRepository(db)
	productRepo := repo.NewProductRepository(db)
	userRepo := repo.NewUserRepository(db)
	logRepo := mongorepo.NewLogRepository(mongoDB)
	messageRepo := mongorepo.NewMessageRepository(mongoDB)
	reviewRepo := mongorepo.NewReviewRepository(mongoDB)

	// --- 2. SERVICES ---
	offerService := service.NewOfferService(offerRepo, productRepo, userRepo, logRepo, messageRepo, reviewRepo, logger.Named("offer"))
	messageService := service.NewMessageService(offerRepo, messageRepo, logRepo, logger.Named("message"))

	// --- 3. HANDLERS & ROUTES ---
	RegisterRoutes(app, cfg.JWT,
		httpHandler.NewOfferHandler(offerService, logger),
		httpHandler.NewMessageHandler(messageService))
}

// RegisterRoutes mounts the API and its swagger UI on app. Every /api route
// requires a bearer token.
func RegisterRoutes(app *gin.Engine, jwtCfg config.JWTConfig, offerHandler *httpHandler.OfferHandler, messageHandler *httpHandler.MessageHandler) {
	app.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	app.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(0)))

	api := app.Group("/api", middleware.AuthRequired(jwtCfg))

	// --- Offer negotiation ---
	offers := api.Group("/offers")
	offers.POST("", offerHandler.ProposeOffer)
	offers.GET("", offerHandler.ListOffers)
	offers.GET("/:id", offerHandler.GetOffer)
	offers.DELETE("/:id", offerHandler.FinalizeOffer)
	offers.POST("/:id/items", offerHandler.AddItem)
	offers.DELETE("/:id/items/:offerItemId", offerHandler.RemoveItem)
	offers.POST("/:id/accept", offerHandler.AcceptOffer)
	offers.POST("/:id/reject", offerHandler.RejectOffer)
	offers.POST("/:id/complete", offerHandler.CompleteOffer)
	offers.GET("/:id/history", offerHandler.History)

	// --- Rating ---
	offers.GET("/:id/rating-target", offerHandler.RatingTarget)
	offers.GET("/:id/reviews", offerHandler.ListReviews)
	offers.POST("/:id/reviews", offerHandler.SubmitReview)

	// --- Messages ---
	offers.GET("/:id/messages", messageHandler.ListMessages)
	offers.POST("/:id/messages", messageHandler.AppendMessage)
}
