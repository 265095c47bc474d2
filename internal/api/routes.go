package api

import (
	"net/http"

	"github.com/nahuelmieres/rf-online-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles everything SetupRoutes wires handlers to.
type Services struct {
	Auth        service.AuthService
	Block       service.BlockService
	Plan        service.PlanService
	User        service.UserService
	Comment     service.CommentService
	Reservation service.ReservationService
	Media       service.MediaService
}

// SetupRoutes registers every route on the router. Authorization is
// expressed per route through the access policy, not per role group.
func SetupRoutes(router *gin.Engine, jwtSecret string, policy *service.AccessPolicy, svcs Services) {

	authHandler := NewAuthHandler(svcs.Auth)
	blockHandler := NewBlockHandler(svcs.Block)
	planHandler := NewPlanHandler(svcs.Plan, svcs.User)
	userHandler := NewUserHandler(svcs.User)
	commentHandler := NewCommentHandler(svcs.Comment)
	reservationHandler := NewReservationHandler(svcs.Reservation)
	mediaHandler := NewMediaHandler(svcs.Media)

	authMiddleware := AuthMiddleware(jwtSecret)
	can := func(op service.Operation) gin.HandlerFunc {
		return RequireOperation(policy, op)
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		// --- User Routes ---
		userGroup := protected.Group("/users")
		{
			userGroup.GET("", can(service.OpListUsers), userHandler.ListUsers)
			userGroup.POST("/:id/plan", can(service.OpAssignToUser), userHandler.AssignPersonalPlan)
		}

		// --- Block Routes ---
		blockGroup := protected.Group("/blocks")
		{
			blockGroup.POST("", can(service.OpCreateBlock), blockHandler.CreateBlock)
			blockGroup.GET("", can(service.OpListBlocks), blockHandler.ListBlocks)
			blockGroup.GET("/:id", can(service.OpViewBlock), blockHandler.GetBlock)
			blockGroup.DELETE("/:id", can(service.OpDeleteBlock), blockHandler.DeleteBlock)
		}

		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", can(service.OpCreatePlan), planHandler.CreatePlan)
			planGroup.GET("", can(service.OpListPlans), planHandler.ListPlans)
			planGroup.GET("/:id", can(service.OpViewPlan), planHandler.GetPlan)
			planGroup.GET("/:id/full", can(service.OpViewPlan), planHandler.GetPlanProjection)
			planGroup.PATCH("/:id", can(service.OpEditPlan), planHandler.UpdatePlan)
			planGroup.DELETE("/:id", can(service.OpDeletePlan), planHandler.DeletePlan)

			// Day-level block wiring within the plan tree.
			planGroup.POST("/:id/blocks", can(service.OpAssignBlock), planHandler.AssignBlock)
			planGroup.DELETE("/:id/blocks", can(service.OpRemoveBlock), planHandler.RemoveBlock)

			// Comments hang off their plan.
			planGroup.POST("/:id/comments", can(service.OpCreateComment), commentHandler.AddComment)
			planGroup.GET("/:id/comments", commentHandler.ListByPlan)
		}

		// --- Comment Routes ---
		commentGroup := protected.Group("/comments")
		{
			commentGroup.POST("/:id/reply", can(service.OpReplyComment), commentHandler.ReplyToComment)
			commentGroup.DELETE("/:id", can(service.OpDeleteComment), commentHandler.DeleteComment)
		}

		// --- Reservation Routes ---
		reservationGroup := protected.Group("/reservations")
		{
			reservationGroup.GET("/availability", reservationHandler.GetAvailability)
			reservationGroup.POST("", can(service.OpCreateReservation), reservationHandler.CreateReservation)
			reservationGroup.GET("", reservationHandler.ListMyReservations)
			reservationGroup.DELETE("/:id", can(service.OpCancelReservation), reservationHandler.CancelReservation)
		}

		// --- Media Routes ---
		mediaGroup := protected.Group("/media")
		{
			mediaGroup.POST("/uploads", can(service.OpUploadMedia), mediaHandler.RequestUpload)
			mediaGroup.GET("/:id/download", mediaHandler.GetDownloadURL)
			mediaGroup.DELETE("/:id", can(service.OpDeleteMedia), mediaHandler.DeleteMedia)
		}
	}
}
