package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/controllers"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/websocket"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Auth     *controllers.AuthController
	User     *controllers.UserController
	Hub      *controllers.HubController
	Activity *controllers.ActivityController
	Roadmap  *controllers.RoadmapController
	Session  *controllers.SessionController
	Chat     *controllers.ChatController
	Resource *controllers.ResourceController
	ChatWS   *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	users := authenticated.Group("/users")
	{
		users.GET("/me", c.User.GetProfile)
		users.PUT("/me", c.User.UpdateProfile)
		users.GET("/leaderboard", c.User.GetLeaderboard)
		users.GET("/:id", c.User.GetUserByID)
	}

	trainers := authenticated.Group("/trainers")
	{
		trainers.GET("", c.User.ListTrainers)
		trainers.PUT("/me/availability", authMiddleware.RoleRequired(models.RoleTrainer), c.Session.SetAvailability)
		trainers.GET("/:id/availability", c.Session.GetAvailability)
		trainers.GET("/:id/slots", c.Session.GetFreeSlots)
		trainers.GET("/:id/ratings", c.User.GetTrainerRatings)
	}

	hubs := authenticated.Group("/learner-hubs")
	{
		hubs.POST("", c.Hub.CreateHub)
		hubs.GET("", c.Hub.ListHubs)
		hubs.GET("/:id", c.Hub.GetHub)
		hubs.PUT("/:id", c.Hub.UpdateHub)
		hubs.DELETE("/:id", c.Hub.DeleteHub)

		// Membership
		hubs.POST("/:id/join", c.Hub.JoinHub)
		hubs.POST("/:id/approve/:userId", c.Hub.ApproveRequest)
		hubs.POST("/:id/reject/:userId", c.Hub.RejectRequest)
		hubs.DELETE("/:id/leave", c.Hub.LeaveHub)
		hubs.GET("/:id/members", c.Hub.ListMembers)
		hubs.DELETE("/:id/members/:userId", c.Hub.RemoveMember)
		hubs.PUT("/:id/members/:userId/role", c.Hub.UpdateMemberRole)
		hubs.GET("/:id/leaderboard", c.Hub.GetLeaderboard)

		// Chat
		hubs.GET("/:id/messages", c.Chat.GetMessages)
		hubs.POST("/:id/messages", c.Chat.SendMessage)
		hubs.GET("/:id/chat/ws", c.ChatWS.HandleConnection)

		// Shared files
		hubs.POST("/:id/resources", c.Resource.UploadResource)
		hubs.GET("/:id/resources", c.Resource.ListResources)
		hubs.DELETE("/:id/resources/:fileId", c.Resource.DeleteResource)
	}

	activities := authenticated.Group("/activities")
	{
		activities.POST("", c.Activity.CreateActivity)
		activities.GET("", c.Activity.ListActivities)
		activities.GET("/:id", c.Activity.GetActivity)
		activities.POST("/:id/participate", c.Activity.Participate)
		activities.GET("/:id/leaderboard", c.Activity.GetLeaderboard)
	}

	roadmaps := authenticated.Group("/roadmaps")
	{
		roadmaps.POST("", c.Roadmap.CreateRoadmap)
		roadmaps.GET("", c.Roadmap.ListRoadmaps)
		roadmaps.POST("/generate", c.Roadmap.GenerateRoadmap)
		roadmaps.GET("/:id", c.Roadmap.GetRoadmap)
		roadmaps.DELETE("/:id", c.Roadmap.DeleteRoadmap)
		roadmaps.POST("/:id/adopt", c.Roadmap.AdoptRoadmap)
		roadmaps.PUT("/:id/progress", c.Roadmap.UpdateProgress)
	}

	sessions := authenticated.Group("/sessions")
	{
		sessions.POST("", c.Session.CreateSession)
		sessions.GET("", c.Session.ListSessions)
		sessions.GET("/:id", c.Session.GetSession)
		sessions.POST("/:id/join", c.Session.JoinSession)
		sessions.PUT("/:id/complete", c.Session.CompleteSession)
		sessions.PUT("/:id/cancel", c.Session.CancelSession)
		sessions.POST("/:id/payment", c.Session.PaySession)
		sessions.POST("/:id/rate", c.Session.RateSession)
	}
}
