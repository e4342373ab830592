// Package router wires the middleware and every endpoint onto a gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/config"
	"github.com/princinho/cragbase/controllers"
	"github.com/princinho/cragbase/metrics"
	"github.com/princinho/cragbase/middleware"
	"github.com/princinho/cragbase/services"
	"github.com/princinho/cragbase/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Deps struct {
	Config      *config.Config
	Services    *services.Services
	Log         *zap.Logger
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	AuthLimiter *middleware.RateLimiter
}

func New(d Deps) *gin.Engine {
	cfg := d.Config
	s := d.Services

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(middleware.SecurityHeaders())

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	cookies := utils.CookieSettings{
		Secure:      cfg.CookieSecure,
		Domain:      cfg.CookieDomain,
		RefreshPath: cfg.RefreshCookiePath,
		AccessTTL:   cfg.AccessTokenTTL,
		RefreshTTL:  cfg.RefreshTokenTTL,
	}
	paging := controllers.Paging{DefaultLimit: cfg.DefaultQueryLimit, MaxLimit: cfg.MaxQueryLimit}
	auth := middleware.AuthMiddleware(s.Auth)

	throttle := func(ctx *gin.Context) { ctx.Next() }
	if d.AuthLimiter != nil {
		throttle = d.AuthLimiter.Middleware()
	}

	a := r.Group("/auth")
	{
		a.POST("/register", throttle, controllers.Register(s.Auth))
		a.POST("/login", throttle, controllers.Login(s.Auth, cookies))
		a.POST("/refresh", controllers.Refresh(s.Auth, cookies))
		a.POST("/logout", controllers.Logout(s.Auth, cookies))
	}

	routes := r.Group("/routes")
	{
		routes.GET("", controllers.GetRoutes(s.Routes, paging))
		routes.GET("/liked", auth, controllers.GetMyLikedRoutes(s.Profiles))
		routes.GET("/:id", controllers.GetRoute(s.Routes))
		routes.POST("", auth, controllers.CreateRoute(s.Routes))
		routes.DELETE("/:id", auth, controllers.DeleteRoute(s.Routes))
		routes.POST("/:id/like", auth, controllers.LikeRoute(s.Routes))
		routes.POST("/:id/unlike", auth, controllers.UnlikeRoute(s.Routes))
		routes.POST("/:id/climb", auth, controllers.ClimbRoute(s.Routes))
		routes.POST("/:id/unclimb", auth, controllers.UnclimbRoute(s.Routes))
	}

	posts := r.Group("/posts")
	{
		posts.GET("", controllers.GetPosts(s.Posts, paging))
		posts.GET("/liked", auth, controllers.GetLikedPosts(s.Posts))
		posts.GET("/:id", controllers.GetPost(s.Posts))
		posts.POST("", auth, controllers.CreatePost(s.Posts))
		posts.PATCH("/:id", auth, controllers.UpdatePost(s.Posts))
		posts.DELETE("/:id", auth, controllers.DeletePost(s.Posts))
		posts.POST("/:id/like", auth, controllers.LikePost(s.Posts))
		posts.POST("/:id/unlike", auth, controllers.UnlikePost(s.Posts))
	}

	challenges := r.Group("/challenges")
	{
		challenges.GET("", controllers.GetChallenges(s.Challenges, paging))
		challenges.GET("/registered", auth, controllers.GetRegisteredChallenges(s.Challenges))
		challenges.GET("/:id", controllers.GetChallenge(s.Challenges))
		challenges.GET("/:id/participants", controllers.GetChallengeParticipants(s.Challenges))
		challenges.POST("", auth, controllers.CreateChallenge(s.Challenges))
		challenges.PATCH("/:id", auth, controllers.UpdateChallenge(s.Challenges))
		challenges.DELETE("/:id", auth, controllers.DeleteChallenge(s.Challenges))
		challenges.POST("/:id/register", auth, controllers.RegisterForChallenge(s.Challenges))
		challenges.POST("/:id/unregister", auth, controllers.UnregisterFromChallenge(s.Challenges))
	}

	communities := r.Group("/communities")
	{
		communities.GET("", controllers.GetCommunities(s.Communities, paging))
		communities.GET("/:id", controllers.GetCommunity(s.Communities))
		communities.GET("/:id/members", controllers.GetCommunityMembers(s.Communities))
		communities.GET("/:id/admins", controllers.GetCommunityAdmins(s.Communities))
		communities.GET("/:id/challenges", controllers.GetCommunityChallenges(s.Communities))
		communities.POST("", auth, controllers.CreateCommunity(s.Communities))
		communities.PATCH("/:id", auth, controllers.UpdateCommunity(s.Communities))
		communities.DELETE("/:id", auth, controllers.DeleteCommunity(s.Communities))
		communities.POST("/:id/join", auth, controllers.JoinCommunity(s.Communities))
		communities.POST("/:id/leave", auth, controllers.LeaveCommunity(s.Communities))
		communities.POST("/:id/members/:memberId/remove", auth, controllers.RemoveCommunityMember(s.Communities))
		communities.POST("/:id/admins/:userId/add", auth, controllers.AddCommunityAdmin(s.Communities))
		communities.POST("/:id/admins/:userId/remove", auth, controllers.RemoveCommunityAdmin(s.Communities))
		communities.POST("/:id/challenges/:challengeId/add", auth, controllers.AddCommunityChallenge(s.Communities))
		communities.POST("/:id/challenges/:challengeId/remove", auth, controllers.RemoveCommunityChallenge(s.Communities))
	}

	profile := r.Group("/profile")
	{
		me := profile.Group("/me", auth)
		me.GET("", controllers.GetMyProfile(s.Profiles))
		me.PATCH("", controllers.UpdateMyProfile(s.Profiles))
		me.GET("/created-routes", controllers.GetMyCreatedRoutes(s.Profiles))
		me.GET("/liked-routes", controllers.GetMyLikedRoutes(s.Profiles))
		me.GET("/climbed-routes", controllers.GetMyClimbedRoutes(s.Profiles))
		me.GET("/communities", controllers.GetMyCommunities(s.Profiles))
		me.GET("/challenges", controllers.GetMyChallenges(s.Profiles))
		profile.GET("/:id", controllers.GetPublicProfile(s.Profiles))
	}

	r.GET("/search", controllers.Search(s.Search))

	return r
}
