package http

import (
	"context"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	clientTokenCookie = "ct"
	clientTokenKey    = "client_token"
	sessionUserKey    = "user_id"
)

// ChatService is the part of the chat manager the API translates to HTTP.
type ChatService interface {
	CreateRoom(name string, owner string) (app.RoomSummary, error)
	DeleteRoom(id string, caller string) error
	NameIsAvailable(name string) bool
	ExtractRoomData(v app.RoomVisitor)
}

type UserService interface {
	CreateUser(ctx context.Context, username string) (*domain.User, error)
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	RenameUser(ctx context.Context, id domain.UserID, username string) (*domain.User, error)
	DeleteUser(ctx context.Context, id domain.UserID) error
	AddFavorites(ctx context.Context, id domain.UserID, names []string) (*domain.User, error)
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(clientTokenCookie)
		if token == "" {
			token = genClientToken()
			c.SetCookie(clientTokenCookie, token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// callerID is the registered user id when the session has one, otherwise the
// anonymous client token.
func callerID(c *gin.Context) string {
	if uid, ok := sessions.Default(c).Get(sessionUserKey).(string); ok && uid != "" {
		return uid
	}
	return c.GetString(clientTokenKey)
}

// throttleKey identifies a caller for rate limiting. Anonymous client tokens
// are free to mint, so anonymous callers are counted per remote address.
func throttleKey(c *gin.Context) string {
	if uid, ok := sessions.Default(c).Get(sessionUserKey).(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

func SetupRouter(cfg *config.Config, chat ChatService, users UserService) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	rooms := &roomHandlers{chat: chat, limiter: NewCreateLimiter(cfg.CreateLimit, cfg.CreateWindow)}
	rg := api.Group("/rooms")
	rg.GET("", rooms.list)
	rg.GET("/available", rooms.available)
	rg.POST("/:name", rooms.create)
	rg.DELETE("/:room_id", rooms.remove)

	if users != nil {
		uh := &userHandlers{users: users}
		ug := api.Group("/users")
		ug.POST("/register", uh.register)
		ug.GET("/:user_id", uh.get)
		ug.PUT("/:user_id", uh.rename)
		ug.DELETE("/:user_id", uh.remove)
		ug.POST("/:user_id/favorite", uh.addFavorites)
	}

	return r
}
