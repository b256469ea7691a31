package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scribemarket/api/internal/config"
	"scribemarket/api/internal/guard"
	mw "scribemarket/api/internal/middleware"
	"scribemarket/api/internal/presence"
	"scribemarket/api/internal/repository"
	"scribemarket/api/internal/routes"
	"scribemarket/api/internal/session"
	"scribemarket/api/internal/storage"
)

// HandlerSet wires the two session stores, the guarded route surface and
// the auxiliary endpoints onto a gin engine.
type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	adminStore *session.Store
	userStore  *session.Store
	accounts   *repository.AccountRepository
	avatars    *storage.AvatarStore
	db         *pgxpool.Pool
	cache      *redis.Client

	trackerMu sync.Mutex
	trackers  map[string]*presence.Tracker
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	adminStore *session.Store,
	userStore *session.Store,
	accounts *repository.AccountRepository,
	avatars *storage.AvatarStore,
	db *pgxpool.Pool,
	cache *redis.Client,
) *HandlerSet {
	return &HandlerSet{
		log:        log,
		cfg:        cfg,
		adminStore: adminStore,
		userStore:  userStore,
		accounts:   accounts,
		avatars:    avatars,
		db:         db,
		cache:      cache,
		trackers:   make(map[string]*presence.Tracker),
	}
}

func (h *HandlerSet) Register(engine *gin.Engine) {
	engine.GET("/api/healthz", h.Health)

	// User-portal auth surface.
	engine.POST("/login", h.UserSignIn)
	engine.POST("/register", h.UserSignUp)
	engine.POST("/logout", h.UserSignOut)
	engine.POST("/forgot-password", h.UserResetPassword)

	// Admin-portal auth surface, isolated from the user one.
	engine.POST("/admin/login", h.AdminSignIn)
	engine.POST("/admin/register", h.AdminSignUp)
	engine.POST("/admin/logout", h.AdminSignOut)
	engine.POST("/admin/forgot-password", h.AdminResetPassword)

	engine.GET(mw.UnauthorizedPath, h.Unauthorized)
	engine.NoRoute(h.NotFound)

	// Every guarded view comes off the route table; the guard is derived
	// from the route's namespace and allowed set, never hand-picked.
	for _, route := range routes.Table() {
		engine.GET(route.Path, mw.Guard(h.guardFor(route)), h.View(route))
	}

	api := engine.Group("/api/v1")
	{
		user := api.Group("", mw.Guard(guard.User(h.userStore)))
		user.POST("/presence/input", h.PresenceInput)
		user.GET("/presence", h.PresenceState)
		user.PUT("/settings/avatar", h.UploadAvatar)
	}
}

func (h *HandlerSet) guardFor(route routes.Route) guard.Guard {
	store := h.userStore
	if route.Namespace == routes.NamespaceAdmin {
		store = h.adminStore
	}
	return guard.ForRoles(store, route.Roles)
}

// Shutdown stops any presence trackers still running.
func (h *HandlerSet) Shutdown() {
	h.trackerMu.Lock()
	defer h.trackerMu.Unlock()
	for _, tracker := range h.trackers {
		tracker.Stop()
	}
	h.trackers = make(map[string]*presence.Tracker)
}
