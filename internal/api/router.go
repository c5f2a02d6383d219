package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"welcome-screen-backend/config"
	"welcome-screen-backend/internal/model"
	"welcome-screen-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, u Updater, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(u, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)
	// Every pass, scheduled or refreshed, changes the status.
	u.OnUpdate(func(model.SyncStatus) { cacheStore.Flush() })

	r.GET("/healthz", GetHealth)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/status", caching, handler.GetStatus)
		api.GET("/preview", caching, handler.GetPreview)
		api.POST("/refresh", handler.PostRefresh)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
