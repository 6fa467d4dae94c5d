// Package paygin mounts the payment bridge endpoints on a gin engine.
package paygin

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/loverust/paybridge/adapters/gin/handlers"
	"github.com/loverust/paybridge/adapters/ginutil"
	core "github.com/loverust/paybridge/core"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Service   *core.Service
	APISecret string
	Limiter   ginutil.RateLimiter
	Logger    *logrus.Logger
}

// New builds the engine with recovery installed, so an unexpected panic
// answers a generic failure instead of leaking internals.
func New(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", handlers.HandleRootGET())
	r.GET("/health", handlers.HandleHealthGET())
	r.POST("/tranzila/notify", handlers.HandleNotifyPOST(deps.Service, deps.APISecret, deps.Limiter))
	r.POST("/tranzila/result", handlers.HandleResultPOST(deps.Service, deps.APISecret, deps.Limiter))
	return r
}
