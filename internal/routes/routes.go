package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus_map/internal/controllers"
	"campus_map/internal/metrics"
	"campus_map/internal/middleware"
)

// Deps are the handlers and middleware the router mounts.
type Deps struct {
	Auth        *middleware.Auth
	CORSOrigins []string
	Regions     *controllers.RegionController
	Hierarchy   *controllers.HierarchyController
	MapSocket   *controllers.MapSocketController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(ginlog.SetLogger(
		ginlog.WithSkipPath([]string{"/metrics"}),
		ginlog.WithUTC(true),
		// Access lines are already structured, so they share logrus' output
		// without passing through its formatter.
		ginlog.WithWriter(logrus.StandardLogger().Out),
	))
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	RegionRoutes(r, d)
	HierarchyRoutes(r, d)
	WebSocketRoutes(r, d)

	return r
}
