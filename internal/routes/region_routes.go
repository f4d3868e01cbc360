package routes

import (
	"github.com/gin-gonic/gin"

	"campus_map/internal/middleware"
)

func RegionRoutes(r *gin.Engine, d Deps) {
	read := r.Group("/")
	read.Use(d.Auth.RequireAuth())
	{
		read.GET("/regions", d.Regions.ListRegions)
		read.GET("/region/:id", d.Regions.GetRegion)
	}

	admin := r.Group("/")
	admin.Use(d.Auth.RequireAuthWithRole(middleware.RoleAdmin))
	{
		admin.POST("/region", d.Regions.CreateRegion)
		admin.PUT("/region/:id", d.Regions.UpdateRegion)
		admin.DELETE("/region/:id", d.Regions.DeleteRegion)
	}
}
