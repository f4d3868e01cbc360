package routes

import (
	"github.com/gin-gonic/gin"

	"campus_map/internal/middleware"
)

func HierarchyRoutes(r *gin.Engine, d Deps) {
	read := r.Group("/")
	read.Use(d.Auth.RequireAuth())
	{
		read.GET("/buildings", d.Hierarchy.ListBuildings)
		read.GET("/building/:id/dependencies", d.Hierarchy.BuildingDependencies)
	}

	admin := r.Group("/")
	admin.Use(d.Auth.RequireAuthWithRole(middleware.RoleAdmin))
	{
		admin.POST("/building", d.Hierarchy.CreateBuilding)
		admin.PUT("/building/:id", d.Hierarchy.UpdateBuilding)
		admin.DELETE("/building/:id", d.Hierarchy.DeleteBuilding)

		admin.POST("/floor", d.Hierarchy.CreateFloor)
		admin.DELETE("/floor/:id", d.Hierarchy.DeleteFloor)

		admin.POST("/room", d.Hierarchy.CreateRooms)
		admin.PUT("/room/:id", d.Hierarchy.UpdateRoom)
		admin.DELETE("/room/:id", d.Hierarchy.DeleteRoom)
		admin.POST("/rooms/check", d.Hierarchy.CheckRooms)
	}
}
