package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus_map/internal/apperr"
	"campus_map/internal/models"
	"campus_map/internal/services"
)

type HierarchyService interface {
	AnalyzeBuildingDeletion(ctx context.Context, buildingID uint) (services.Analysis, error)
	DeleteBuilding(ctx context.Context, buildingID uint) error
	DeleteFloor(ctx context.Context, floorID uint) error
	DeleteRoom(ctx context.Context, roomID uint) (services.RoomDeletion, error)
}

type CatalogService interface {
	CreateBuilding(ctx context.Context, name string) (*models.Building, error)
	RenameBuilding(ctx context.Context, id uint, name string) (*models.Building, error)
	CreateFloor(ctx context.Context, buildingID uint, label string) (*models.Floor, error)
	CreateRooms(ctx context.Context, floorID uint, names []string) ([]models.Room, error)
	RenameRoom(ctx context.Context, id uint, name string) (*models.Room, error)
	CheckRooms(ctx context.Context, buildingID uint, floorLabel string, names []string) (services.DuplicateReport, error)
	Tree(ctx context.Context, search string) ([]models.Building, error)
}

// HierarchyController serves the building, floor and room endpoints.
type HierarchyController struct {
	hierarchy HierarchyService
	catalog   CatalogService
}

func NewHierarchyController(hierarchy HierarchyService, catalog CatalogService) *HierarchyController {
	return &HierarchyController{hierarchy: hierarchy, catalog: catalog}
}

// CreateBuilding handles POST /building.
func (hc *HierarchyController) CreateBuilding(c *gin.Context) {
	var input struct {
		BuildingName string `json:"building_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFlagError(c, "CreateBuilding", badJSON(err))
		return
	}

	b, err := hc.catalog.CreateBuilding(c.Request.Context(), input.BuildingName)
	if err != nil {
		respondFlagError(c, "CreateBuilding", err)
		return
	}
	respondFlag(c, http.StatusCreated, "building created", b)
}

// UpdateBuilding handles PUT /building/:id.
func (hc *HierarchyController) UpdateBuilding(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondFlagError(c, "UpdateBuilding", err)
		return
	}
	var input struct {
		BuildingName string `json:"building_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFlagError(c, "UpdateBuilding", badJSON(err))
		return
	}

	b, err := hc.catalog.RenameBuilding(c.Request.Context(), id, input.BuildingName)
	if err != nil {
		respondFlagError(c, "UpdateBuilding", err)
		return
	}
	respondFlag(c, http.StatusOK, "building updated", b)
}

// DeleteBuilding handles DELETE /building/:id.
func (hc *HierarchyController) DeleteBuilding(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondFlagError(c, "DeleteBuilding", err)
		return
	}
	if err := hc.hierarchy.DeleteBuilding(c.Request.Context(), id); err != nil {
		respondFlagError(c, "DeleteBuilding", err)
		return
	}
	respondFlag(c, http.StatusOK, "building deleted", nil)
}

// BuildingDependencies handles GET /building/:id/dependencies. It never deletes.
func (hc *HierarchyController) BuildingDependencies(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondStatusError(c, "BuildingDependencies", err)
		return
	}
	a, err := hc.hierarchy.AnalyzeBuildingDeletion(c.Request.Context(), id)
	if err != nil {
		respondStatusError(c, "BuildingDependencies", err)
		return
	}
	msg := "building can be deleted"
	if a.Blocked {
		msg = a.Message("building")
	}
	respondStatus(c, http.StatusOK, msg, a)
}

// ListBuildings handles GET /buildings?search=.
func (hc *HierarchyController) ListBuildings(c *gin.Context) {
	tree, err := hc.catalog.Tree(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondStatusError(c, "ListBuildings", err)
		return
	}
	respondStatus(c, http.StatusOK, "", tree)
}

// CreateFloor handles POST /floor.
func (hc *HierarchyController) CreateFloor(c *gin.Context) {
	var input struct {
		BuildingID  uint   `json:"building_id"`
		FloorNumber string `json:"floor_number"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFlagError(c, "CreateFloor", badJSON(err))
		return
	}

	f, err := hc.catalog.CreateFloor(c.Request.Context(), input.BuildingID, input.FloorNumber)
	if err != nil {
		respondFlagError(c, "CreateFloor", err)
		return
	}
	respondFlag(c, http.StatusCreated, "floor created", f)
}

// DeleteFloor handles DELETE /floor/:id.
func (hc *HierarchyController) DeleteFloor(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondFlagError(c, "DeleteFloor", err)
		return
	}
	if err := hc.hierarchy.DeleteFloor(c.Request.Context(), id); err != nil {
		respondFlagError(c, "DeleteFloor", err)
		return
	}
	respondFlag(c, http.StatusOK, "floor deleted", nil)
}

// CreateRooms handles POST /room with a batch of names for one floor.
func (hc *HierarchyController) CreateRooms(c *gin.Context) {
	var input struct {
		FloorID   uint     `json:"floor_id"`
		RoomNames []string `json:"room_names"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFlagError(c, "CreateRooms", badJSON(err))
		return
	}

	rooms, err := hc.catalog.CreateRooms(c.Request.Context(), input.FloorID, input.RoomNames)
	if err != nil {
		respondFlagError(c, "CreateRooms", err)
		return
	}
	respondFlag(c, http.StatusCreated, "rooms created", rooms)
}

// UpdateRoom handles PUT /room/:id.
func (hc *HierarchyController) UpdateRoom(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondFlagError(c, "UpdateRoom", err)
		return
	}
	var input struct {
		RoomName string `json:"room_name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondFlagError(c, "UpdateRoom", badJSON(err))
		return
	}

	room, err := hc.catalog.RenameRoom(c.Request.Context(), id, input.RoomName)
	if err != nil {
		respondFlagError(c, "UpdateRoom", err)
		return
	}
	respondFlag(c, http.StatusOK, "room updated", room)
}

// DeleteRoom handles DELETE /room/:id. The message says whether the floor went too.
func (hc *HierarchyController) DeleteRoom(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondFlagError(c, "DeleteRoom", err)
		return
	}
	res, err := hc.hierarchy.DeleteRoom(c.Request.Context(), id)
	if err != nil {
		respondFlagError(c, "DeleteRoom", err)
		return
	}
	msg := "room deleted"
	if res.FloorRemoved {
		msg = "room deleted; the floor had no rooms left and was removed"
	}
	respondFlag(c, http.StatusOK, msg, res)
}

// CheckRooms handles POST /rooms/check, a dry run of a room submission.
func (hc *HierarchyController) CheckRooms(c *gin.Context) {
	var input struct {
		BuildingID  uint     `json:"building_id"`
		FloorNumber string   `json:"floor_number"`
		RoomNames   []string `json:"room_names"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondStatusError(c, "CheckRooms", badJSON(err))
		return
	}

	report, err := hc.catalog.CheckRooms(c.Request.Context(), input.BuildingID, input.FloorNumber, input.RoomNames)
	if err != nil {
		respondStatusError(c, "CheckRooms", err)
		return
	}
	if !report.Empty() {
		c.JSON(apperr.Status(apperr.KindConflict), statusEnvelope{
			Status:     "error",
			Message:    "duplicate room names: " + strings.Join(append(append([]string{}, report.OnFloor...), report.Elsewhere...), ", "),
			Data:       report,
			Duplicates: report.Messages(),
		})
		return
	}
	respondStatus(c, http.StatusOK, "no duplicates", report)
}
