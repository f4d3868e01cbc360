package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus_map/internal/apperr"
	"campus_map/internal/geometry"
	"campus_map/internal/models"
	"campus_map/internal/services"
)

type RegionService interface {
	Create(ctx context.Context, in services.RegionInput) (*models.ReferenceRegion, error)
	Update(ctx context.Context, id uint, in services.RegionInput) (*models.ReferenceRegion, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.ReferenceRegion, error)
	List(ctx context.Context) ([]models.RegionView, error)
}

// regionRequest uses pointers so a missing field can be told apart from a zero.
type regionRequest struct {
	BuildingID        *uint    `json:"building_id"`
	Corner1X          *float64 `json:"corner1_coord_x"`
	Corner1Y          *float64 `json:"corner1_coord_y"`
	Corner2X          *float64 `json:"corner2_coord_x"`
	Corner2Y          *float64 `json:"corner2_coord_y"`
	Corner3X          *float64 `json:"corner3_coord_x"`
	Corner3Y          *float64 `json:"corner3_coord_y"`
	Corner4X          *float64 `json:"corner4_coord_x"`
	Corner4Y          *float64 `json:"corner4_coord_y"`
	BuildingImagePath *string  `json:"building_image_path"`
}

func (r regionRequest) input() (services.RegionInput, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"corner1_coord_x", r.Corner1X}, {"corner1_coord_y", r.Corner1Y},
		{"corner2_coord_x", r.Corner2X}, {"corner2_coord_y", r.Corner2Y},
		{"corner3_coord_x", r.Corner3X}, {"corner3_coord_y", r.Corner3Y},
		{"corner4_coord_x", r.Corner4X}, {"corner4_coord_y", r.Corner4Y},
	}

	var missing []string
	if r.BuildingID == nil {
		missing = append(missing, "building_id")
	}
	for _, f := range fields {
		if f.v == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return services.RegionInput{}, apperr.Validation("missing required fields", missing...)
	}

	var q geometry.Quad
	for i := range q {
		q[i] = geometry.Point{X: *fields[2*i].v, Y: *fields[2*i+1].v}
	}
	return services.RegionInput{BuildingID: *r.BuildingID, Corners: q, ImagePath: r.BuildingImagePath}, nil
}

type regionResponse struct {
	models.ReferenceRegion
	BuildingName string          `json:"building_name,omitempty"`
	Footprint    json.RawMessage `json:"footprint,omitempty"`
}

func toRegionResponse(rp models.ReferenceRegion, buildingName string) regionResponse {
	out := regionResponse{ReferenceRegion: rp, BuildingName: buildingName}
	if fp, err := rp.Corners().GeoJSON(); err == nil {
		out.Footprint = json.RawMessage(fp)
	} else {
		logrus.WithError(err).WithField("region_id", rp.ReferencePointsID).Warn("toRegionResponse: footprint encoding failed")
	}
	return out
}

type RegionController struct {
	regions RegionService
}

func NewRegionController(regions RegionService) *RegionController {
	return &RegionController{regions: regions}
}

func (rc *RegionController) bind(c *gin.Context) (services.RegionInput, error) {
	var req regionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.RegionInput{}, badJSON(err)
	}
	return req.input()
}

// CreateRegion handles POST /region.
func (rc *RegionController) CreateRegion(c *gin.Context) {
	in, err := rc.bind(c)
	if err != nil {
		respondStatusError(c, "CreateRegion", err)
		return
	}

	rp, err := rc.regions.Create(c.Request.Context(), in)
	if err != nil {
		respondStatusError(c, "CreateRegion", err)
		return
	}
	respondStatus(c, http.StatusCreated, "reference region created", toRegionResponse(*rp, ""))
}

// UpdateRegion handles PUT /region/:id.
func (rc *RegionController) UpdateRegion(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondStatusError(c, "UpdateRegion", err)
		return
	}
	in, err := rc.bind(c)
	if err != nil {
		respondStatusError(c, "UpdateRegion", err)
		return
	}

	rp, err := rc.regions.Update(c.Request.Context(), id, in)
	if err != nil {
		respondStatusError(c, "UpdateRegion", err)
		return
	}
	respondStatus(c, http.StatusOK, "reference region updated", toRegionResponse(*rp, ""))
}

// DeleteRegion handles DELETE /region/:id.
func (rc *RegionController) DeleteRegion(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondStatusError(c, "DeleteRegion", err)
		return
	}
	if err := rc.regions.Delete(c.Request.Context(), id); err != nil {
		respondStatusError(c, "DeleteRegion", err)
		return
	}
	respondStatus(c, http.StatusOK, "reference region deleted", nil)
}

// GetRegion handles GET /region/:id.
func (rc *RegionController) GetRegion(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondStatusError(c, "GetRegion", err)
		return
	}
	rp, err := rc.regions.Get(c.Request.Context(), id)
	if err != nil {
		respondStatusError(c, "GetRegion", err)
		return
	}
	respondStatus(c, http.StatusOK, "", toRegionResponse(*rp, ""))
}

// ListRegions handles GET /regions.
func (rc *RegionController) ListRegions(c *gin.Context) {
	views, err := rc.regions.List(c.Request.Context())
	if err != nil {
		respondStatusError(c, "ListRegions", err)
		return
	}
	out := make([]regionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toRegionResponse(v.ReferenceRegion, v.BuildingName))
	}
	respondStatus(c, http.StatusOK, "", out)
}
