package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_map/internal/controllers"
	"campus_map/internal/lock"
	"campus_map/internal/middleware"
	"campus_map/internal/overlap"
	"campus_map/internal/realtime"
	"campus_map/internal/repository/repotest"
	"campus_map/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t     *testing.T
	db    *repotest.DB
	r     *gin.Engine
	token string
}

func newServer(t *testing.T) *server {
	db := repotest.NewDB()
	hub := realtime.NewHub()
	auth := middleware.NewAuth("routes-test")

	r := SetupRouter(Deps{
		Auth: auth,
		Regions: controllers.NewRegionController(services.NewRegionService(
			repotest.NewRegionStore(db), overlap.CentroidContainment{}, lock.Nop{}, hub)),
		Hierarchy: controllers.NewHierarchyController(
			services.NewHierarchyService(repotest.NewHierarchyStore(db), hub),
			services.NewCatalogService(repotest.NewCatalogStore(db))),
		MapSocket: controllers.NewMapSocketController(hub, auth),
	})

	token, err := auth.GenerateToken("ops", middleware.RoleAdmin)
	require.NoError(t, err)
	return &server{t: t, db: db, r: r, token: token}
}

func (s *server) do(method, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.r.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func squareBody(buildingID uint, x, y, size float64) gin.H {
	return gin.H{
		"building_id":     buildingID,
		"corner1_coord_x": x, "corner1_coord_y": y,
		"corner2_coord_x": x + size, "corner2_coord_y": y,
		"corner3_coord_x": x + size, "corner3_coord_y": y + size,
		"corner4_coord_x": x, "corner4_coord_y": y + size,
	}
}

func TestSecondRegionForBuildingIsRejected(t *testing.T) {
	s := newServer(t)
	code, body := s.do(http.MethodPost, "/building", gin.H{"building_name": "A"})
	require.Equal(t, http.StatusCreated, code)
	a := uint(body["data"].(map[string]interface{})["building_id"].(float64))

	code, _ = s.do(http.MethodPost, "/region", squareBody(a, 0, 0, 10))
	require.Equal(t, http.StatusCreated, code)

	code, body = s.do(http.MethodPost, "/region", squareBody(a, 300, 300, 20))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []interface{}{services.OwnershipMessage("A")}, body["duplicates"])
}

func TestFloorCascadeScenario(t *testing.T) {
	s := newServer(t)
	f := s.db.AddFloor(s.db.AddBuilding("Science"), "1")
	r1 := s.db.AddRoom(f, "S101")
	r2 := s.db.AddRoom(f, "S102")

	code, body := s.do(http.MethodDelete, fmt.Sprintf("/floor/%d", f), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, true, body["error"])
	assert.Contains(t, body["message"], "has rooms")

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/room/%d", r1), nil)
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodDelete, fmt.Sprintf("/room/%d", r2), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["message"], "floor had no rooms left")

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/floor/%d", f), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBuildingWithEmptyFloorScenario(t *testing.T) {
	s := newServer(t)
	x := s.db.AddBuilding("X")
	f := s.db.AddFloor(x, "G")

	code, body := s.do(http.MethodDelete, fmt.Sprintf("/building/%d", x), nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["message"], "has empty floors")

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/floor/%d", f), nil)
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/building/%d", x), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["error"])
}

func TestMutationsRequireAdmin(t *testing.T) {
	s := newServer(t)
	s.token = ""
	code, _ := s.do(http.MethodDelete, "/building/1", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	viewer, err := middleware.NewAuth("routes-test").GenerateToken("guest", "viewer")
	require.NoError(t, err)
	s.token = viewer
	lib := s.db.AddBuilding("library")
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/building/%d", lib), nil)
	assert.Equal(t, http.StatusForbidden, code)
	_, stillThere := s.db.Buildings[lib]
	assert.True(t, stillThere)

	code, _ = s.do(http.MethodGet, "/regions", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.token = ""
	code, _ := s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestMapSocketRejectsMissingToken(t *testing.T) {
	s := newServer(t)
	s.token = ""
	code, body := s.do(http.MethodGet, "/ws/map", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, true, body["error"])
}

func TestAccessLogSharesLogOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(prev) })

	s := newServer(t)
	code, _ := s.do(http.MethodGet, "/regions", nil)
	require.Equal(t, http.StatusOK, code)

	out := buf.String()
	assert.Contains(t, out, "Request")
	assert.Contains(t, out, "/regions")
	assert.NotContains(t, out, "msg=")
}
