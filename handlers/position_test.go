package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/position_service/internal/service"
	"github.com/ammiranda/position_service/lock"
	"github.com/ammiranda/position_service/models"
	"github.com/ammiranda/position_service/position"
	"github.com/ammiranda/position_service/repository"
)

func setupRouter(t *testing.T) (*gin.Engine, *repository.SQLiteRepository) {
	gin.SetMode(gin.TestMode)

	repo := repository.NewSQLiteRepository(filepath.Join(t.TempDir(), "positions.db"))
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() {
		if err := repo.Cleanup(context.Background()); err != nil {
			t.Errorf("Failed to cleanup repository: %v", err)
		}
	})

	_, err := repo.DB().Exec(`
		INSERT INTO attribute_group (id_attribute_group, name) VALUES (1, 'Color'), (2, 'Size');
		INSERT INTO attribute (id_attribute, id_attribute_group, name, position) VALUES
			(10, 1, 'Red', 0), (11, 1, 'Green', 1), (12, 1, 'Blue', 2),
			(20, 2, 'S', 0);
	`)
	require.NoError(t, err)

	registry := position.NewRegistry()
	require.NoError(t, registry.Register("attribute", position.Definition{
		Table:              "attribute",
		ParentTable:        "attribute_group",
		IDField:            "id_attribute",
		PositionField:      "position",
		ParentIDField:      "id_attribute_group",
		ParentTableIDField: "id_attribute_group",
	}))

	logger, _ := logtest.NewNullLogger()
	updater := position.NewUpdater(repo.DB(), "", position.WithDialect(repo.Dialect()), position.WithLogger(logger))
	svc := service.NewPositions(updater, registry, lock.NewMemoryLocker(), logger)

	router := gin.New()
	NewPositionHandler(svc).RegisterRoutes(router)
	return router, repo
}

func postPositions(t *testing.T, router *gin.Engine, grid string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "/api/grids/"+grid+"/positions", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPositions(t *testing.T, router *gin.Engine, path string) models.PositionsResponse {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response models.PositionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestUpdatePositions(t *testing.T) {
	router, _ := setupRouter(t)

	w := postPositions(t, router, "attribute", map[string]any{
		"parentId":  1,
		"positions": []map[string]any{{"rowId": 12, "newPosition": -1}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"errors": []}`, w.Body.String())

	response := getPositions(t, router, "/api/grids/attribute/positions?parentId=1")
	assert.Equal(t, "attribute", response.Grid)
	assert.Equal(t, int64(1), response.ParentID)
	assert.Equal(t, []position.RowPosition{
		{RowID: 12, Position: 0},
		{RowID: 10, Position: 1},
		{RowID: 11, Position: 2},
	}, response.Positions)
}

func TestUpdatePositionsReportsRowFailures(t *testing.T) {
	router, repo := setupRouter(t)
	_, err := repo.DB().Exec(`
		CREATE TRIGGER attribute_locked BEFORE UPDATE OF position ON attribute
		WHEN OLD.id_attribute = 10
		BEGIN
			SELECT RAISE(ABORT, 'attribute 10 is locked');
		END;
	`)
	require.NoError(t, err)

	w := postPositions(t, router, "attribute", map[string]any{
		"parentId":  1,
		"positions": []map[string]any{{"rowId": 10, "newPosition": 9}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response models.UpdatePositionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Errors, 1)
	assert.Equal(t, "Could not update #%i", response.Errors[0].Key)
	assert.Equal(t, "Admin.Catalog.Notification", response.Errors[0].Domain)
	assert.Equal(t, []any{float64(10)}, response.Errors[0].Parameters)
	assert.Equal(t, "Could not update #10", response.Errors[0].Message)
}

func TestUpdatePositionsBadRequests(t *testing.T) {
	router, _ := setupRouter(t)

	testCases := []struct {
		name   string
		grid   string
		body   any
		status int
	}{
		{name: "Malformed JSON", grid: "attribute", body: "not an object", status: http.StatusBadRequest},
		{name: "Missing parent", grid: "attribute", body: map[string]any{"positions": []any{}}, status: http.StatusBadRequest},
		{
			name:   "Missing new position",
			grid:   "attribute",
			body:   map[string]any{"parentId": 1, "positions": []map[string]any{{"rowId": 10}}},
			status: http.StatusBadRequest,
		},
		{name: "Unknown grid", grid: "feature", body: map[string]any{"parentId": 1}, status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postPositions(t, router, tc.grid, tc.body)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestGetPositions(t *testing.T) {
	router, _ := setupRouter(t)

	response := getPositions(t, router, "/api/grids/attribute/positions?parentId=2")
	assert.Equal(t, []position.RowPosition{{RowID: 20, Position: 0}}, response.Positions)

	testCases := []struct {
		name   string
		path   string
		status int
	}{
		{name: "Missing parent", path: "/api/grids/attribute/positions", status: http.StatusBadRequest},
		{name: "Zero parent", path: "/api/grids/attribute/positions?parentId=0", status: http.StatusBadRequest},
		{name: "Unknown grid", path: "/api/grids/feature/positions?parentId=1", status: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestListGrids(t *testing.T) {
	router, _ := setupRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/grids", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"grids": ["attribute"]}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(service.ErrGridNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(service.ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, StatusFor(position.ErrInvalidRequest))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(position.ErrConnectivity))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
