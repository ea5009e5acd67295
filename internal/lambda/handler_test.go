package lambda

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/position_service/internal/service"
	"github.com/ammiranda/position_service/lock"
	"github.com/ammiranda/position_service/models"
	"github.com/ammiranda/position_service/position"
)

type stubUpdater struct {
	current []position.RowPosition
	errs    []position.FieldError
	last    *position.Request
}

func (s *stubUpdater) Update(ctx context.Context, req *position.Request) ([]position.FieldError, error) {
	s.last = req
	return s.errs, nil
}

func (s *stubUpdater) CurrentPositions(ctx context.Context, def position.Definition, parentID int64) ([]position.RowPosition, error) {
	return s.current, nil
}

func setupHandler(t *testing.T, updater *stubUpdater) *Handler {
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
	return NewHandler(service.NewPositions(updater, registry, lock.NewMemoryLocker(), logger))
}

func TestHandleUpdatePositions(t *testing.T) {
	updater := &stubUpdater{errs: []position.FieldError{{
		Key:        position.RowUpdateErrorKey,
		Domain:     position.DefaultErrorDomain,
		Parameters: []any{int64(11)},
	}}}
	handler := setupHandler(t, updater)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/api/grids/attribute/positions",
		Body:       `{"parentId": 3, "positions": [{"rowId": 11, "newPosition": -1}]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.UpdatePositionsResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "Could not update #11", body.Errors[0].Message)

	require.NotNil(t, updater.last)
	assert.Equal(t, int64(3), updater.last.ParentID)
	assert.Equal(t, []position.RowUpdate{{RowID: 11, NewPosition: -1}}, updater.last.RowUpdates)
}

func TestHandleGetPositions(t *testing.T) {
	updater := &stubUpdater{current: []position.RowPosition{{RowID: 10, Position: 0}}}
	handler := setupHandler(t, updater)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/api/grids/attribute/positions",
		QueryStringParameters: map[string]string{"parentId": "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"grid": "attribute", "parentId": 3, "positions": [{"rowId": 10, "position": 0}]}`, resp.Body)
}

func TestHandleErrors(t *testing.T) {
	handler := setupHandler(t, &stubUpdater{})

	testCases := []struct {
		name    string
		request events.APIGatewayProxyRequest
		status  int
	}{
		{
			name:    "Unknown path",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/tree"},
			status:  http.StatusNotFound,
		},
		{
			name:    "Unknown grid",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/grids/feature/positions", Body: `{"parentId": 1}`},
			status:  http.StatusNotFound,
		},
		{
			name:    "Invalid body",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/grids/attribute/positions", Body: `{`},
			status:  http.StatusBadRequest,
		},
		{
			name:    "Missing parent",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/grids/attribute/positions", Body: `{}`},
			status:  http.StatusBadRequest,
		},
		{
			name:    "Bad parent query",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/grids/attribute/positions"},
			status:  http.StatusBadRequest,
		},
		{
			name:    "Wrong method",
			request: events.APIGatewayProxyRequest{HTTPMethod: http.MethodDelete, Path: "/api/grids/attribute/positions"},
			status:  http.StatusMethodNotAllowed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := handler.Handle(context.Background(), tc.request)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, resp.Body, `"error"`)
		})
	}
}

func TestHandleListGrids(t *testing.T) {
	handler := setupHandler(t, &stubUpdater{})

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/grids"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"grids": ["attribute"]}`, resp.Body)
}

func TestGridFromPath(t *testing.T) {
	grid, ok := gridFromPath("/api/grids/attribute/positions")
	assert.True(t, ok)
	assert.Equal(t, "attribute", grid)

	for _, path := range []string{"/api/grids//positions", "/api/grids/a/b/positions", "/api/grids/attribute", "/positions"} {
		_, ok := gridFromPath(path)
		assert.False(t, ok, path)
	}
}
