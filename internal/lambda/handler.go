package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/ammiranda/position_service/handlers"
	"github.com/ammiranda/position_service/internal/service"
	"github.com/ammiranda/position_service/models"
)

// Handler represents the Lambda handler with its dependencies
type Handler struct {
	svc *service.Positions
}

// NewHandler creates a new Handler with the given service
func NewHandler(svc *service.Positions) *Handler {
	return &Handler{
		svc: svc,
	}
}

// Handle processes API Gateway events
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.Path == "/api/grids" && request.HTTPMethod == http.MethodGet {
		return jsonResponse(http.StatusOK, map[string][]string{"grids": h.svc.Grids()}), nil
	}

	grid, ok := gridFromPath(request.Path)
	if !ok {
		return errorResponse(http.StatusNotFound, "Not found"), nil
	}

	// Route the request based on HTTP method
	switch request.HTTPMethod {
	case http.MethodGet:
		return h.handleGetPositions(ctx, grid, request)
	case http.MethodPost:
		return h.handleUpdatePositions(ctx, grid, request)
	default:
		return errorResponse(http.StatusMethodNotAllowed, "Method not allowed"), nil
	}
}

func (h *Handler) handleGetPositions(ctx context.Context, grid string, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	parentID, err := strconv.ParseInt(request.QueryStringParameters["parentId"], 10, 64)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "parentId must be an integer"), nil
	}

	rows, err := h.svc.List(ctx, grid, parentID)
	if err != nil {
		return errorResponse(handlers.StatusFor(err), err.Error()), nil
	}

	return jsonResponse(http.StatusOK, models.PositionsResponse{
		Grid:      grid,
		ParentID:  parentID,
		Positions: rows,
	}), nil
}

func (h *Handler) handleUpdatePositions(ctx context.Context, grid string, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.UpdatePositionsRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err)), nil
	}

	// Validate the request
	if err := req.Validate(); err != nil {
		return errorResponse(http.StatusBadRequest, err.Error()), nil
	}

	errs, err := h.svc.Reorder(ctx, grid, req.ParentID, req.RowUpdates())
	if err != nil {
		return errorResponse(handlers.StatusFor(err), err.Error()), nil
	}

	return jsonResponse(http.StatusOK, models.NewUpdatePositionsResponse(errs)), nil
}

// gridFromPath extracts the grid of /api/grids/{grid}/positions
func gridFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/grids/")
	if !ok {
		return "", false
	}
	grid, ok := strings.CutSuffix(rest, "/positions")
	if !ok || grid == "" || strings.Contains(grid, "/") {
		return "", false
	}
	return grid, true
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, fmt.Sprintf("Failed to marshal response: %v", err))
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}
