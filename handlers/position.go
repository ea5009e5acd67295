package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ammiranda/position_service/internal/service"
	"github.com/ammiranda/position_service/models"
	"github.com/ammiranda/position_service/position"
)

// PositionHandler handles grid position HTTP requests
type PositionHandler struct {
	svc *service.Positions
}

// NewPositionHandler creates a new PositionHandler instance
func NewPositionHandler(svc *service.Positions) *PositionHandler {
	return &PositionHandler{
		svc: svc,
	}
}

// RegisterRoutes mounts the position routes on r
func (h *PositionHandler) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/grids", h.ListGrids)
		api.GET("/grids/:grid/positions", h.GetPositions)
		api.POST("/grids/:grid/positions", h.UpdatePositions)
	}
}

// ListGrids returns the registered grid names
func (h *PositionHandler) ListGrids(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"grids": h.svc.Grids()})
}

// GetPositions returns the stored order of one parent's rows
func (h *PositionHandler) GetPositions(c *gin.Context) {
	grid := c.Param("grid")
	parentID, err := strconv.ParseInt(c.Query("parentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parentId must be an integer"})
		return
	}

	rows, err := h.svc.List(c.Request.Context(), grid, parentID)
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.PositionsResponse{
		Grid:      grid,
		ParentID:  parentID,
		Positions: rows,
	})
}

// UpdatePositions reorders one parent's rows
func (h *PositionHandler) UpdatePositions(c *gin.Context) {
	var req models.UpdatePositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate the request
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs, err := h.svc.Reorder(c.Request.Context(), c.Param("grid"), req.ParentID, req.RowUpdates())
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.NewUpdatePositionsResponse(errs))
}

// StatusFor maps a service error to an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGridNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, position.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, position.ErrConnectivity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
