package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatus handles the GET /api/status request with the outcome of the
// most recent update pass.
func (h *Handler) GetStatus(c *gin.Context) {
	status, ok := h.updater.LastStatus()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no update has run yet"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// PostRefresh handles the POST /api/refresh request. It runs a pass right
// away and returns its status; a failed pass answers 502 with the same body.
func (h *Handler) PostRefresh(c *gin.Context) {
	status, err := h.updater.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

type previewResponse struct {
	FirstName string `json:"first_name"`
	Message   string `json:"message"`
}

// GetPreview handles the GET /api/preview?name= request, showing the
// welcome message a guest name would produce.
func (h *Handler) GetPreview(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	first, message := h.updater.Preview(name)
	c.JSON(http.StatusOK, previewResponse{FirstName: first, Message: message})
}

// GetHealth handles the GET /healthz request.
func GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
