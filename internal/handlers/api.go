package handlers

import (
	"errors"
	"log"
	"net/http"

	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
)

// APIHandler serves the read-only listing API, authorized by an opaque
// per-user API key instead of a session.
type APIHandler struct {
	svc *service.TodoService
}

func NewAPIHandler(svc *service.TodoService) *APIHandler {
	return &APIHandler{svc: svc}
}

// ListByKey godoc
// @Summary      List the key owner's active todos, due date ascending
// @Tags         todo_api
// @Produce      json
// @Param        api_key  path  string  true  "API key"
// @Success      200  {object}  map[int64]service.APITodo
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /todo_api/{api_key} [get]
func (h *APIHandler) ListByKey(c *gin.Context) {
	todos, err := h.svc.ListByAPIKey(c.Request.Context(), c.Param("api_key"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownAPIKey) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such API key"})
			return
		}
		log.Printf("api list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, todos)
}
