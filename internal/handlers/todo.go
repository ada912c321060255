package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"todoweb/internal/auth"
	dom "todoweb/internal/domain"
	"todoweb/internal/dto"
	"todoweb/internal/repo"
	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// Create godoc
// @Summary      Create a todo with a free-text due date
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoResponse
// @Failure      400   {object}  map[string]string
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := auth.UserIDFromContext(c)
	t, err := h.svc.Add(c.Request.Context(), userID, req.Text, req.Due, time.Now(), c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrUnparseableDueDate) {
			// Echo the input back so the client can re-show it for correction.
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not understand due date", "due": req.Due})
			return
		}
		h.serverError(c, "create todo", err)
		return
	}
	c.JSON(http.StatusCreated, presentOne(t))
}

// List godoc
// @Summary      List active todos ordered by due date
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        order  query  string  false  "asc or desc (default desc)"
// @Success      200  {object}  dto.ListTodosResponse
// @Failure      500  {object}  map[string]string
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	order := repo.Descending
	if c.Query("order") == string(repo.Ascending) {
		order = repo.Ascending
	}
	list, err := h.svc.ListView(c.Request.Context(), userID, order)
	if err != nil {
		h.serverError(c, "list todos", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{Items: toResponses(list), Order: string(order)})
}

// Deleted godoc
// @Summary      List soft-deleted todos
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListTodosResponse
// @Failure      500  {object}  map[string]string
// @Router       /todos/deleted [get]
func (h *TodoHandler) Deleted(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	list, err := h.svc.ListDeletedView(c.Request.Context(), userID)
	if err != nil {
		h.serverError(c, "list deleted todos", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{Items: toResponses(list)})
}

// Toggle godoc
// @Summary      Flip a todo's completed flag
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := auth.UserIDFromContext(c)
	t, err := h.svc.ToggleCompletion(c.Request.Context(), userID, id)
	if err != nil {
		h.todoError(c, "toggle todo", err)
		return
	}
	c.JSON(http.StatusOK, presentOne(t))
}

// Delete godoc
// @Summary      Soft-delete a todo
// @Tags         todos
// @Security     CookieAuth
// @Param        id   path  int  true  "Todo ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := auth.UserIDFromContext(c)
	if err := h.svc.Delete(c.Request.Context(), userID, id, time.Now(), c.ClientIP()); err != nil {
		h.todoError(c, "delete todo", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Restore godoc
// @Summary      Restore a soft-deleted todo
// @Tags         todos
// @Security     CookieAuth
// @Param        id   path  int  true  "Todo ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id}/restore [post]
func (h *TodoHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := auth.UserIDFromContext(c)
	if err := h.svc.Restore(c.Request.Context(), userID, id, time.Now(), c.ClientIP()); err != nil {
		h.todoError(c, "restore todo", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activity godoc
// @Summary      View the account's audit log, newest first
// @Tags         activity
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.ListActivityResponse
// @Failure      500  {object}  map[string]string
// @Router       /activity [get]
func (h *TodoHandler) Activity(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	entries, err := h.svc.Activity(c.Request.Context(), userID)
	if err != nil {
		h.serverError(c, "list activity", err)
		return
	}
	out := make([]dto.ActivityResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.ActivityResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Time:      e.CreatedAt,
			IPAddress: e.IPAddress,
			Detail:    e.Detail,
		}
	}
	c.JSON(http.StatusOK, dto.ListActivityResponse{Items: out})
}

func (h *TodoHandler) todoError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		h.serverError(c, op, err)
	}
}

func (h *TodoHandler) serverError(c *gin.Context, op string, err error) {
	log.Printf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func presentOne(t dom.Todo) dto.TodoResponse {
	p := service.Present(t)
	return dto.TodoResponse{
		ID:        p.ID,
		Text:      p.Body,
		Completed: p.Completed,
		Deleted:   p.Deleted,
		DueDate:   p.DueDate,
		CreatedAt: p.CreatedAt,
	}
}

func toResponses(list []service.PresentedTodo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i, p := range list {
		out[i] = dto.TodoResponse{
			ID:        p.ID,
			Text:      p.Body,
			Completed: p.Completed,
			Deleted:   p.Deleted,
			DueDate:   p.DueDate,
			CreatedAt: p.CreatedAt,
		}
	}
	return out
}
