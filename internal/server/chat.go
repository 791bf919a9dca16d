package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerchat/internal/router"
	"github.com/mohammad-safakhou/careerchat/models"
)

const internalErrorMessage = "An unexpected error occurred."

// ChatRouter is the query surface the chat endpoints expose.
type ChatRouter interface {
	Query(ctx context.Context, question, sessionID string) (models.RouterResult, error)
	Reset(ctx context.Context, sessionID string) (int64, error)
	History(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
}

type ChatHandler struct {
	Router ChatRouter
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
	g.DELETE("/reset/:session_id", h.reset)
	g.GET("/history/:session_id", h.history)
}

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type resetResponse struct {
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
}

type historyTurn struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

type historyResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []historyTurn `json:"turns"`
}

func (h *ChatHandler) query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.SessionID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question and session_id are required")
	}
	res, err := h.Router.Query(c.Request().Context(), req.Question, req.SessionID)
	if err != nil {
		return routerError(err)
	}
	if res.Sources == nil {
		res.Sources = []string{}
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ChatHandler) reset(c echo.Context) error {
	sessionID := c.Param("session_id")
	n, err := h.Router.Reset(c.Request().Context(), sessionID)
	if err != nil {
		return routerError(err)
	}
	return c.JSON(http.StatusOK, resetResponse{
		DeletedCount: n,
		Message:      "Chat history for session " + sessionID + " has been reset.",
	})
}

func (h *ChatHandler) history(c echo.Context) error {
	sessionID := c.Param("session_id")
	turns, err := h.Router.History(c.Request().Context(), sessionID)
	if err != nil {
		return routerError(err)
	}
	out := historyResponse{SessionID: sessionID, Turns: make([]historyTurn, 0, len(turns))}
	for _, t := range turns {
		out.Turns = append(out.Turns, historyTurn{ID: t.ID, Role: t.Role, Message: t.Message, Timestamp: t.Timestamp})
	}
	return c.JSON(http.StatusOK, out)
}

// routerError hides internal detail behind a fixed message.
func routerError(err error) error {
	if errors.Is(err, router.ErrInvalidRequest) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, internalErrorMessage).SetInternal(err)
}
