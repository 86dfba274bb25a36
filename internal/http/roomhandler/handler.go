package roomhandler

import (
	"errors"
	"net/http"

	"planningpoker/internal/poker"
	"planningpoker/internal/services/rounds"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	coord    *poker.Coordinator
	roundSvc rounds.IRoundService
}

func New(coord *poker.Coordinator, roundSvc rounds.IRoundService) *Handler {
	return &Handler{coord: coord, roundSvc: roundSvc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms/:id", h.info)
	r.GET("/rooms/:id/rounds", h.rounds)
}

// @Summary		Get room snapshot
// @Description	Returns the live state of a room. Votes are only included once revealed.
// @Tags			Rooms
// @Param			id	path		string	true	"Room ID"	default(team-rocket)
// @Success		200	{object}	poker.RoomSnapshot
// @Failure		404	{object}	ErrorResponse
// @Router			/rooms/{id} [get]
func (h *Handler) info(c *gin.Context) {
	snap, ok := h.coord.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary		List archived rounds
// @Description	Retrieves revealed rounds of a room, newest first.
// @Tags			Rooms
// @Param			id		path		string	true	"Room ID"				default(team-rocket)
// @Param			limit	query		int		false	"Max results (0‑100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		rounds.RoundDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/rooms/{id}/rounds [get]
func (h *Handler) rounds(c *gin.Context) {
	var q ListRoundsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.roundSvc.ListRounds(c.Request.Context(), c.Param("id"), q.Limit, q.Offset)
	switch {
	case errors.Is(err, rounds.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
