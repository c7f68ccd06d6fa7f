package api

import (
	"net/http"

	"github.com/Domenick1991/tripplanner/internal/service/trips"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/plan", h.plan)
}

func (h *TripHandler) create(c *gin.Context) {
	var req trips.CreateTripInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), currentUser(c), req)
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusCreated, trip, "Trip request created. Plan generation in progress.")
}

func (h *TripHandler) list(c *gin.Context) {
	list, err := h.service.ListTrips(c.Request.Context(), currentUser(c))
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, list, "")
}

func (h *TripHandler) get(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	trip, err := h.service.GetTrip(c.Request.Context(), currentUser(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, trip, "")
}

func (h *TripHandler) plan(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(c.Request.Context(), currentUser(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	respond(c, http.StatusOK, plan, "")
}

func tripID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid trip id")
		return uuid.Nil, false
	}
	return id, true
}
