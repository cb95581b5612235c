package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/service/events"
)

type EventHandler struct {
	service events.EventUseCase
}

type eventResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Venue        string `json:"venue"`
	StartsAt     string `json:"starts_at"`
	PriceCents   int64  `json:"price_cents"`
	MaxAttendees int    `json:"max_attendees"`
}

type availabilityResponse struct {
	EventID        int64 `json:"event_id"`
	MaxAttendees   int   `json:"max_attendees"`
	Confirmed      int   `json:"confirmed"`
	AvailableSlots int   `json:"available_slots"`
}

type packageAvailabilityResponse struct {
	PackageID         int64 `json:"package_id"`
	MaxBookings       int   `json:"max_bookings"`
	BookingCount      int   `json:"booking_count"`
	AvailableBookings int   `json:"available_bookings"`
}

type attendeeResponse struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
}

func NewEventHandler(service events.EventUseCase) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) Register(router *gin.RouterGroup, packagesRouter *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
	router.POST("/:id/register", AuthRequired(), h.register)
	packagesRouter.GET("/:id/availability", h.packageAvailability)
}

func (h *EventHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]eventResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toEventResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) availability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	avail, err := h.service.Availability(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{
		EventID:        avail.EventID,
		MaxAttendees:   avail.MaxAttendees,
		Confirmed:      avail.Confirmed,
		AvailableSlots: avail.AvailableSlots,
	})
}

func (h *EventHandler) packageAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid package id"})
		return
	}

	avail, err := h.service.PackageAvailability(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, packageAvailabilityResponse{
		PackageID:         avail.PackageID,
		MaxBookings:       avail.MaxBookings,
		BookingCount:      avail.BookingCount,
		AvailableBookings: avail.AvailableBookings,
	})
}

func (h *EventHandler) register(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	attendee, err := h.service.Register(c.Request.Context(), id, authenticatedUser(c))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, attendeeResponse{
		ID:      attendee.ID,
		EventID: attendee.EventID,
		UserID:  attendee.UserID,
		Status:  string(attendee.Status),
	})
}

func toEventResponse(e *domain.Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Venue:        e.Venue,
		StartsAt:     e.StartsAt.Format(time.RFC3339),
		PriceCents:   e.PriceCents,
		MaxAttendees: e.MaxAttendees,
	}
}
