package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fitslotdev/fitslot/internal/domain"
	redisrepo "github.com/fitslotdev/fitslot/internal/repository/redis"
	"github.com/fitslotdev/fitslot/internal/service"
	"github.com/fitslotdev/fitslot/internal/service/catalog"
	"github.com/fitslotdev/fitslot/internal/service/ledger"
)

func NewRouter(
	svcs *service.Services,
	cache *redisrepo.Cache,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/classes", handleListClasses(svcs, cache))
	r.POST("/classes", handleCreateClass(svcs, cache))
	r.PUT("/classes/:id", handleUpdateClass(svcs, cache))
	r.DELETE("/classes/:id", handleDeleteClass(svcs, cache))
	r.POST("/classes/timezone", handleRezone(svcs, cache))

	r.POST("/book", handleCreateBooking(svcs, cache, idem, limiter))
	r.GET("/bookings", handleListBookings(svcs))
	r.DELETE("/bookings/:id", handleDeleteBooking(svcs, cache))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List classes
// @Param    instructor  query  string  false  "filter by instructor"
// @Param    days        query  int     false  "only classes within the next N days"
// @Success  200  {array}  domain.Class
// @Router   /classes [get]
func handleListClasses(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if instructor := c.Query("instructor"); instructor != "" {
			writeJSONWithCache(c, http.StatusOK, svcs.Catalog.ByInstructor(instructor), "public, max-age=15", true)
			return
		}

		if daysStr := c.Query("days"); daysStr != "" {
			days, err := strconv.Atoi(daysStr)
			if err != nil || days < 0 {
				badRequest(c, "invalid days")
				return
			}
			writeJSONWithCache(c, http.StatusOK, svcs.Catalog.Upcoming(days), "public, max-age=15", true)
			return
		}

		if cache != nil {
			classes, err := redisrepo.GetOrSetJSON(
				c.Request.Context(),
				cache,
				redisrepo.KeyClassList(),
				15*time.Second,
				func(ctx context.Context) ([]domain.Class, error) {
					return svcs.Catalog.List(), nil
				},
			)
			if err == nil {
				writeJSONWithCache(c, http.StatusOK, classes, "public, max-age=15", true)
				return
			}
			// cache trouble falls through to the in-memory list
		}

		writeJSONWithCache(c, http.StatusOK, svcs.Catalog.List(), "public, max-age=15", true)
	}
}

// @Summary  Create class
// @Param    req  body  CreateClassRequest  true  "payload"
// @Success  201  {object}  domain.Class
// @Failure  400  {object}  ErrorResponse
// @Router   /classes [post]
func handleCreateClass(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateClassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		// An omitted zone falls back to the studio default before the
		// timestamp is parsed, so a naive date_time is anchored in the
		// same zone the class record will carry.
		tz := req.Timezone
		if tz == "" {
			tz = svcs.Catalog.DefaultTimezone()
		}

		dt, err := parseClassTime(req.DateTime, tz)
		if err != nil {
			badRequest(c, "invalid date_time")
			return
		}

		created, err := svcs.Catalog.Create(catalog.CreateInput{
			Name:            req.Name,
			Instructor:      req.Instructor,
			DateTime:        dt,
			TotalSlots:      req.TotalSlots,
			DurationMinutes: req.DurationMinutes,
			Timezone:        tz,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)
		c.JSON(http.StatusCreated, created)
	}
}

// @Summary  Update class (partial merge)
// @Param    id   path  string              true  "Class ID"
// @Param    req  body  UpdateClassRequest  true  "fields to change"
// @Success  200  {object}  domain.Class
// @Failure  404  {object}  ErrorResponse
// @Router   /classes/{id} [put]
func handleUpdateClass(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateClassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		updated, err := svcs.Catalog.Update(c.Param("id"), catalog.UpdatePatch{
			Name:           req.Name,
			Instructor:     req.Instructor,
			AvailableSlots: req.AvailableSlots,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)
		c.JSON(http.StatusOK, updated)
	}
}

// @Summary  Delete class
// @Param    id  path  string  true  "Class ID"
// @Success  200  {object}  MessageResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /classes/{id} [delete]
func handleDeleteClass(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Catalog.Delete(c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)
		c.JSON(http.StatusOK, MessageResponse{Message: "Class deleted successfully"})
	}
}

// @Summary  Shift all classes to a new timezone
// @Param    req  body  RezoneRequest  true  "payload"
// @Success  200  {object}  MessageResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /classes/timezone [post]
func handleRezone(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RezoneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Catalog.Rezone(req.Timezone); err != nil {
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)
		c.JSON(http.StatusOK, MessageResponse{Message: "Updated all class times to " + req.Timezone})
	}
}

// @Summary  Book a class (idempotent with Idempotency-Key)
// @Param    req  body  CreateBookingRequest  true  "payload"
// @Success  201  {object}  domain.Booking
// @Failure  400  {object}  ErrorResponse  "past class / no capacity / duplicate / validation"
// @Failure  404  {object}  ErrorResponse  "class not found"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /book [post]
func handleCreateBooking(
	svcs *service.Services,
	cache *redisrepo.Cache,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if limiter != nil {
			ok, _, retry, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
			if err == nil && !ok {
				c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		booking, err := svcs.Ledger.Book(c.Request.Context(), req.ClassID, req.ClientName, req.ClientEmail)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(booking)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, booking)
	}
}

// @Summary  List bookings by client email
// @Param    email  query  string  true  "client email"
// @Success  200  {array}   domain.BookingDetail
// @Failure  400  {object}  ErrorResponse  "missing email"
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			badRequest(c, "Email parameter is required")
			return
		}

		c.JSON(http.StatusOK, svcs.Ledger.ListByClient(email))
	}
}

// @Summary  Cancel a booking, restoring its slot
// @Param    id  path  string  true  "Booking ID"
// @Success  200  {object}  MessageResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [delete]
func handleDeleteBooking(svcs *service.Services, cache *redisrepo.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Ledger.Cancel(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		invalidateClasses(c, cache)
		c.JSON(http.StatusOK, MessageResponse{Message: "Booking deleted successfully"})
	}
}

// --- Helpers ---

func invalidateClasses(c *gin.Context, cache *redisrepo.Cache) {
	if cache != nil {
		_ = cache.InvalidateClasses(c.Request.Context())
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// catalog service
	case errors.Is(err, catalog.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Class not found"})
		return
	case errors.Is(err, catalog.ErrInvalidClass):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, catalog.ErrUnknownTimezone):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown timezone"})
		return
	// ledger service
	case errors.Is(err, ledger.ErrClassNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Class not found"})
		return
	case errors.Is(err, ledger.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Booking not found"})
		return
	case errors.Is(err, ledger.ErrClassInPast):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot book classes in the past"})
		return
	case errors.Is(err, ledger.ErrNoCapacity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No slots available"})
		return
	case errors.Is(err, ledger.ErrDuplicateBooking):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "You have already booked this class"})
		return
	case errors.Is(err, ledger.ErrInvalidBooking):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
