package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harvestlink/harvestlink-backend/api/responses"
	"github.com/harvestlink/harvestlink-backend/api/validators"
	"github.com/harvestlink/harvestlink-backend/internal/assignments"
	"github.com/harvestlink/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
	"github.com/harvestlink/harvestlink-backend/pkg/logger"
)

type createAssignmentRequest struct {
	OrderID      int64     `json:"orderId" validate:"required,gt=0"`
	DriverID     int64     `json:"driverId" validate:"required,gt=0"`
	ScheduleTime time.Time `json:"scheduleTime" validate:"required"`
	SpecialNotes *string   `json:"specialNotes"`
}

// AssignmentCreate dispatches an order to a driver with capacity.
func AssignmentCreate(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.CreateAssignment(r.Context(), assignments.CreateInput{
			OrderID:      payload.OrderID,
			DriverID:     payload.DriverID,
			ScheduleTime: payload.ScheduleTime,
			SpecialNotes: payload.SpecialNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

// AssignmentDelete removes an assignment and frees the order and driver.
func AssignmentDelete(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAssignment(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AssignmentList queries assignments by driver or status.
func AssignmentList(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverRaw := strings.TrimSpace(r.URL.Query().Get("driverId"))
		statusRaw := strings.TrimSpace(r.URL.Query().Get("status"))

		switch {
		case driverRaw != "":
			driverID, err := strconv.ParseInt(driverRaw, 10, 64)
			if err != nil || driverID <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "driverId must be a positive integer"))
				return
			}
			rows, err := svc.ListByDriver(r.Context(), driverID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, rows)
		case statusRaw != "":
			rows, err := svc.ListByStatus(r.Context(), enums.AssignmentStatus(statusRaw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, rows)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "driverId or status query is required"))
		}
	}
}

// DriverCapacity reports a driver's remaining delivery capacity.
func DriverCapacity(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := validators.ParseIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		capacity, err := svc.RemainingCapacity(r.Context(), driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, capacity)
	}
}
