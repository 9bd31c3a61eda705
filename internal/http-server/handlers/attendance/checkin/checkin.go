package checkin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"martyrgrave-service/api"
	"martyrgrave-service/pkg/response"
	"martyrgrave-service/pkg/sl"
)

type AttendanceChecker interface {
	CheckAttendanceForStaff(ctx context.Context, staffID int64, req *api.AttendanceCheckRequest) (*api.AttendanceStaff, error)
}

type Request struct {
	api.AttendanceCheckRequest
}

// New records a staff member's arrival at a scheduled slot. Photo paths
// are optional here; requiring at least one is the caller's concern.
func New(log *slog.Logger, checker AttendanceChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance.checkin.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		staffID, err := strconv.ParseInt(r.URL.Query().Get("staffId"), 10, 64)
		if err != nil {
			log.Error("Invalid staffId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "staffId is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.AttendanceID == 0 {
			log.Error("attendanceId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "attendanceId is required"))
			return
		}

		attendance, err := checker.CheckAttendanceForStaff(r.Context(), staffID, &req.AttendanceCheckRequest)

		if errors.Is(err, response.ErrAlreadyChecked) {
			log.Error("attendance already checked in")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), response.MsgAlreadyChecked))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to check attendance", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check attendance"))
			return
		}

		log.Info("Attendance checked in", slog.Int64("attendance_id", attendance.AttendanceID))

		render.JSON(w, r, attendance)
	}
}
