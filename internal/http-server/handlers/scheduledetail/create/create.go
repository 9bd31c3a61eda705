package create

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

type ScheduleCreator interface {
	CreateScheduleDetailForStaff(ctx context.Context, accountID int64, req *api.ScheduleDetailRequest) (*api.ScheduleDetail, error)
}

// Request mirrors the mobile API contract: the body is an array of
// registration requests, of which the app only ever sends one.
type Request []api.ScheduleDetailRequest

// New registers a task into a slot on a date for a staff account.
func New(log *slog.Logger, creator ScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scheduledetail.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		accountID, err := strconv.ParseInt(r.URL.Query().Get("accountId"), 10, 64)
		if err != nil {
			log.Error("Invalid accountId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "accountId is required"))
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

		if len(req) == 0 {
			log.Error("request array is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "at least one request is required"))
			return
		}

		item := req[0]

		if item.TaskID == 0 {
			log.Error("taskId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "taskId is required"))
			return
		}

		if item.SlotID == 0 {
			log.Error("slotId is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "slotId is required"))
			return
		}

		if item.Date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		detail, err := creator.CreateScheduleDetailForStaff(r.Context(), accountID, &item)

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrSlotTaken) {
			log.Error("slot already registered")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_TAKEN), response.MsgSlotTaken))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("task is not pending")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "task is not eligible for registration"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to create schedule detail", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create schedule detail"))
			return
		}

		log.Info("Schedule detail created", slog.Any("detail", detail))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, detail)
	}
}
