package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"martyrgrave-service/pkg/response"
	"martyrgrave-service/pkg/sl"
)

type ScheduleDeleter interface {
	DeleteScheduleDetail(ctx context.Context, scheduleDetailID, accountID int64) error
}

// New cancels a registration. A cutoff rejection carries the exact
// user-facing message in the envelope; the client is expected to surface
// it unmodified.
func New(log *slog.Logger, deleter ScheduleDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scheduledetail.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scheduleDetailID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			log.Error("Invalid id", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		accountID, err := strconv.ParseInt(r.URL.Query().Get("accountId"), 10, 64)
		if err != nil {
			log.Error("Invalid accountId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "accountId is required"))
			return
		}

		err = deleter.DeleteScheduleDetail(r.Context(), scheduleDetailID, accountID)

		if errors.Is(err, response.ErrCancelCutoff) {
			log.Error("cancellation cutoff passed", slog.Int64("schedule_detail_id", scheduleDetailID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CANCEL_CUTOFF), response.MsgCancelCutoff))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to delete schedule detail", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete schedule detail"))
			return
		}

		log.Info("Schedule detail deleted", slog.Int64("schedule_detail_id", scheduleDetailID))

		w.WriteHeader(http.StatusNoContent)
	}
}
