package get

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

type ScheduleGetter interface {
	ScheduleDetailByID(ctx context.Context, accountID, scheduleDetailID int64) (*api.ScheduleDetailInfo, error)
}

func New(log *slog.Logger, getter ScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scheduledetail.get.New"

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

		scheduleDetailID, err := strconv.ParseInt(r.URL.Query().Get("scheduleDetailId"), 10, 64)
		if err != nil {
			log.Error("Invalid scheduleDetailId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "scheduleDetailId is required"))
			return
		}

		info, err := getter.ScheduleDetailByID(r.Context(), accountID, scheduleDetailID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Schedule detail not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get schedule detail", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get schedule detail"))
			return
		}

		log.Info("Schedule detail fetched", slog.Int64("schedule_detail_id", scheduleDetailID))

		render.JSON(w, r, info)
	}
}
