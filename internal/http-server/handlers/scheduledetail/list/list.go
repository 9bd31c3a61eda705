package list

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

type ScheduleLister interface {
	SchedulesForStaff(ctx context.Context, accountID int64, fromDate, toDate string, slotID *int64) ([]*api.ScheduleDetail, error)
}

// New serves a staff member's schedule entries for a date range. An
// optional slotId filter narrows the query to one slot. An account with
// no entries gets an empty array, not an error.
func New(log *slog.Logger, lister ScheduleLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scheduledetail.list.New"

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

		fromDate := r.URL.Query().Get("FromDate")
		toDate := r.URL.Query().Get("ToDate")

		// The per-slot variant sends a single Date instead of a range.
		if fromDate == "" && toDate == "" {
			if date := r.URL.Query().Get("Date"); date != "" {
				fromDate, toDate = date, date
			}
		}

		if fromDate == "" || toDate == "" {
			log.Error("FromDate or ToDate is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "FromDate and ToDate are required"))
			return
		}

		var slotID *int64
		if raw := r.URL.Query().Get("slotId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				log.Error("Invalid slotId", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid slotId"))
				return
			}
			slotID = &id
		}

		details, err := lister.SchedulesForStaff(r.Context(), accountID, fromDate, toDate, slotID)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid date range", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to list schedules", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list schedules"))
			return
		}

		log.Info("Schedules listed", slog.Int64("account_id", accountID), slog.Int("count", len(details)))

		result := make([]api.ScheduleDetail, len(details))
		for i, detail := range details {
			result[i] = *detail
		}

		render.JSON(w, r, result)
	}
}
