package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"martyrgrave-service/api"
	"martyrgrave-service/pkg/response"
	"martyrgrave-service/pkg/sl"
)

type TaskLister interface {
	TasksByAccount(ctx context.Context, accountID int64, date string, pageIndex, pageSize int) (*api.TaskPage, error)
}

// New serves the paginated task pool for an account, optionally narrowed
// to tasks whose work window covers a date.
func New(log *slog.Logger, lister TaskLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		accountID, err := strconv.ParseInt(chi.URLParam(r, "accountId"), 10, 64)
		if err != nil {
			log.Error("Invalid accountId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "accountId is required"))
			return
		}

		pageIndex, _ := strconv.Atoi(r.URL.Query().Get("pageIndex"))
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		date := r.URL.Query().Get("date")

		page, err := lister.TasksByAccount(r.Context(), accountID, date, pageIndex, pageSize)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to list tasks", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list tasks"))
			return
		}

		log.Info("Tasks listed",
			slog.Int64("account_id", accountID),
			slog.Int("count", len(page.Items)),
			slog.Int("total", page.TotalCount),
		)

		render.JSON(w, r, page)
	}
}
