package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"martyrgrave-service/api"
	"martyrgrave-service/pkg/response"
	"martyrgrave-service/pkg/sl"
)

type SlotLister interface {
	ListSlots(ctx context.Context) ([]*api.Slot, error)
}

// New serves the slot catalog. The body is a bare array ordered by start
// time, the shape the mobile client consumes.
func New(log *slog.Logger, lister SlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		slots, err := lister.ListSlots(r.Context())
		if err != nil {
			log.Error("Failed to list slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list slots"))
			return
		}

		log.Info("Slots listed", slog.Int("count", len(slots)))

		result := make([]api.Slot, len(slots))
		for i, slot := range slots {
			result[i] = *slot
		}

		render.JSON(w, r, result)
	}
}
