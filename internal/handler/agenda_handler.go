package handler

import (
	"net/http"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"go.uber.org/zap"
)

func listMeetingsHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/meetings")
		defer span.End()

		meetings, err := crm.ListMeetings(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings, "total": len(meetings)})
	}
}

func createMeetingHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/meetings")
		defer span.End()

		var in domain.NewMeetingInput
		if !decodeBody(w, r, &in) {
			return
		}

		m, err := crm.AddMeeting(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}
