package handler

import (
	"net/http"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients & pipeline
// ============================================================

func listClientsHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := crm.ListClients(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "total": len(clients)})
	}
}

func createClientHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.NewClientInput
		if !decodeBody(w, r, &in) {
			return
		}

		c, err := crm.AddClient(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateClientHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/clients/{clientId}")
		defer span.End()

		id := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", id))

		var patch domain.ClientPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		c, err := crm.UpdateClient(ctx, id, patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func updateClientStatusHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}/status")
		defer span.End()

		id := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", id))

		var req statusRequest
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := crm.UpdateClientStatus(ctx, id, domain.ClientStatus(req.Status))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteClientHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		id := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", id))

		if err := crm.DeleteClient(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
