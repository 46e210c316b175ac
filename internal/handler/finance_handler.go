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
// Ledger
// ============================================================

func listFinancialEntriesHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/finance/entries")
		defer span.End()

		search := r.URL.Query().Get("search")
		span.SetAttributes(attribute.String("search", search))

		entries, err := crm.ListFinancialEntries(ctx, search)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})
	}
}

func createFinancialEntryHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/finance/entries")
		defer span.End()

		var in domain.NewFinancialEntryInput
		if !decodeBody(w, r, &in) {
			return
		}

		e, err := crm.AddFinancialEntry(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func deleteFinancialEntryHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/finance/entries/{entryId}")
		defer span.End()

		if err := crm.DeleteFinancialEntry(ctx, chi.URLParam(r, "entryId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func financeSummaryHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/finance/summary")
		defer span.End()

		sum, err := crm.FinanceSummary(ctx, r.URL.Query().Get("search"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// ============================================================
// Fixed costs
// ============================================================

func listFixedCostsHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/fixed-costs")
		defer span.End()

		sum, err := crm.FixedCostSummary(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func createFixedCostHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/fixed-costs")
		defer span.End()

		var in domain.NewFixedCostInput
		if !decodeBody(w, r, &in) {
			return
		}

		c, err := crm.AddFixedCost(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func deleteFixedCostHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/fixed-costs/{costId}")
		defer span.End()

		if err := crm.DeleteFixedCost(ctx, chi.URLParam(r, "costId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateFixedCostStatusHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/fixed-costs/{costId}/status")
		defer span.End()

		var req statusRequest
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := crm.UpdateFixedCostStatus(ctx, chi.URLParam(r, "costId"), domain.FixedCostStatus(req.Status))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
