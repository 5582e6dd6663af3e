// Package handlers serves the risk check page and the operational endpoints.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/glucorisk/internal/patient"
	"github.com/Skufu/glucorisk/pkg/logger"
	"github.com/Skufu/glucorisk/pkg/response"
)

const pageTemplate = "index.html"

// Cache answers from recorded outcomes. The bool is false when nothing matches.
type Cache interface {
	Lookup(ctx context.Context, rec patient.Record) (patient.Outcome, bool, error)
}

// Predictor classifies a record the cache could not answer.
type Predictor interface {
	Predict(ctx context.Context, rec patient.Record) (patient.Outcome, error)
}

type RiskHandler struct {
	cache     Cache
	predictor Predictor
	log       *zap.Logger
}

func NewRiskHandler(cache Cache, predictor Predictor) *RiskHandler {
	return &RiskHandler{
		cache:     cache,
		predictor: predictor,
		log:       logger.WithModule("handlers"),
	}
}

// Check renders the form, or the assessment when query parameters are present.
func (h *RiskHandler) Check(c *gin.Context) {
	query := c.Request.URL.Query()
	if len(query) == 0 {
		response.Page(c, http.StatusOK, pageTemplate, gin.H{})
		return
	}

	rec, err := patient.FromQuery(query)
	if err != nil {
		response.Error(c, err)
		return
	}

	outcome, err := h.Assess(c.Request.Context(), rec)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Page(c, http.StatusOK, pageTemplate, gin.H{
		"Result": outcome.Message(),
		"Class":  outcome.Class(),
	})
}

// Assess returns the recorded outcome for rec if there is one, otherwise a fresh prediction.
func (h *RiskHandler) Assess(ctx context.Context, rec patient.Record) (patient.Outcome, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	outcome, found, err := h.cache.Lookup(ctx, rec)
	if err != nil {
		return 0, err
	}
	if found {
		h.log.Debug("served from cache", zap.Stringer("outcome", outcome))
		return outcome, nil
	}

	outcome, err = h.predictor.Predict(ctx, rec)
	if err != nil {
		return 0, err
	}
	h.log.Debug("served from model", zap.Stringer("outcome", outcome))
	return outcome, nil
}
