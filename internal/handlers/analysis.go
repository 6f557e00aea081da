package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cosinor/internal/analysis"
	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/models"
	"github.com/soltixdb/cosinor/internal/services"
)

// ListAnalyses handles GET /v1/analyses
func (h *Handler) ListAnalyses(c *fiber.Ctx) error {
	list := h.service.List()
	resp := models.AnalysisListResponse{Analyses: make([]models.AnalysisInfo, len(list))}
	for i, a := range list {
		resp.Analyses[i] = models.AnalysisInfo{
			Name:        a.Name(),
			Description: a.Description(),
			Form:        a.Form(),
		}
	}
	return c.JSON(resp)
}

// GetAnalysis handles GET /v1/analyses/:name
func (h *Handler) GetAnalysis(c *fiber.Ctx) error {
	a, err := analysis.Get(c.Params("name"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(models.AnalysisInfo{Name: a.Name(), Description: a.Description(), Form: a.Form()})
}

// RunAnalysis handles POST /v1/analyses/:name. The body is either an
// AnalysisRequest or a multipart form with a spreadsheet file and the form
// fields.
func (h *Handler) RunAnalysis(c *fiber.Ctx) error {
	name := c.Params("name")

	var (
		series analytics.Series
		values map[string]string
	)
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "INVALID_FORM", "Failed to parse multipart form", map[string]interface{}{"error": err.Error()})
		}
		if series, err = h.readUpload(c, form); err != nil {
			return serviceError(c, err)
		}
		values = multipartValues(form)
	} else {
		var body models.AnalysisRequest
		if err := c.BodyParser(&body); err != nil {
			return invalidJSON(c, err)
		}
		series = analytics.Series{Time: body.X, Data: body.Y}
		values = formValues(body.Values)
	}

	res, err := h.service.Run(c.UserContext(), name, series, values)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.AnalysisResponse{
		RunID:      res.RunID,
		Analysis:   res.Output.Analysis,
		Samples:    series.Len(),
		DurationMS: res.Duration.Milliseconds(),
		Result:     res.Output.Result,
		Metrics:    res.Output.Metrics,
		Curve:      res.Output.Curve,
		Text:       res.Output.Text,
	})
}

// ParseSpreadsheet handles POST /v1/spreadsheet/parse
func (h *Handler) ParseSpreadsheet(c *fiber.Ctx) error {
	if !isMultipart(c) {
		return badRequest(c, "INVALID_FORM", "multipart/form-data upload expected", nil)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "INVALID_FORM", "Failed to parse multipart form", map[string]interface{}{"error": err.Error()})
	}

	series, err := h.readUpload(c, form)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(models.SpreadsheetResponse{X: series.Time, Y: series.Data})
}

// Regression handles POST /v1/regression and returns only the fitted
// parameters
func (h *Handler) Regression(c *fiber.Ctx) error {
	var body models.RegressionRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	x, err := floatSlice("x", body["x"])
	if err != nil {
		return badRequest(c, services.CodeInvalidInput, err.Error(), nil)
	}
	y, err := floatSlice("y", body["y"])
	if err != nil {
		return badRequest(c, services.CodeInvalidInput, err.Error(), nil)
	}

	params, err := h.service.Regression(c.UserContext(), analytics.Series{Time: x, Data: y}, formValues(body, "x", "y"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(models.RegressionResponse{H: params.H, B: params.B, V: params.V, P: params.P})
}
