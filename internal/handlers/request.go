package handlers

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/cosinor/internal/analytics"
	"github.com/soltixdb/cosinor/internal/middleware"
	"github.com/soltixdb/cosinor/internal/models"
	"github.com/soltixdb/cosinor/internal/services"
	"github.com/soltixdb/cosinor/internal/utils"
)

// SpreadsheetField is the multipart file field carrying the upload
const SpreadsheetField = "spreadsheet"

func badRequest(c *fiber.Ctx, code, message string, details map[string]interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Path:    c.Path(),
			Details: details,
		},
	})
}

func invalidJSON(c *fiber.Ctx, err error) error {
	return badRequest(c, "INVALID_JSON", "Failed to parse JSON body", map[string]interface{}{"error": err.Error()})
}

// serviceError renders err, classifying it first when needed
func serviceError(c *fiber.Ctx, err error) error {
	return middleware.WriteServiceError(c, services.FromError(err))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formValues flattens decoded JSON values into form strings, dropping what a
// form could not carry
func formValues(raw map[string]interface{}, skip ...string) map[string]string {
	out := make(map[string]string, len(raw))
outer:
	for k, v := range raw {
		for _, s := range skip {
			if k == s {
				continue outer
			}
		}
		if s, ok := utils.FormValue(v); ok {
			out[k] = s
		}
	}
	return out
}

// multipartValues takes the first value of every non-file field
func multipartValues(form *multipart.Form) map[string]string {
	out := make(map[string]string, len(form.Value))
	for k, vs := range form.Value {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// floatSlice converts a decoded JSON array to floats
func floatSlice(name string, v interface{}) ([]float64, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of numbers", name)
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := utils.ToFloat64(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not a number", name, i)
		}
		out[i] = f
	}
	return out, nil
}

// readUpload parses the spreadsheet file of a multipart request
func (h *Handler) readUpload(c *fiber.Ctx, form *multipart.Form) (analytics.Series, error) {
	files := form.File[SpreadsheetField]
	if len(files) == 0 {
		return analytics.Series{}, services.NewServiceError(services.CodeInvalidSpreadsheet,
			fmt.Sprintf("multipart field %q is required", SpreadsheetField))
	}
	fh := files[0]
	if !h.ingest.AllowsExtension(fh.Filename) {
		return analytics.Series{}, services.NewServiceErrorWithDetails(services.CodeInvalidSpreadsheet,
			fmt.Sprintf("file type of %q is not accepted", fh.Filename),
			map[string]interface{}{"allowed_extensions": h.ingest.AllowedExtensions})
	}

	f, err := fh.Open()
	if err != nil {
		return analytics.Series{}, services.NewServiceError(services.CodeInvalidSpreadsheet, err.Error())
	}
	defer func() { _ = f.Close() }()

	h.logger.WithContext(c.UserContext()).Debug("Reading spreadsheet upload", "filename", fh.Filename, "bytes", fh.Size)
	return h.service.ParseSpreadsheet(fh.Filename, f)
}
