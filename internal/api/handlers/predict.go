package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// UploadField is the multipart form field carrying the audio file.
const UploadField = "file"

// Predict classifies one uploaded file, records it in the history and
// returns the prediction. Nothing is recorded unless classification succeeds.
func (h *Handlers) Predict(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return h.HandleError(c, httpErr, "upload rejected")
		}
		return h.HandleError(c, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "parse-multipart").
			Build(), "multipart form with a file field is required")
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File[UploadField]
	switch {
	case len(files) == 0:
		return h.HandleError(c, errors.ValidationError("missing upload field "+UploadField),
			"exactly one file is required in field "+UploadField)
	case len(files) > 1:
		return h.HandleError(c, errors.ValidationError(fmt.Sprintf("got %d files in field %s", len(files), UploadField)),
			"exactly one file is required in field "+UploadField)
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return h.HandleError(c, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			FileContext(header.Filename, header.Size).
			Build(), "uploaded file could not be read")
	}
	defer func() { _ = file.Close() }()

	if h.metrics != nil {
		h.metrics.RecordUpload(header.Size)
	}

	ctx := c.Request().Context()
	prediction, err := h.classifier.Classify(ctx, classifier.Input{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		return h.HandleError(c, err, "classification failed")
	}

	entry, err := h.store.Append(ctx, prediction)
	if err != nil {
		return h.HandleError(c, err, "failed to record prediction")
	}

	if h.publisher != nil {
		h.publisher.PublishPrediction(entry, prediction)
	}

	h.log.WithContext(ctx).Debug("prediction recorded",
		logger.Int64("id", entry.ID),
		logger.String("label", prediction.Label),
		logger.Float64("confidence", prediction.Confidence),
		logger.String("classifier", h.classifier.Name()))

	return c.JSON(http.StatusOK, prediction)
}
