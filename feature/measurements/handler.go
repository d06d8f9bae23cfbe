package measurements

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"measurement-extractor/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Handler handles HTTP requests for extractions.
type Handler struct {
	service *Service
	logger  *zap.Logger
	flight  singleflight.Group
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, logger: service.logger}
}

// RegisterRoutes registers the measurement routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	app.Post("/extract", h.HandleExtract)
	app.Get("/runs/:id", h.HandleGetRun)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleExtract runs an extraction described by the YAML request body.
// The table is written under the data directory in a per-run subdirectory; a document
// naming its own output is rejected. Identical concurrent requests share one run.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	l := logger.WithRequestID(h.logger, c)

	showConflicts := c.QueryBool("show_conflicts", false)
	upload := c.QueryBool("upload", false)
	maxRows := c.QueryInt("max_rows", 0)
	if maxRows < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_rows must not be negative"})
	}

	body := bytes.Clone(c.Body())
	key := requestKey(body, maxRows, upload)

	v, err, shared := h.flight.Do(key, func() (any, error) {
		doc, err := LoadDocument(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		return h.service.Run(c.UserContext(), doc, RunOptions{
			OutputOptions: OutputOptions{MaxRows: maxRows},
			Upload:        upload,
			Persist:       h.service.HasStore(),
			Isolate:       true,
		})
	})
	if err != nil {
		l.Warn("Extraction failed", zap.Error(err))
		status := fiber.StatusInternalServerError
		if IsClientError(err) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	report := v.(*Report)
	l.Info("Extraction finished",
		zap.String("run_id", report.RunID),
		zap.Int("complete_admissions", report.CompleteAdmissions),
		zap.Bool("shared", shared),
	)
	if !showConflicts {
		report = report.WithoutDetails()
	}
	return c.JSON(report)
}

// HandleGetRun returns a stored run.
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	if !h.service.HasStore() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": ErrStoreDisabled.Error()})
	}

	run, err := h.service.store.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, ErrRunNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRequestID(h.logger, c).Error("Failed to load run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(run)
}

func requestKey(body []byte, maxRows int, upload bool) string {
	sum := sha256.New()
	sum.Write(body)
	sum.Write([]byte{0})
	sum.Write([]byte(strconv.Itoa(maxRows)))
	sum.Write([]byte(strconv.FormatBool(upload)))
	return hex.EncodeToString(sum.Sum(nil))
}
