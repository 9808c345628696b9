// Package handlers implements the REST API endpoint handlers for the zone importer.
//
// Endpoints:
//   - GET /api/v1/health - Health check status
//   - POST /api/v1/parse - Parse zone text (text/plain body or JSON {"content": ...})
//   - POST /api/v1/transform - Preview the Intelligent DNS records of a selection
//   - POST /api/v1/import - Import a selection, streaming progress as server-sent events
//
// The destination token is taken from the `Authorization: Token <key>` header
// of the import request, falling back to the server configuration.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/kreigan/zone-importer/internal/api/models"
	"github.com/kreigan/zone-importer/internal/azion"
	"github.com/kreigan/zone-importer/internal/config"
	"github.com/kreigan/zone-importer/internal/importer"
	"github.com/kreigan/zone-importer/internal/logger"
	"github.com/kreigan/zone-importer/internal/zonefile"
)

// maxZoneText bounds the request body of the parse, transform and import
// endpoints. Larger bodies are rejected with 413.
const maxZoneText = 4 << 20

// ClientFactory builds the destination client for one import.
type ClientFactory func(baseURL, token string) importer.API

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	log       logr.Logger
	newClient ClientFactory
	version   string
}

// New creates a new Handler. A nil factory talks to the configured Azion API
// using log for request tracing.
func New(cfg *config.Config, log *logger.Logger, newClient ClientFactory) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	if newClient == nil {
		newClient = func(baseURL, token string) importer.API {
			return azion.NewClient(baseURL, token, log)
		}
	}
	return &Handler{
		cfg:       cfg,
		log:       log.Logr().WithName("api"),
		newClient: newClient,
	}
}

// SetVersion sets the version reported by Health.
func (h *Handler) SetVersion(v string) {
	h.version = v
}

// Health returns server health status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok", Version: h.version})
}

// Parse parses zone text into records.
func (h *Handler) Parse(c *gin.Context) {
	content, err := readZoneText(c)
	if err != nil {
		rejectBody(c, err)
		return
	}

	res := zonefile.Parse(content, zonefile.WithLogger(h.log))

	dropped := make([]models.DroppedLine, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		dropped = append(dropped, models.DroppedLine{Line: d.Line, Text: d.Text, Error: d.Err.Error()})
	}

	c.JSON(http.StatusOK, models.ParseResponse{
		Apex:    res.Apex,
		Records: res.Records,
		Dropped: dropped,
		Count:   len(res.Records),
		Valid:   len(zonefile.Valid(res.Records)),
	})
}

// Transform returns the wire records an import of the selection would create.
func (h *Handler) Transform(c *gin.Context) {
	var req models.RecordsRequest
	if err := bindJSON(c, &req); err != nil {
		rejectBody(c, err)
		return
	}

	records, err := req.Resolve()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	wire := azion.Transform(records)
	c.JSON(http.StatusOK, models.TransformResponse{Records: wire, Count: len(wire)})
}

// Import runs an import and streams its events. Each event is sent with the
// event kind as the SSE event name; a final "result" event carries the Result.
func (h *Handler) Import(c *gin.Context) {
	var req models.ImportRequest
	if err := bindJSON(c, &req); err != nil {
		rejectBody(c, err)
		return
	}

	records, err := req.Resolve()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token := tokenFromHeader(c.GetHeader("Authorization"))
	if token == "" {
		token = h.cfg.API.Token
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "an Azion token is required"})
		return
	}

	zoneID := req.ZoneID
	if zoneID == "" {
		zoneID = h.cfg.API.ZoneID
	}

	imp := importer.New(h.newClient(h.cfg.API.URL, token), h.cfg.ImporterConfig(), h.log.WithName("import"))

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	result, runErr := imp.Run(c.Request.Context(), records, importer.RunOptions{
		ZoneID: zoneID,
		OnEvent: func(ev importer.Event) {
			c.SSEvent(string(ev.Kind), ev)
			c.Writer.Flush()
		},
	})
	if runErr != nil {
		h.log.V(1).Info("import ended with an error", "error", runErr.Error())
	}

	c.SSEvent("result", result)
	c.Writer.Flush()
}

// readZoneText accepts either a raw text body or a JSON ParseRequest.
func readZoneText(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req models.ParseRequest
		if err := bindJSON(c, &req); err != nil {
			return "", err
		}
		return req.Content, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxZoneText))
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", errors.New("zone text is empty")
	}
	return string(body), nil
}

func bindJSON(c *gin.Context, obj any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxZoneText)
	return c.ShouldBindJSON(obj)
}

// rejectBody answers 413 for oversized bodies and 400 for anything else.
func rejectBody(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func tokenFromHeader(value string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Token") {
		return ""
	}
	return strings.TrimSpace(token)
}
