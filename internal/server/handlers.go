package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Edgar454/WhoIsTalking/internal/bus"
	"github.com/Edgar454/WhoIsTalking/internal/cache"
	"github.com/Edgar454/WhoIsTalking/internal/diarization"
	apperrors "github.com/Edgar454/WhoIsTalking/internal/errors"
	"github.com/Edgar454/WhoIsTalking/internal/hash"
	"github.com/Edgar454/WhoIsTalking/internal/jobs"
	"github.com/Edgar454/WhoIsTalking/internal/logger"
	"github.com/Edgar454/WhoIsTalking/internal/redis"
	"github.com/Edgar454/WhoIsTalking/internal/transcription"
)

// Handler holds the dependencies for the HTTP routes.
type Handler struct {
	cfg         Config
	runner      *jobs.Runner
	registry    *jobs.Registry
	store       *cache.ResultStore
	bus         *bus.Bus
	redis       *redis.Client
	diarizer    diarization.Provider
	transcriber transcription.Provider
	service     string
	log         *logger.Logger
}

// NewHandler wires the route handlers.
func NewHandler(
	cfg Config,
	runner *jobs.Runner,
	registry *jobs.Registry,
	store *cache.ResultStore,
	b *bus.Bus,
	rdb *redis.Client,
	diarizer diarization.Provider,
	transcriber transcription.Provider,
	service string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		cfg:         cfg,
		runner:      runner,
		registry:    registry,
		store:       store,
		bus:         b,
		redis:       rdb,
		diarizer:    diarizer,
		transcriber: transcriber,
		service:     service,
		log:         log.WithComponent("handler"),
	}
}

// Register attaches all routes to the engine.
func (h *Handler) Register(engine *gin.Engine) {
	engine.POST("/process-audio", h.ProcessAudio)
	engine.GET("/task-status/:task_id", h.TaskStatus)
	engine.GET("/task-result/:filehash", h.TaskResult)
	engine.GET("/task-result/:filehash/stream", h.TaskResultStream)
	engine.GET("/health", h.Health)
	engine.GET("/info", h.Info)
}

// SubmitResponse is the body of a successful audio submission.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	FileID string `json:"file_id"`
}

// ProcessAudio accepts a multipart audio upload, hashes its content, and
// enqueues a processing job. It responds 202 with the job id and the content
// hash; the same audio re-submitted later yields the same file_id but a
// fresh task_id.
func (h *Handler) ProcessAudio(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadMB<<20)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		RespondWithError(c, apperrors.MissingField("audio").WithCause(err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		RespondWithError(c, apperrors.InvalidInput("audio", "could not read uploaded file").WithCause(err))
		return
	}
	if len(audio) == 0 {
		RespondWithError(c, apperrors.InvalidInput("audio", "uploaded file is empty"))
		return
	}

	fileHash := hash.Sum(audio)
	job, err := h.runner.Submit(fileHash, audio, header.Filename)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	RespondAccepted(c, SubmitResponse{TaskID: job.ID, FileID: fileHash})
}

// StatusResponse is the body of a status query.
type StatusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TaskStatus reports the lifecycle state of a job by id.
func (h *Handler) TaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	job, ok := h.registry.Get(taskID)
	if !ok {
		RespondWithError(c, apperrors.NotFound("task", taskID))
		return
	}

	RespondOK(c, StatusResponse{
		TaskID: job.ID,
		Status: string(job.Status),
		Error:  job.Error,
	})
}

// TaskResult returns the cached joined result for a content hash, or 404 when
// the audio has not been processed yet.
func (h *Handler) TaskResult(c *gin.Context) {
	fileHash := c.Param("filehash")
	result, err := h.store.Load(c.Request.Context(), fileHash)
	if err != nil {
		RespondWithError(c, apperrors.CacheError(err))
		return
	}
	if result == nil {
		RespondWithError(c, apperrors.NotFound("result", fileHash))
		return
	}
	RespondOK(c, result)
}

// TaskResultStream holds the connection open and delivers exactly one
// server-sent event when processing of the given content hash completes.
//
// The subscription is opened before the cache is checked: a job finishing in
// the gap between the two would otherwise publish to nobody and leave the
// client hanging. With the order inverted, either the cache already has the
// result or the publish is still ahead of us.
func (h *Handler) TaskResultStream(c *gin.Context) {
	fileHash := c.Param("filehash")
	ctx := c.Request.Context()

	sub, err := h.bus.Subscribe(ctx, bus.ResultChannel(fileHash))
	if err != nil {
		RespondWithError(c, apperrors.ConnectionFailed("notification bus").WithCause(err))
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	if cached, err := h.store.Load(ctx, fileHash); err == nil && cached != nil {
		h.writeEvent(c, jobs.NotificationFromResult(cached))
		return
	}

	payload, err := sub.Next(ctx)
	if err != nil {
		// Client went away or Redis dropped the connection. Nothing to send.
		h.log.Debug("Stream wait aborted", map[string]interface{}{
			logger.FieldFileHash: fileHash,
			"error":              err.Error(),
		})
		return
	}

	var n jobs.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		h.log.Error("Malformed notification payload", map[string]interface{}{
			logger.FieldFileHash: fileHash,
			"error":              err.Error(),
		})
		return
	}
	h.writeEvent(c, n)
}

// writeEvent emits the single completion event. Successful outcomes go out
// under the result event name, failed ones under error.
func (h *Handler) writeEvent(c *gin.Context, n jobs.Notification) {
	name := "result"
	if n.Error != "" {
		name = "error"
	}
	c.SSEvent(name, n)
	c.Writer.Flush()
}

// Health reports service health including Redis and predictor availability.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := "healthy"

	components := gin.H{}
	if err := h.redis.Ping(ctx); err != nil {
		components["redis"] = "unhealthy"
		status = "unhealthy"
	} else {
		components["redis"] = "healthy"
	}

	if h.diarizer != nil && !h.diarizer.IsAvailable(ctx) {
		components["diarization"] = "unavailable"
		if status == "healthy" {
			status = "degraded"
		}
	} else if h.diarizer != nil {
		components["diarization"] = "available"
	}
	if h.transcriber != nil && !h.transcriber.IsAvailable(ctx) {
		components["transcription"] = "unavailable"
		if status == "healthy" {
			status = "degraded"
		}
	} else if h.transcriber != nil {
		components["transcription"] = "available"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":     status,
		"service":    h.service,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}

// Info reports basic service metadata.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.service,
		"routes": []string{
			"POST /process-audio",
			"GET /task-status/:task_id",
			"GET /task-result/:filehash",
			"GET /task-result/:filehash/stream",
		},
	})
}
