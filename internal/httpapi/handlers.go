package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"feedback-call-platform/internal/calls"
	"feedback-call-platform/internal/campaign"
	"feedback-call-platform/internal/csvio"
	"feedback-call-platform/internal/metrics"
	"feedback-call-platform/internal/notify"
	"feedback-call-platform/internal/provider"
	"feedback-call-platform/internal/schedule"
	"feedback-call-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ScheduleStore abstracts the schedule-config persistence.
type ScheduleStore interface {
	Get(ctx context.Context) (schedule.Config, error)
	Put(ctx context.Context, c schedule.Config) (schedule.Config, error)
}

// TemplateSource fetches the upload column layout from the backend.
type TemplateSource interface {
	FetchTemplate(ctx context.Context) (csvio.Template, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Coordinator   *campaign.Coordinator
	Tracker       *calls.Tracker
	Refresher     *calls.Refresher
	Notifications *notify.Service
	Schedule      ScheduleStore
	Template      TemplateSource
}

// maxUploadBytes caps the CSV body size.
const maxUploadBytes = 4 << 20

// --- Campaigns ---

// UploadCampaign ingests a CSV upload and submits it as one named batch.
//
// Form fields: "name" (campaign name) and "file" (the CSV).
// Responses: 200 with the submission outcome (done=false on partial failure,
// the dialog stays open), 400 for parse/validation errors, 502 when the
// provisioning backend rejects the batch outright.
func (h Handlers) UploadCampaign(c *gin.Context) {
	log := logger.FromGin(c)

	name := c.PostForm("name")
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	doc, err := csvio.Parse(string(raw))
	if err != nil {
		metrics.ParseFailuresTotal.Inc()
		log.Warn("csv parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.RowsParsedTotal.Add(float64(len(doc.Rows)))

	out, err := h.Coordinator.Submit(c.Request.Context(), name, doc.Rows)
	if err != nil {
		if errors.Is(err, campaign.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("bulk submit failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "bulk submission failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ListCampaigns(c *gin.Context) {
	list, err := h.Coordinator.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": list})
}

// DownloadTemplate serves the CSV template the backend expects for uploads.
func (h Handlers) DownloadTemplate(c *gin.Context) {
	log := logger.FromGin(c)

	tpl, err := h.Template.FetchTemplate(c.Request.Context())
	if err != nil {
		log.Error("template fetch failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "template unavailable"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+csvio.TemplateFilename+`"`)
	c.Data(http.StatusOK, csvio.TemplateContentType, []byte(tpl.Render(",")))
}

// --- Calls ---

func (h Handlers) CreateCall(c *gin.Context) {
	var rec calls.CallRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	tc, err := h.Tracker.Create(c.Request.Context(), rec)
	if err != nil {
		if errors.Is(err, calls.ErrMissingRequiredField) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, provider.ErrProvider) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "call provisioning failed"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call creation failed"})
		return
	}
	c.JSON(http.StatusCreated, tc)
}

func (h Handlers) InitiateCall(c *gin.Context) {
	callID := c.Param("call_id")

	tc, err := h.Tracker.Initiate(c.Request.Context(), callID)
	if err != nil {
		switch {
		case errors.Is(err, calls.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown call"})
		case errors.Is(err, calls.ErrNotReady):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call is not ready"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "initiation failed"})
		}
		return
	}

	// A call just went transient (or failed immediately); either way the
	// list refresher should reconsider.
	if h.Refresher != nil {
		h.Refresher.Evaluate()
	}
	c.JSON(http.StatusOK, tc)
}

func (h Handlers) ResetCall(c *gin.Context) {
	callID := c.Param("call_id")

	if err := h.Tracker.Reset(callID); err != nil {
		switch {
		case errors.Is(err, calls.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown call"})
		case errors.Is(err, calls.ErrNotTerminal):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call is not finished"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ListCalls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"calls": h.Tracker.List()})
}

// RefreshCalls runs the shared list fetch once, outside the timer cadence.
func (h Handlers) RefreshCalls(c *gin.Context) {
	if err := h.Refresher.RefreshNow(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": h.Tracker.List()})
}

// --- Notifications ---

func (h Handlers) ListNotifications(c *gin.Context) {
	list, err := h.Notifications.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "notification listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// --- Schedule ---

func (h Handlers) GetSchedule(c *gin.Context) {
	cfg, err := h.Schedule.Get(c.Request.Context())
	if errors.Is(err, schedule.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"config": schedule.Default(), "saved": false})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "schedule read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg, "saved": true})
}

// PutSchedule saves a schedule config. The response includes the normalized
// config and whether it differed from the previous saved snapshot.
func (h Handlers) PutSchedule(c *gin.Context) {
	var draft schedule.Config
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	prev, err := h.Schedule.Get(c.Request.Context())
	if errors.Is(err, schedule.ErrNotFound) {
		prev = schedule.Default()
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "schedule read failed"})
		return
	}

	saved, err := h.Schedule.Put(c.Request.Context(), draft)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidConfig) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "schedule save failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": saved, "changed": !prev.Equal(saved)})
}
