package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/database"
	"github.com/mediarack/mediarack/app/source"
)

func NewHandler(cat CatalogInterface, version string) *Handler {
	return &Handler{catalog: cat, version: version}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"channels":  len(h.catalog.Channels()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": viewChannels(h.catalog.Channels())})
}

func (h *Handler) AddChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.catalog.AddChannel(c.Request.Context(), req.URL, catalog.AddOptions{
		Type:       req.Type,
		Title:      req.Title,
		Categories: req.Categories,
		Auto:       req.Auto,
		Mask:       req.Mask,
		Disabled:   req.Disabled,
		AddCount:   req.AddCount,
		Force:      req.Force,
	})
	switch {
	case errors.Is(err, catalog.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, source.ErrNotSupported):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, source.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"channel": viewChannel(ch),
		"status":  fmt.Sprintf("channel %q added", ch.Title),
	})
}

func (h *Handler) RemoveChannel(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	ch, err := h.catalog.Channel(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.RemoveChannels([]int64{id}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": fmt.Sprintf("channel %q removed", ch.Title)})
}

func (h *Handler) PollChannel(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	n, err := h.catalog.PollChannel(c.Request.Context(), id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, source.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"new":    n,
		"status": fmt.Sprintf("%d new media", n),
	})
}

func (h *Handler) ListChannelMedia(c *gin.Context) {
	id, ok := h.channelID(c)
	if !ok {
		return
	}

	if _, err := h.catalog.Channel(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"media": viewMedia(h.catalog.MediaByChannel(id))})
}

// SwitchState flips read/skip state for a batch of media. Unresolvable
// references count as failures, the rest of the batch still runs.
func (h *Handler) SwitchState(c *gin.Context) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var res catalog.BatchResult
	media := make([]*database.Medium, 0, len(req.Items))
	for _, ref := range req.Items {
		m, err := h.catalog.Medium(ref.ChannelID, ref.Link)
		if err != nil {
			res.Fail(err)
			continue
		}
		media = append(media, m)
	}

	switched := h.catalog.SwitchState(media, req.Skip)
	res.Succeeded += switched.Succeeded
	res.Failed += switched.Failed
	res.Errors = append(res.Errors, switched.Errors...)

	c.JSON(http.StatusOK, gin.H{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"status":    res.String(),
	})
}

func (h *Handler) EnqueueDownload(c *gin.Context) {
	m, ok := h.resolveMedium(c)
	if !ok {
		return
	}

	err := h.catalog.EnqueueDownload(m)
	switch {
	case errors.Is(err, catalog.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": fmt.Sprintf("download of %q queued", m.Title)})
}

func (h *Handler) CancelDownload(c *gin.Context) {
	m, ok := h.resolveMedium(c)
	if !ok {
		return
	}

	h.catalog.CancelDownload(m)
	c.JSON(http.StatusAccepted, gin.H{"status": fmt.Sprintf("download of %q cancelled", m.Title)})
}

func (h *Handler) RemoveMedia(c *gin.Context) {
	var req removeMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.catalog.Medium(req.ChannelID, req.Link)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.RemoveMedium(m, req.Unlink); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": fmt.Sprintf("medium %q removed", m.Title)})
}

func (h *Handler) channelID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) resolveMedium(c *gin.Context) (*database.Medium, bool) {
	var ref mediumRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	m, err := h.catalog.Medium(ref.ChannelID, ref.Link)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return m, true
}
