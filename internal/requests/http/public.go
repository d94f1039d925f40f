package http

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/music"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/songform"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) index(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.requests.Current(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	status, err := h.requests.Status(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	announcement, err := h.requests.Announcement(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	stats, err := h.requests.Stats(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"date":         h.requests.CurrentDay(),
		"requests":     list,
		"status":       status,
		"announcement": announcement,
		"stats":        stats,
		"grades":       h.catalog.Grades(),
		"classes":      h.catalog.All(),
	})
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	field, message, ok := gateSubmission(songform.Values{
		SongName:    req.SongName,
		ClassName:   req.ClassName,
		StudentName: req.StudentName,
	})
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": message, "field": field.ID()})
		return
	}

	ctx := c.Request.Context()
	created, err := h.requests.Submit(ctx, domain.NewRequest{
		SongName:    req.SongName,
		Grade:       req.Grade,
		ClassName:   req.ClassName,
		StudentName: req.StudentName,
		SongID:      strings.TrimSpace(req.SongID),
		CoverURL:    req.CoverURL,
		Artists:     req.Artists,
		Album:       req.Album,
	})
	if err != nil {
		fail(c, err)
		return
	}

	resp := gin.H{"ok": true, "message": "点歌请求已提交成功!", "request": created}
	if created.SongID != "" && h.files != nil {
		path, _, err := h.files.Fetch(ctx, created.SongID, created.SongName)
		if err != nil {
			logging.FromContext(ctx).Warn("song download failed",
				zap.String("song_id", created.SongID),
				zap.Error(err))
			resp["download_error"] = "歌曲下载失败: " + err.Error()
		} else {
			resp["download_url"] = "/download_song_file/" + url.PathEscape(filepath.Base(path))
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) vote(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	voter, err := c.Cookie(voterCookie)
	if err != nil || voter == "" {
		voter = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(voterCookie, voter, voterCookieMaxAge, "/", "", h.secureCookie, true)
	}

	votes, err := h.requests.Vote(c.Request.Context(), id, voter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "votes": votes})
}

func (h *Handler) searchSongs(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	songs, err := h.music.Search(c.Request.Context(), req.SongName)
	switch {
	case errors.Is(err, music.ErrEmptyKeyword):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, music.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case err != nil:
		logging.FromContext(c.Request.Context()).Error("song search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "搜索失败，请稍后再试"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "songs": songs})
	}
}

func (h *Handler) dailyStats(c *gin.Context) {
	stats, err := h.requests.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": stats.Count, "remaining": stats.Remaining, "max": stats.Max})
}

func (h *Handler) announcement(c *gin.Context) {
	a, err := h.requests.Announcement(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "content": a.Content, "enabled": a.Enabled})
}

func (h *Handler) classes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "classes": h.catalog.Classes(c.Param("grade"))})
}

// cachedFile streams a downloaded song for in-page playback.
func (h *Handler) cachedFile(c *gin.Context) {
	f, err := h.files.OpenCached(strings.TrimPrefix(c.Param("file"), "/"))
	if err != nil {
		fail(c, err)
		return
	}
	serveFile(c, f, "audio/mpeg", false)
}

func (h *Handler) downloadSongFile(c *gin.Context) {
	f, err := h.files.OpenCached(c.Param("file"))
	if err != nil {
		fail(c, err)
		return
	}
	serveFile(c, f, "audio/mpeg", true)
}

func (h *Handler) downloadZip(c *gin.Context) {
	f, err := h.files.OpenBundle(c.Param("file"))
	if err != nil {
		fail(c, err)
		return
	}
	serveFile(c, f, "application/zip", true)
}
