package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/campus-radio/songdesk/internal/auth"
	authdomain "github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/campus-radio/songdesk/internal/export"
	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/songform"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) dashboard(c *gin.Context) {
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
	stats, err := h.requests.Stats(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	dates, err := h.requests.AvailableDates(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"date":            h.requests.CurrentDay(),
		"requests":        list,
		"status":          status,
		"stats":           stats,
		"available_dates": dates,
		"username":        auth.Username(c),
		"role":            auth.Role(c),
	})
}

func (h *Handler) history(c *gin.Context) {
	day := c.Param("date")
	if !domain.ValidDay(day) {
		fail(c, domain.ErrInvalidDate)
		return
	}

	ctx := c.Request.Context()
	list, err := h.requests.List(ctx, day)
	if err != nil {
		fail(c, err)
		return
	}
	dates, err := h.requests.AvailableDates(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "date": day, "requests": list, "available_dates": dates})
}

func (h *Handler) deleteRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if !gateDeletion(confirmed(c)) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"ok": false, "error": songform.DeleteConfirmMessage, "confirm": true})
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	logging.FromContext(c.Request.Context()).Info("song request deleted",
		zap.Int("id", id),
		zap.String("admin", auth.Username(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "点歌请求已删除!"})
}

func (h *Handler) batchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	ids := req.IDs
	if len(ids) == 0 && req.SelectedSongs != "" {
		parsed, err := parseIDs(req.SelectedSongs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid selected_songs"})
			return
		}
		ids = parsed
	}
	if len(ids) == 0 {
		fail(c, domain.ErrEmptySelection)
		return
	}
	if !gateDeletion(req.Confirm || confirmed(c)) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"ok": false, "error": songform.DeleteConfirmMessage, "confirm": true})
		return
	}

	removed, err := h.requests.BatchDelete(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"deleted": removed,
		"message": fmt.Sprintf("成功删除 %d 首歌曲", removed),
	})
}

// parseIDs reads a JSON array whose items are numbers or numeric strings.
func parseIDs(raw string) ([]int, error) {
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("unexpected id %v", item)
			}
			ids = append(ids, int(v))
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, err
			}
			ids = append(ids, n)
		default:
			return nil, fmt.Errorf("unexpected id %v", item)
		}
	}
	return ids, nil
}

func (h *Handler) export(c *gin.Context) {
	ctx := c.Request.Context()
	day := h.requests.CurrentDay()

	list, err := h.requests.Raw(ctx, day)
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, list); err != nil {
		fail(c, err)
		return
	}
	sendBytes(c, export.FileName(day), xlsxContentType, &buf, int64(buf.Len()))
}

func (h *Handler) downloadSongs(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.requests.Current(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	if len(list) == 0 {
		fail(c, domain.ErrEmptyList)
		return
	}

	res, err := h.files.Bundle(ctx, list)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"message":       fmt.Sprintf("下载完成: 成功 %d 首，失败 %d 首", res.SuccessCount, res.ErrorCount),
		"success_count": res.SuccessCount,
		"error_count":   res.ErrorCount,
		"download_url":  "/download_zip/" + url.PathEscape(res.FileName),
	})
}

func (h *Handler) autoReview(c *gin.Context) {
	results, err := h.requests.RunReview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "results": results})
}

func (h *Handler) applyReview(c *gin.Context) {
	var req applyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	out, err := h.requests.ApplyReview(c.Request.Context(), req.Indices)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"applied": out.Applied,
		"deleted": out.Deleted,
		"message": fmt.Sprintf("已应用 %d 条审核结果，删除 %d 首歌曲", out.Applied, out.Deleted),
	})
}

func (h *Handler) togglePause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	st, err := h.requests.TogglePause(c.Request.Context(), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	message := "点歌功能已恢复"
	if st.RequestsPaused {
		message = "点歌功能已暂停"
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": st, "message": message})
}

func (h *Handler) clearList(c *gin.Context) {
	var req clearRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.passwords.Authenticate(ctx, auth.Username(c), req.Password); err != nil {
		if errors.Is(err, authdomain.ErrInvalidCredentials) {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": authdomain.ErrWrongPassword.Error()})
			return
		}
		fail(c, err)
		return
	}

	removed, err := h.requests.Clear(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	logging.FromContext(ctx).Info("list cleared",
		zap.Int("removed", removed),
		zap.String("admin", auth.Username(c)))
	c.JSON(http.StatusOK, gin.H{"ok": true, "cleared": removed, "message": "今日点歌列表已清空"})
}

func (h *Handler) getAnnouncement(c *gin.Context) {
	a, err := h.requests.Announcement(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "announcement": a})
}

// saveAnnouncement accepts JSON, or a form where a present "enabled" field
// switches the banner on.
func (h *Handler) saveAnnouncement(c *gin.Context) {
	var req announcementRequest
	if isJSON(c) {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
			return
		}
	} else {
		req.Content = c.PostForm("content")
		_, req.Enabled = c.GetPostForm("enabled")
	}

	a, err := h.requests.SaveAnnouncement(c.Request.Context(), req.Content, req.Enabled)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "announcement": a, "message": "公告更新成功!"})
}
