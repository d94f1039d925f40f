package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/campus-radio/songdesk/internal/api/http/middleware"
	"github.com/campus-radio/songdesk/internal/downloads"
	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/requests/service"
	"github.com/campus-radio/songdesk/internal/review"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	voterCookie       = "voter_id"
	voterCookieMaxAge = 365 * 24 * 60 * 60

	genericFailure = "操作失败，请稍后再试"
)

// fail maps service errors onto status codes and the JSON error body.
func fail(c *gin.Context, err error) {
	var fe *service.FieldError
	if errors.As(err, &fe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": fe.Message, "field": fe.Field})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRequestsPaused):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrDailyLimit),
		errors.Is(err, domain.ErrDuplicateSong),
		errors.Is(err, domain.ErrAlreadyRequested),
		errors.Is(err, domain.ErrAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, downloads.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrEmptyList),
		errors.Is(err, domain.ErrNoReviewResults):
		status = http.StatusBadRequest
	case errors.Is(err, review.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, review.ErrBadResponse):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			body := gin.H{"ok": false, "error": genericFailure}
			if rid := middleware.GetRequestID(c.Request.Context()); rid != "" {
				body["request_id"] = rid
			}
			c.JSON(status, body)
			return
		}
	}
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid id"})
		return 0, false
	}
	return id, true
}

// confirmed reads the confirm flag from the query string, then from a JSON
// or form body.
func confirmed(c *gin.Context) bool {
	v := c.Query("confirm")
	if v == "" && isJSON(c) {
		var body confirmRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return false
		}
		return body.Confirm
	}
	if v == "" {
		v = c.PostForm("confirm")
	}
	ok, _ := strconv.ParseBool(v)
	return ok
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// serveFile writes f with the given content type. Attachments carry an
// RFC 6266 filename so browsers keep Chinese names.
func serveFile(c *gin.Context, f *os.File, contentType string, attachment bool) {
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Type", contentType)
	if attachment {
		c.Header("Content-Disposition", disposition(info.Name()))
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func disposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

// sendBytes writes a generated document as an attachment.
func sendBytes(c *gin.Context, name, contentType string, r io.Reader, size int64) {
	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Content-Disposition": disposition(name),
	})
}
