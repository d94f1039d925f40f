package http

import (
	"github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/campus-radio/songdesk/internal/auth/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterPublic attaches the request page endpoints. submitGuards run before
// the submit handler.
func (h *Handler) RegisterPublic(rg gin.IRouter, submitGuards ...gin.HandlerFunc) {
	rg.GET("/", h.index)
	rg.POST("/submit", append(submitGuards, h.submit)...)
	rg.POST("/vote/:id", h.vote)
	rg.POST("/search_songs", h.searchSongs)
	rg.GET("/get_classes/:grade", h.classes)

	rg.GET("/api/daily_stats", h.dailyStats)
	rg.GET("/api/announcement", h.announcement)

	rg.GET("/data/downloads/*file", h.cachedFile)
	rg.GET("/download_song_file/:file", h.downloadSongFile)
	rg.GET("/download_zip/:file", h.downloadZip)
}

// RegisterAdmin attaches admin endpoints to a group already guarded by
// middleware.RequireAdmin. Control accounts only reach the list, export and
// bundle download.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("", h.dashboard)
	rg.GET("/export", h.export)
	rg.GET("/download_songs", h.downloadSongs)

	admin := rg.Group("", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/history/:date", h.history)
	admin.POST("/delete/:id", h.deleteRequest)
	admin.POST("/batch_delete", h.batchDelete)
	admin.POST("/auto_review", h.autoReview)
	admin.POST("/apply_review_results", h.applyReview)
	admin.POST("/toggle_pause", h.togglePause)
	admin.POST("/clear_list", h.clearList)
	admin.GET("/announcement", h.getAnnouncement)
	admin.POST("/announcement", h.saveAnnouncement)
}
