package http

import (
	"context"
	"os"

	authdomain "github.com/campus-radio/songdesk/internal/auth/domain"
	"github.com/campus-radio/songdesk/internal/catalog"
	"github.com/campus-radio/songdesk/internal/downloads"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/requests/service"
)

// Searcher finds songs on the upstream music API.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]map[string]interface{}, error)
}

// Files fills and serves the song download cache.
type Files interface {
	Fetch(ctx context.Context, songID, songName string) (string, string, error)
	Bundle(ctx context.Context, songs []domain.SongRequest) (*downloads.BundleResult, error)
	OpenCached(name string) (*os.File, error)
	OpenBundle(name string) (*os.File, error)
}

// PasswordChecker re-checks the signed-in admin's password.
type PasswordChecker interface {
	Authenticate(ctx context.Context, username, password string) (*authdomain.Account, error)
}

// Handler bundles the dependencies for song request endpoints.
type Handler struct {
	requests     *service.RequestService
	catalog      *catalog.Catalog
	music        Searcher
	files        Files
	passwords    PasswordChecker
	secureCookie bool
}

func New(requests *service.RequestService, cat *catalog.Catalog, music Searcher, files Files, passwords PasswordChecker, secureCookie bool) *Handler {
	return &Handler{
		requests:     requests,
		catalog:      cat,
		music:        music,
		files:        files,
		passwords:    passwords,
		secureCookie: secureCookie,
	}
}

type submitRequest struct {
	SongName    string `json:"song_name" form:"song_name"`
	Grade       string `json:"grade" form:"grade"`
	ClassName   string `json:"class_name" form:"class_name"`
	StudentName string `json:"student_name" form:"student_name"`
	SongID      string `json:"song_id" form:"song_id"`
	CoverURL    string `json:"cover_url" form:"cover_url"`
	Artists     string `json:"artists" form:"artists"`
	Album       string `json:"album" form:"album"`
}

type searchRequest struct {
	SongName string `json:"song_name" form:"song_name"`
}

type batchDeleteRequest struct {
	IDs           []int  `json:"ids" form:"-"`
	SelectedSongs string `json:"selected_songs" form:"selected_songs"`
	Confirm       bool   `json:"confirm" form:"confirm"`
}

type applyReviewRequest struct {
	Indices []int `json:"indices"`
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

type pauseRequest struct {
	Reason string `json:"reason" form:"reason"`
}

type clearRequest struct {
	Password string `json:"password" form:"password"`
}

type announcementRequest struct {
	Content string `json:"content"`
	Enabled bool   `json:"enabled"`
}
