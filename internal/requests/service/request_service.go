package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/music"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/sanitize"
	"github.com/campus-radio/songdesk/internal/songform"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxSongRunes      = 100
	maxClassRunes     = 50
	maxStudentRunes   = 50
	maxAvailableDates = 100
	enrichConcurrency = 4
	retentionDays     = 100
)

// ListStore persists day lists and per-voter vote marks.
type ListStore interface {
	Load(ctx context.Context, day string) ([]domain.SongRequest, error)
	Exists(ctx context.Context, day string) (bool, error)
	Save(ctx context.Context, day string, list []domain.SongRequest) error
	Update(ctx context.Context, day string, fn func([]domain.SongRequest) ([]domain.SongRequest, error)) error
	Days(ctx context.Context) ([]string, error)
	DeleteDay(ctx context.Context, day string) error
	MarkVoted(ctx context.Context, day, voter string, id int) (bool, error)
	UnmarkVoted(ctx context.Context, day, voter string, id int) error
}

// SettingsStore persists the singleton settings documents.
type SettingsStore interface {
	Status(ctx context.Context) (domain.SystemStatus, error)
	SaveStatus(ctx context.Context, st domain.SystemStatus) error
	Announcement(ctx context.Context) (domain.Announcement, error)
	SaveAnnouncement(ctx context.Context, a domain.Announcement) error
	ReviewResults(ctx context.Context) ([]domain.ReviewResult, error)
	SaveReviewResults(ctx context.Context, results []domain.ReviewResult) error
}

// SongResolver looks up the streaming URL and lyric of a song id.
type SongResolver interface {
	Song(ctx context.Context, songID string) (*music.SongInfo, error)
}

// LocalFiles reports the public URL of an already downloaded song.
type LocalFiles interface {
	URLFor(songName string) (string, bool)
}

// Reviewer judges a list of songs.
type Reviewer interface {
	Review(ctx context.Context, songs []domain.SongRequest) ([]domain.ReviewResult, error)
}

// ClassCatalog tells whether a class belongs to a grade.
type ClassCatalog interface {
	Contains(grade, class string) bool
}

// FieldError is a submission rejected because of one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Options configures a RequestService.
type Options struct {
	MaxDaily   int
	CutoffHour int
	Catalog    ClassCatalog
	Songs      SongResolver
	Files      LocalFiles
	Reviewer   Reviewer
	Now        func() time.Time
}

// RequestService owns the daily song request list.
type RequestService struct {
	lists      ListStore
	settings   SettingsStore
	catalog    ClassCatalog
	songs      SongResolver
	files      LocalFiles
	reviewer   Reviewer
	maxDaily   int
	cutoffHour int
	now        func() time.Time
}

// NewRequestService creates a new request service
func NewRequestService(lists ListStore, settings SettingsStore, opts Options) *RequestService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxDaily <= 0 {
		opts.MaxDaily = 50
	}
	return &RequestService{
		lists:      lists,
		settings:   settings,
		catalog:    opts.Catalog,
		songs:      opts.Songs,
		files:      opts.Files,
		reviewer:   opts.Reviewer,
		maxDaily:   opts.MaxDaily,
		cutoffHour: opts.CutoffHour,
		now:        opts.Now,
	}
}

// CurrentDay is the broadcast day new requests are added to.
func (s *RequestService) CurrentDay() string {
	return domain.BroadcastDay(s.now(), s.cutoffHour)
}

// Submit adds a song to the current day's list.
func (s *RequestService) Submit(ctx context.Context, in domain.NewRequest) (*domain.SongRequest, error) {
	st, err := s.settings.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("load status: %w", err)
	}
	if st.RequestsPaused {
		return nil, domain.ErrRequestsPaused
	}

	if utf8.RuneCountInString(strings.TrimSpace(in.SongName)) > maxSongRunes {
		return nil, &FieldError{Field: songform.FieldSongName.ID(), Message: "歌曲名称长度不能超过100个字符"}
	}

	song := sanitize.Input(strings.TrimSpace(in.SongName), maxSongRunes)
	class := sanitize.Input(strings.TrimSpace(in.ClassName), maxClassRunes)
	student := sanitize.Input(strings.TrimSpace(in.StudentName), maxStudentRunes)
	if err := s.validate(song, strings.TrimSpace(in.Grade), class, student); err != nil {
		return nil, err
	}

	lyric := in.Lyric
	if lyric == "" && in.SongID != "" && s.songs != nil {
		if info, err := s.songs.Song(ctx, in.SongID); err != nil {
			logging.FromContext(ctx).Warn("lyric lookup failed", zap.String("song_id", in.SongID), zap.Error(err))
		} else {
			lyric = info.Lyric
		}
	}

	var created domain.SongRequest
	err = s.lists.Update(ctx, s.CurrentDay(), func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		if len(list) >= s.maxDaily {
			return nil, domain.ErrDailyLimit
		}

		maxID := 0
		for _, item := range list {
			if in.SongID != "" && item.SongID == in.SongID {
				return nil, domain.ErrDuplicateSong
			}
			if sameSong(item.SongName, song) {
				return nil, domain.ErrDuplicateSong
			}
			if item.ID > maxID {
				maxID = item.ID
			}
		}
		for _, item := range list {
			if item.StudentName == student {
				return nil, domain.ErrAlreadyRequested
			}
		}

		created = domain.SongRequest{
			ID:          maxID + 1,
			SongName:    song,
			ClassName:   class,
			StudentName: student,
			RequestDate: s.now(),
			SongID:      in.SongID,
			CoverURL:    in.CoverURL,
			Artists:     in.Artists,
			Album:       in.Album,
			Lyric:       lyric,
		}
		return append(list, created), nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("song requested",
		zap.Int("id", created.ID),
		zap.String("song", created.SongName),
		zap.String("class", created.ClassName))
	return &created, nil
}

func (s *RequestService) validate(song, grade, class, student string) error {
	res := songform.Validate(songform.Values{SongName: song, ClassName: class, StudentName: student})
	if !res.Valid {
		return &FieldError{Field: res.FirstInvalid.ID(), Message: res.Message()}
	}
	if grade == "" {
		return &FieldError{Field: "grade", Message: "请选择年段"}
	}
	if s.catalog != nil && !s.catalog.Contains(grade, class) {
		return &FieldError{Field: songform.FieldClassName.ID(), Message: "请选择班级"}
	}
	if n := utf8.RuneCountInString(student); n < 2 || n > 4 {
		return &FieldError{Field: songform.FieldStudentName.ID(), Message: "姓名长度必须在2-4个字符之间"}
	}
	return nil
}

// List returns day's requests, most voted first, each with a play URL when
// one can be resolved.
func (s *RequestService) List(ctx context.Context, day string) ([]domain.SongRequest, error) {
	list, err := s.lists.Load(ctx, day)
	if err != nil {
		return nil, err
	}
	sortByVotes(list)
	s.enrich(ctx, list)
	return list, nil
}

// Current returns the current day's list.
func (s *RequestService) Current(ctx context.Context) ([]domain.SongRequest, error) {
	return s.List(ctx, s.CurrentDay())
}

// Raw returns day's requests in stored order without URL lookups.
func (s *RequestService) Raw(ctx context.Context, day string) ([]domain.SongRequest, error) {
	return s.lists.Load(ctx, day)
}

func (s *RequestService) enrich(ctx context.Context, list []domain.SongRequest) {
	log := logging.FromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range list {
		item := &list[i]
		if s.files != nil {
			if u, ok := s.files.URLFor(item.SongName); ok {
				item.URL = u
				continue
			}
		}
		if item.SongID == "" || s.songs == nil {
			continue
		}
		g.Go(func() error {
			info, err := s.songs.Song(gctx, item.SongID)
			if err != nil {
				log.Warn("play url lookup failed", zap.String("song_id", item.SongID), zap.Error(err))
				return nil
			}
			item.URL = info.URL
			if item.Lyric == "" {
				item.Lyric = info.Lyric
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Delete removes one request from the current list.
func (s *RequestService) Delete(ctx context.Context, id int) error {
	return s.lists.Update(ctx, s.CurrentDay(), func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		for i, item := range list {
			if item.ID == id {
				return append(list[:i:i], list[i+1:]...), nil
			}
		}
		return nil, domain.ErrRequestNotFound
	})
}

// BatchDelete removes every listed id and reports how many were removed.
func (s *RequestService) BatchDelete(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, domain.ErrEmptySelection
	}
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	err := s.lists.Update(ctx, s.CurrentDay(), func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		kept := make([]domain.SongRequest, 0, len(list))
		for _, item := range list {
			if _, ok := drop[item.ID]; !ok {
				kept = append(kept, item)
			}
		}
		removed = len(list) - len(kept)
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear empties the current list. It reports ErrEmptyList when there was
// nothing to clear.
func (s *RequestService) Clear(ctx context.Context) (int, error) {
	removed := 0
	err := s.lists.Update(ctx, s.CurrentDay(), func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		if len(list) == 0 {
			return nil, domain.ErrEmptyList
		}
		removed = len(list)
		return []domain.SongRequest{}, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Vote adds one vote from voter to request id and returns the new count.
func (s *RequestService) Vote(ctx context.Context, id int, voter string) (int, error) {
	day := s.CurrentDay()

	added, err := s.lists.MarkVoted(ctx, day, voter, id)
	if err != nil {
		return 0, err
	}
	if !added {
		return 0, domain.ErrAlreadyVoted
	}

	votes := 0
	err = s.lists.Update(ctx, day, func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Votes++
				votes = list[i].Votes
				return list, nil
			}
		}
		return nil, domain.ErrRequestNotFound
	})
	if err != nil {
		if uerr := s.lists.UnmarkVoted(ctx, day, voter, id); uerr != nil {
			logging.FromContext(ctx).Error("failed to roll back vote mark", zap.Error(uerr))
		}
		return 0, err
	}
	return votes, nil
}

// Stats summarises the current list against the daily limit.
func (s *RequestService) Stats(ctx context.Context) (domain.DailyStats, error) {
	list, err := s.lists.Load(ctx, s.CurrentDay())
	if err != nil {
		return domain.DailyStats{}, err
	}
	remaining := s.maxDaily - len(list)
	if remaining < 0 {
		remaining = 0
	}
	return domain.DailyStats{Count: len(list), Remaining: remaining, Max: s.maxDaily}, nil
}

// AvailableDates lists days with a stored list, newest first.
func (s *RequestService) AvailableDates(ctx context.Context) ([]string, error) {
	days, err := s.lists.Days(ctx)
	if err != nil {
		return nil, err
	}
	if len(days) > maxAvailableDates {
		days = days[:maxAvailableDates]
	}
	return days, nil
}

// Status returns the pause switch.
func (s *RequestService) Status(ctx context.Context) (domain.SystemStatus, error) {
	return s.settings.Status(ctx)
}

// TogglePause flips the pause switch. Pausing records reason, or the default
// reason when it is blank. Resuming clears it.
func (s *RequestService) TogglePause(ctx context.Context, reason string) (domain.SystemStatus, error) {
	st, err := s.settings.Status(ctx)
	if err != nil {
		return domain.SystemStatus{}, err
	}

	st.RequestsPaused = !st.RequestsPaused
	st.PauseReason = ""
	if st.RequestsPaused {
		st.PauseReason = strings.TrimSpace(reason)
		if st.PauseReason == "" {
			st.PauseReason = domain.DefaultPauseReason
		}
	}

	if err := s.settings.SaveStatus(ctx, st); err != nil {
		return domain.SystemStatus{}, err
	}
	logging.FromContext(ctx).Info("pause toggled", zap.Bool("paused", st.RequestsPaused))
	return st, nil
}

// Announcement returns the banner.
func (s *RequestService) Announcement(ctx context.Context) (domain.Announcement, error) {
	return s.settings.Announcement(ctx)
}

// SaveAnnouncement stores the banner.
func (s *RequestService) SaveAnnouncement(ctx context.Context, content string, enabled bool) (domain.Announcement, error) {
	a := domain.Announcement{Content: strings.TrimSpace(content), Enabled: enabled}
	if err := s.settings.SaveAnnouncement(ctx, a); err != nil {
		return domain.Announcement{}, err
	}
	return a, nil
}

// EnsureCurrentDay creates an empty list for the current day if none exists.
func (s *RequestService) EnsureCurrentDay(ctx context.Context) (bool, error) {
	day := s.CurrentDay()
	exists, err := s.lists.Exists(ctx, day)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.lists.Save(ctx, day, nil); err != nil {
		return false, err
	}
	return true, nil
}

// PruneBefore deletes every list older than cutoff and returns the days removed.
func (s *RequestService) PruneBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	days, err := s.lists.Days(ctx)
	if err != nil {
		return nil, err
	}

	limit := cutoff.Format(domain.DayLayout)
	var removed []string
	for _, day := range days {
		if day >= limit {
			continue
		}
		if err := s.lists.DeleteDay(ctx, day); err != nil {
			return removed, err
		}
		removed = append(removed, day)
	}
	return removed, nil
}

// PruneExpired deletes lists past the retention window.
func (s *RequestService) PruneExpired(ctx context.Context) ([]string, error) {
	return s.PruneBefore(ctx, s.now().AddDate(0, 0, -retentionDays))
}

// RunReview asks the reviewer to judge the current list and stores the verdicts.
func (s *RequestService) RunReview(ctx context.Context) ([]domain.ReviewResult, error) {
	if s.reviewer == nil {
		return nil, errors.New("review is not configured")
	}
	list, err := s.lists.Load(ctx, s.CurrentDay())
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrEmptyList
	}

	results, err := s.reviewer.Review(ctx, list)
	if err != nil {
		return nil, err
	}
	if err := s.settings.SaveReviewResults(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyReview keeps only the songs named by the selected, passed verdicts of
// the last review. Out of range indices are ignored.
func (s *RequestService) ApplyReview(ctx context.Context, indices []int) (domain.ApplyOutcome, error) {
	if len(indices) == 0 {
		return domain.ApplyOutcome{}, domain.ErrEmptySelection
	}
	results, err := s.settings.ReviewResults(ctx)
	if err != nil {
		return domain.ApplyOutcome{}, err
	}
	if len(results) == 0 {
		return domain.ApplyOutcome{}, domain.ErrNoReviewResults
	}

	approved := make(map[string]struct{})
	var out domain.ApplyOutcome
	for _, idx := range indices {
		if idx < 0 || idx >= len(results) {
			continue
		}
		r := results[idx]
		if r.Approved() && r.SongName != "" {
			approved[r.SongName] = struct{}{}
		}
		out.Applied++
	}

	err = s.lists.Update(ctx, s.CurrentDay(), func(list []domain.SongRequest) ([]domain.SongRequest, error) {
		kept := make([]domain.SongRequest, 0, len(list))
		for _, item := range list {
			if _, ok := approved[item.SongName]; ok {
				kept = append(kept, item)
			}
		}
		out.Deleted = len(list) - len(kept)
		return kept, nil
	})
	if err != nil {
		return domain.ApplyOutcome{}, err
	}

	logging.FromContext(ctx).Info("review applied", zap.Int("applied", out.Applied), zap.Int("deleted", out.Deleted))
	return out, nil
}

func sortByVotes(list []domain.SongRequest) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Votes > list[j].Votes })
}
