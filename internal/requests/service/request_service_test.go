package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/campus-radio/songdesk/internal/catalog"
	"github.com/campus-radio/songdesk/internal/music"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/campus-radio/songdesk/internal/requests/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cst = time.FixedZone("CST", 8*3600)

type fakeSongs struct {
	mu    sync.Mutex
	calls int
	infos map[string]*music.SongInfo
}

func (f *fakeSongs) Song(ctx context.Context, id string) (*music.SongInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if info, ok := f.infos[id]; ok {
		return info, nil
	}
	return nil, errors.New("获取歌曲信息失败")
}

type fakeFiles map[string]string

func (f fakeFiles) URLFor(name string) (string, bool) {
	u, ok := f[name]
	return u, ok
}

type fakeReviewer struct {
	results []domain.ReviewResult
	err     error
	got     []domain.SongRequest
}

func (f *fakeReviewer) Review(ctx context.Context, songs []domain.SongRequest) ([]domain.ReviewResult, error) {
	f.got = songs
	return f.results, f.err
}

type fixture struct {
	svc      *RequestService
	lists    *repository.ListRepository
	settings *repository.SettingsRepository
	now      *time.Time
}

func setupService(t *testing.T, opts Options) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, cst)
	f := &fixture{
		lists:    repository.NewListRepository(client),
		settings: repository.NewSettingsRepository(client),
		now:      &now,
	}
	if opts.CutoffHour == 0 {
		opts.CutoffHour = 18
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	opts.Now = func() time.Time { return *f.now }
	f.svc = NewRequestService(f.lists, f.settings, opts)
	return f
}

func req(song, student string) domain.NewRequest {
	return domain.NewRequest{SongName: song, Grade: "初一", ClassName: "初一1班", StudentName: student}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns increasing ids", func(t *testing.T) {
		f := setupService(t, Options{})
		a, err := f.svc.Submit(ctx, req("晴天", "李雷"))
		require.NoError(t, err)
		b, err := f.svc.Submit(ctx, req("稻香", "韩梅梅"))
		require.NoError(t, err)

		assert.Equal(t, 1, a.ID)
		assert.Equal(t, 2, b.ID)
		assert.Equal(t, 0, b.Votes)

		list, err := f.lists.Load(ctx, "2025-03-01")
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("after cutoff goes to tomorrow", func(t *testing.T) {
		f := setupService(t, Options{})
		*f.now = time.Date(2025, 3, 1, 18, 0, 0, 0, cst)
		_, err := f.svc.Submit(ctx, req("晴天", "李雷"))
		require.NoError(t, err)

		list, err := f.lists.Load(ctx, "2025-03-02")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("form fields checked in order", func(t *testing.T) {
		f := setupService(t, Options{})
		_, err := f.svc.Submit(ctx, domain.NewRequest{SongName: "  ", ClassName: "", StudentName: ""})
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "song_name", fe.Field)
		assert.Equal(t, "请输入歌曲名称", fe.Message)

		_, err = f.svc.Submit(ctx, domain.NewRequest{SongName: "晴天", Grade: "初一", StudentName: "李雷"})
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "class_name", fe.Field)
		assert.Equal(t, "请输入班级", fe.Message)
	})

	t.Run("catalog and name rules", func(t *testing.T) {
		f := setupService(t, Options{})
		var fe *FieldError

		_, err := f.svc.Submit(ctx, domain.NewRequest{SongName: "晴天", ClassName: "初一1班", StudentName: "李雷"})
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "请选择年段", fe.Message)

		_, err = f.svc.Submit(ctx, domain.NewRequest{SongName: "晴天", Grade: "初一", ClassName: "高三1班", StudentName: "李雷"})
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "请选择班级", fe.Message)

		_, err = f.svc.Submit(ctx, req("晴天", "李"))
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "student_name", fe.Field)

		_, err = f.svc.Submit(ctx, req("晴天", "欧阳娜娜娜"))
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "姓名长度必须在2-4个字符之间", fe.Message)
	})

	t.Run("markup is stripped", func(t *testing.T) {
		f := setupService(t, Options{})
		got, err := f.svc.Submit(ctx, req("<b>晴天</b>", "李雷"))
		require.NoError(t, err)
		assert.Equal(t, "晴天", got.SongName)
	})

	t.Run("duplicates", func(t *testing.T) {
		f := setupService(t, Options{})
		first := req("Yellow", "李雷")
		first.SongID = "42"
		_, err := f.svc.Submit(ctx, first)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, req("yellow", "韩梅梅"))
		assert.ErrorIs(t, err, domain.ErrDuplicateSong)

		byID := req("Other", "韩梅梅")
		byID.SongID = "42"
		_, err = f.svc.Submit(ctx, byID)
		assert.ErrorIs(t, err, domain.ErrDuplicateSong)

		_, err = f.svc.Submit(ctx, req("稻香", "李雷"))
		assert.ErrorIs(t, err, domain.ErrAlreadyRequested)
	})

	t.Run("paused", func(t *testing.T) {
		f := setupService(t, Options{})
		_, err := f.svc.TogglePause(ctx, "")
		require.NoError(t, err)
		_, err = f.svc.Submit(ctx, req("晴天", "李雷"))
		assert.ErrorIs(t, err, domain.ErrRequestsPaused)
	})

	t.Run("daily limit", func(t *testing.T) {
		f := setupService(t, Options{MaxDaily: 2})
		for i := 0; i < 2; i++ {
			_, err := f.svc.Submit(ctx, req(fmt.Sprintf("歌%d", i), fmt.Sprintf("学生%d", i)))
			require.NoError(t, err)
		}
		_, err := f.svc.Submit(ctx, req("歌x", "学生x"))
		assert.ErrorIs(t, err, domain.ErrDailyLimit)

		stats, err := f.svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DailyStats{Count: 2, Remaining: 0, Max: 2}, stats)
	})

	t.Run("lyric looked up by song id", func(t *testing.T) {
		songs := &fakeSongs{infos: map[string]*music.SongInfo{"7": {URL: "http://cdn/7.mp3", Lyric: "[00:01]"}}}
		f := setupService(t, Options{Songs: songs})
		in := req("晴天", "李雷")
		in.SongID = "7"
		got, err := f.svc.Submit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "[00:01]", got.Lyric)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	songs := &fakeSongs{infos: map[string]*music.SongInfo{"2": {URL: "http://cdn/2.mp3"}}}
	f := setupService(t, Options{
		Songs: songs,
		Files: fakeFiles{"A": "/data/downloads/A.mp3"},
	})

	require.NoError(t, f.lists.Save(ctx, "2025-03-01", []domain.SongRequest{
		{ID: 1, SongName: "A", Votes: 1},
		{ID: 2, SongName: "B", Votes: 3, SongID: "2"},
		{ID: 3, SongName: "C", Votes: 1, SongID: "missing"},
		{ID: 4, SongName: "D", Votes: 0},
	}))

	list, err := f.svc.Current(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, []int{2, 1, 3, 4}, []int{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
	assert.Equal(t, "http://cdn/2.mp3", list[0].URL)
	assert.Equal(t, "/data/downloads/A.mp3", list[1].URL)
	assert.Empty(t, list[2].URL)
	assert.Empty(t, list[3].URL)
	assert.Equal(t, 2, songs.calls)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := setupService(t, Options{})
	for _, s := range []string{"甲", "乙", "丙"} {
		_, err := f.svc.Submit(ctx, req(s, s+"同学"))
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.Delete(ctx, 2))
	assert.ErrorIs(t, f.svc.Delete(ctx, 2), domain.ErrRequestNotFound)

	n, err := f.svc.BatchDelete(ctx, []int{1, 99})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.BatchDelete(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	n, err = f.svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.Clear(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyList)

	_, err = f.svc.Submit(ctx, req("甲", "甲同学"))
	require.NoError(t, err, "ids and names free again after clearing")
}

func TestVote(t *testing.T) {
	ctx := context.Background()
	f := setupService(t, Options{})
	_, err := f.svc.Submit(ctx, req("晴天", "李雷"))
	require.NoError(t, err)

	votes, err := f.svc.Vote(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	_, err = f.svc.Vote(ctx, 1, "v1")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	votes, err = f.svc.Vote(ctx, 1, "v2")
	require.NoError(t, err)
	assert.Equal(t, 2, votes)

	_, err = f.svc.Vote(ctx, 9, "v1")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	_, err = f.svc.Vote(ctx, 9, "v1")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound, "a failed vote is not remembered")
}

func TestTogglePauseAndAnnouncement(t *testing.T) {
	ctx := context.Background()
	f := setupService(t, Options{})

	st, err := f.svc.TogglePause(ctx, "  ")
	require.NoError(t, err)
	assert.True(t, st.RequestsPaused)
	assert.Equal(t, domain.DefaultPauseReason, st.PauseReason)

	st, err = f.svc.TogglePause(ctx, "ignored")
	require.NoError(t, err)
	assert.False(t, st.RequestsPaused)
	assert.Empty(t, st.PauseReason)

	st, err = f.svc.TogglePause(ctx, "考试周")
	require.NoError(t, err)
	assert.Equal(t, "考试周", st.PauseReason)

	a, err := f.svc.SaveAnnouncement(ctx, " 周五停播 ", true)
	require.NoError(t, err)
	assert.Equal(t, "周五停播", a.Content)

	got, err := f.svc.Announcement(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestDaysAndPrune(t *testing.T) {
	ctx := context.Background()
	f := setupService(t, Options{})

	for _, d := range []string{"2024-11-01", "2024-11-20", "2024-11-21", "2025-02-28"} {
		require.NoError(t, f.lists.Save(ctx, d, nil))
	}

	created, err := f.svc.EnsureCurrentDay(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.svc.EnsureCurrentDay(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	removed, err := f.svc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024-11-01", "2024-11-20"}, removed)

	days, err := f.svc.AvailableDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-02-28", "2024-11-21"}, days)
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	yes, no := true, false
	reviewer := &fakeReviewer{results: []domain.ReviewResult{
		{SongName: "晴天", Passed: &yes, Reason: "ok"},
		{SongName: "坏歌", Passed: &no, Reason: "不适合校园"},
		{SongName: "稻香", Reason: "ok"},
	}}
	f := setupService(t, Options{Reviewer: reviewer})

	_, err := f.svc.RunReview(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyList)

	_, err = f.svc.ApplyReview(ctx, []int{0})
	assert.ErrorIs(t, err, domain.ErrNoReviewResults)

	for i, s := range []string{"晴天", "坏歌", "稻香"} {
		_, err := f.svc.Submit(ctx, req(s, fmt.Sprintf("同学%d", i)))
		require.NoError(t, err)
	}

	results, err := f.svc.RunReview(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Len(t, reviewer.got, 3)

	_, err = f.svc.ApplyReview(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	out, err := f.svc.ApplyReview(ctx, []int{0, 1, 7})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplyOutcome{Applied: 2, Deleted: 2}, out)

	list, err := f.svc.Raw(ctx, f.svc.CurrentDay())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "晴天", list[0].SongName)
}
