package downloads

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/campus-radio/songdesk/internal/logging"
	"github.com/campus-radio/songdesk/internal/music"
	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublicPrefix is where cached files are served from.
const PublicPrefix = "/data/downloads/"

const (
	maxFilenameRunes = 100
	cdnReferer       = "http://music.126.net/"
	cdnUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"
)

var ErrFileNotFound = errors.New("文件不存在")

// SongSource resolves a song id to a downloadable URL.
type SongSource interface {
	Song(ctx context.Context, songID string) (*music.SongInfo, error)
}

// Store caches downloaded songs on disk and builds zip bundles of a day's list.
type Store struct {
	dir        string
	bundleDir  string
	source     SongSource
	httpClient *http.Client
	now        func() time.Time
}

// NewStore creates the cache and bundle directories if needed.
func NewStore(dir, bundleDir string, source SongSource, timeout time.Duration) (*Store, error) {
	for _, d := range []string{dir, bundleDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &Store{
		dir:        dir,
		bundleDir:  bundleDir,
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

// SanitizeFilename replaces characters that are illegal in file names,
// drops control characters and limits the result to 100 runes.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		case r < 32:
		default:
			b.WriteRune(r)
		}
	}

	runes := []rune(b.String())
	if len(runes) > maxFilenameRunes {
		runes = runes[:maxFilenameRunes]
	}
	return strings.TrimSpace(string(runes))
}

// FileName is the cache file name for a song.
func FileName(songName string) string {
	return SanitizeFilename(songName) + ".mp3"
}

// URLFor returns the public URL of a cached song, if it has been downloaded.
func (s *Store) URLFor(songName string) (string, bool) {
	name := FileName(songName)
	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		return "", false
	}
	return PublicPrefix + url.PathEscape(name), true
}

// Fetch downloads a song into the cache and returns its path and lyric.
func (s *Store) Fetch(ctx context.Context, songID, songName string) (string, string, error) {
	if strings.TrimSpace(songID) == "" {
		return "", "", music.ErrMissingSongID
	}

	info, err := s.source.Song(ctx, songID)
	if err != nil {
		return "", "", err
	}
	if info.URL == "" {
		return "", info.Lyric, music.ErrNoDownloadURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return "", info.Lyric, fmt.Errorf("下载失败: %w", err)
	}
	req.Header.Set("Referer", cdnReferer)
	req.Header.Set("User-Agent", cdnUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", info.Lyric, fmt.Errorf("网络错误: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", info.Lyric, fmt.Errorf("网络错误: status %d", resp.StatusCode)
	}

	path := filepath.Join(s.dir, FileName(songName))
	if err := writeAtomic(path, resp.Body); err != nil {
		return "", info.Lyric, fmt.Errorf("下载失败: %w", err)
	}
	return path, info.Lyric, nil
}

// BundleResult describes a built zip bundle.
type BundleResult struct {
	FileName     string `json:"file_name"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
}

// Bundle zips every song of the list, most voted first. Songs without an id
// or that fail to download are counted as errors and skipped.
func (s *Store) Bundle(ctx context.Context, songs []domain.SongRequest) (*BundleResult, error) {
	log := logging.FromContext(ctx)

	sorted := make([]domain.SongRequest, len(songs))
	copy(sorted, songs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Votes > sorted[j].Votes })

	res := &BundleResult{FileName: fmt.Sprintf("songs_%s.zip", s.now().Format(domain.DayLayout))}
	tmp := filepath.Join(s.bundleDir, "."+uuid.NewString()+".zip")

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create bundle: %w", err)
	}
	defer os.Remove(tmp)

	zw := zip.NewWriter(f)
	for i, song := range sorted {
		if song.SongID == "" {
			log.Warn("song has no id, skipping", zap.String("song", song.SongName))
			res.ErrorCount++
			continue
		}

		path := filepath.Join(s.dir, FileName(song.SongName))
		if _, err := os.Stat(path); err != nil {
			if path, _, err = s.Fetch(ctx, song.SongID, song.SongName); err != nil {
				log.Error("download failed", zap.String("song", song.SongName), zap.Error(err))
				res.ErrorCount++
				continue
			}
		}

		entry := fmt.Sprintf("%02d_%d票_%s.mp3", i+1, song.Votes, SanitizeFilename(song.SongName))
		if err := addFile(zw, entry, path); err != nil {
			log.Error("add to bundle failed", zap.String("song", song.SongName), zap.Error(err))
			res.ErrorCount++
			continue
		}
		res.SuccessCount++
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finish bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("finish bundle: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.bundleDir, res.FileName)); err != nil {
		return nil, fmt.Errorf("store bundle: %w", err)
	}

	log.Info("bundle built",
		zap.String("file", res.FileName),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res, nil
}

// OpenCached opens a cached song. Only the base name of name is used.
func (s *Store) OpenCached(name string) (*os.File, error) {
	return openIn(s.dir, name)
}

// OpenBundle opens a built bundle. Only the base name of name is used.
func (s *Store) OpenBundle(name string) (*os.File, error) {
	return openIn(s.bundleDir, name)
}

// Purge empties the song cache.
func (s *Store) Purge() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
	}
	return nil
}

func openIn(dir, name string) (*os.File, error) {
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		return nil, ErrFileNotFound
	}

	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func addFile(zw *zip.Writer, entry, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(entry)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeAtomic(path string, r io.Reader) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
