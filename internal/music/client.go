package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrEmptyKeyword  = errors.New("请输入歌曲名称")
	ErrNotFound      = errors.New("未找到相关歌曲")
	ErrMissingSongID = errors.New("缺少歌曲ID")
	ErrNoDownloadURL = errors.New("无法获取歌曲下载链接")
)

const searchLimit = 10

// SongInfo is the playable source of a song.
type SongInfo struct {
	URL   string `json:"url"`
	Lyric string `json:"lyric"`
}

// envelope is the wrapper every upstream response comes in.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the upstream music search and streaming API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client limited to rps requests per second.
func NewClient(baseURL string, rps float64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps*2) + 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Search returns up to ten songs matching keyword. Entries are passed through
// as the upstream returns them.
func (c *Client) Search(ctx context.Context, keyword string) ([]map[string]interface{}, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("limit", fmt.Sprint(searchLimit))

	env, err := c.get(ctx, "/Search", params)
	if err != nil {
		return nil, err
	}
	if !env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrNotFound
	}

	var songs []map[string]interface{}
	if err := json.Unmarshal(env.Data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	if len(songs) == 0 {
		return nil, ErrNotFound
	}
	return songs, nil
}

// Song resolves the streaming URL and lyric of a song id.
func (c *Client) Song(ctx context.Context, songID string) (*SongInfo, error) {
	if strings.TrimSpace(songID) == "" {
		return nil, ErrMissingSongID
	}

	params := url.Values{}
	params.Set("url", songID)
	params.Set("level", "standard")
	params.Set("type", "json")

	env, err := c.get(ctx, "/Song_V1", params)
	if err != nil {
		return nil, err
	}
	if !env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		msg := env.Message
		if msg == "" {
			msg = "获取歌曲信息失败"
		}
		return nil, errors.New(msg)
	}

	var info SongInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse song info: %w", err)
	}
	return &info, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("music api rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call music api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("music api returned status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &env, nil
}
