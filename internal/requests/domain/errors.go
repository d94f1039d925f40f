package domain

import "errors"

// User facing failures carry the message shown on the request page.
var (
	ErrRequestsPaused   = errors.New("点歌功能已暂停，请稍后再试")
	ErrDailyLimit       = errors.New("今日点歌数量已达上限，请明天再来")
	ErrDuplicateSong    = errors.New("该歌曲已被点过，请选择其他歌曲")
	ErrAlreadyRequested = errors.New("您已经点过一首歌了，每人只能点一首")
	ErrAlreadyVoted     = errors.New("您已经投过票了")
	ErrRequestNotFound  = errors.New("song request not found")
	ErrInvalidDate      = errors.New("invalid date")
	ErrNoReviewResults  = errors.New("no review results available")
	ErrEmptySelection   = errors.New("未选择任何歌曲")
	ErrEmptyList        = errors.New("今日无点歌记录")
)
