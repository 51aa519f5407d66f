package repository

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
)

// ErrBadCursor 游标无法解码（调用方只能回传原样 token）
var ErrBadCursor = errors.New("malformed page cursor")

// pageCursor 翻页续读位置：上一页最后一条的 (score, post_id)
type pageCursor struct {
	score  int64
	postID string
}

func encodeCursor(score int64, postID string) string {
	buf := make([]byte, 8+len(postID))
	binary.BigEndian.PutUint64(buf[:8], uint64(score))
	copy(buf[8:], postID)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func decodeCursor(token string) (pageCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < 8 {
		return pageCursor{}, ErrBadCursor
	}
	return pageCursor{
		score:  int64(binary.BigEndian.Uint64(raw[:8])),
		postID: string(raw[8:]),
	}, nil
}
