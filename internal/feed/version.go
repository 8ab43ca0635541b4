package feed

import (
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

// Token is the per-request cache-busting value: milliseconds since the epoch.
// Every value derived during one synthesis comes from the same Token.
type Token int64

func NewToken(now time.Time) Token {
	return Token(now.UnixMilli())
}

func (t Token) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// GUID is the per-location item identifier, e.g. "tokyo-1700000000000".
func (t Token) GUID(base string) string {
	return base + "-" + t.String()
}

// CameraPath prefixes file with the token so the client sees a new image URL.
func (t Token) CameraPath(file string) string {
	return t.String() + "/" + file
}

// HexGUID hex-encodes "prefix-token".
func (t Token) HexGUID(prefix string) string {
	return hex.EncodeToString([]byte(prefix + "-" + t.String()))
}

// Versions hands out tokens that never go backwards, even if the wall
// clock does. Equal tokens for requests in the same millisecond are fine.
type Versions struct {
	now  func() time.Time
	last atomic.Int64
}

func NewVersions(now func() time.Time) *Versions {
	if now == nil {
		now = time.Now
	}
	return &Versions{now: now}
}

// Next returns the token for a new synthesis.
func (v *Versions) Next() Token {
	t := int64(NewToken(v.now()))
	for {
		last := v.last.Load()
		if t <= last {
			return Token(last)
		}
		if v.last.CompareAndSwap(last, t) {
			return Token(t)
		}
	}
}
