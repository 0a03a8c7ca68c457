package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// New 生成带前缀的唯一 ID：prefix + "_" + 小写 ULID。
// ULID 按时间单调递增，日志和 sqlite 里按 ID 排序即按生成顺序。
func New(prefix string) string {
	entropyMu.Lock()
	u := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()

	s := strings.ToLower(u.String())
	if prefix == "" {
		return s
	}
	return prefix + "_" + s
}
