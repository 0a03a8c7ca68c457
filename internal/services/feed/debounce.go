package feed

import (
	"context"
	"time"
)

// DebounceDelay 是搜索框的防抖时间。
const DebounceDelay = 400 * time.Millisecond

// Debounce 只在输入静默 delay 之后转发最后一个值。
// in 关闭时会先把尚未发出的值发出；ctx 结束时直接退出。两种情况都会关闭返回的 channel。
func Debounce(ctx context.Context, in <-chan string, delay time.Duration) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)

		var (
			timer   *time.Timer
			fire    <-chan time.Time
			pending string
			armed   bool
		)
		stop := func() {
			if timer != nil {
				timer.Stop()
			}
		}
		defer stop()

		emit := func(v string) bool {
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					if armed {
						emit(pending)
					}
					return
				}
				pending, armed = v, true
				stop()
				timer = time.NewTimer(delay)
				fire = timer.C
			case <-fire:
				fire = nil
				armed = false
				if !emit(pending) {
					return
				}
			}
		}
	}()
	return out
}
