package dossierpdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoBrowser 表示当前环境无法启动无头浏览器。
var ErrNoBrowser = errors.New("headless browser not available")

// Rasterizer 把一段完整 HTML 中 selector 命中的元素截成 PNG。
type Rasterizer interface {
	Rasterize(ctx context.Context, html, selector string) ([]byte, error)
}

// RodRasterizer 每次导出启动一个无头 Chrome，截图后即关闭。
// ControlURL 非空时连接已有浏览器，不再自行启动。
type RodRasterizer struct {
	BrowserBin string
	ControlURL string
	Timeout    time.Duration
	Width      int
}

const hideNoPrintJS = `() => {
	document.querySelectorAll('.no-print').forEach((el) => { el.style.display = 'none'; });
	return true;
}`

func (r *RodRasterizer) Rasterize(ctx context.Context, html, selector string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	controlURL := strings.TrimSpace(r.ControlURL)
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if bin := strings.TrimSpace(r.BrowserBin); bin != "" {
			l = l.Bin(bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBrowser, err)
		}
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	width := r.Width
	if width <= 0 {
		width = 1100
	}
	// 2 倍像素密度，导出的图片在 A4 上更清晰
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            1400,
		DeviceScaleFactor: 2,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Evaluate(&rod.EvalOptions{JS: hideNoPrintJS}); err != nil {
		return nil, fmt.Errorf("hide no-print elements: %w", err)
	}

	el, err := page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", selector, err)
	}
	return png, nil
}
