package canvas

import (
	"encoding/base64"
	"html/template"
	"net/url"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

func (b *Builder) canonicalURL(section, ref string) string {
	return b.opts.PublicBaseURL + "/" + section + "/" + url.PathEscape(ref)
}

// qrDataURI 生成 PNG 二维码并内联为 data URI；失败时返回空，模板不显示二维码。
func (b *Builder) qrDataURI(content string) template.URL {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		b.opts.Logger.Warn("encode qr code", zap.String("content", content), zap.Error(err))
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
