package canvas

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed assets/canvas.css
var stylesheet []byte

//go:embed assets/badge.svg
var placeholderSVG []byte

var canvasTmpl = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

// Stylesheet 返回 canvas 的样式表（页面与导出共用）。
func Stylesheet() []byte { return stylesheet }

// PlaceholderSVG 返回占位图内容。
func PlaceholderSVG() []byte { return placeholderSVG }

// Render 把视图写成 HTML 片段。
func Render(w io.Writer, v View) error {
	if err := canvasTmpl.ExecuteTemplate(w, "canvas", v); err != nil {
		return fmt.Errorf("render canvas: %w", err)
	}
	return nil
}

// RenderHTML 是 Render 的字符串版本，供页面模板嵌入。
func RenderHTML(v View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Document 生成可独立加载的完整 HTML（样式内联、占位图内联），用于无头浏览器截图。
func Document(v View) (string, error) {
	if base := v.Common(); base.PhotoPlaceholder {
		v = withPhoto(v, template.URL("data:image/svg+xml;base64,"+base64.StdEncoding.EncodeToString(placeholderSVG)))
	}
	data := struct {
		Title string
		CSS   template.CSS
		View  View
	}{
		Title: v.FileName(),
		CSS:   template.CSS(stylesheet),
		View:  v,
	}
	var buf bytes.Buffer
	if err := canvasTmpl.ExecuteTemplate(&buf, "document", data); err != nil {
		return "", fmt.Errorf("render canvas document: %w", err)
	}
	return buf.String(), nil
}

// withPhoto 返回替换了照片的副本（各视图指针不共享）。
func withPhoto(v View, photo template.URL) View {
	switch {
	case v.Wanted != nil:
		cp := *v.Wanted
		cp.Photo = photo
		v.Wanted = &cp
	case v.Missing != nil:
		cp := *v.Missing
		cp.Photo = photo
		v.Missing = &cp
	case v.Alert != nil:
		cp := *v.Alert
		cp.Photo = photo
		v.Alert = &cp
	case v.Intel != nil:
		cp := *v.Intel
		cp.Photo = photo
		v.Intel = &cp
	}
	return v
}
