package model

import "strings"

// MediaItem 是 lead 附带的证据文件。file_type 由后端透传（通常是 MIME），不保证规范。
type MediaItem struct {
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	FileName string `json:"file_name,omitempty"`
}

// MediaKind 是对 file_type 的归类结果。
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaImage
	MediaVideo
	MediaPDF
	MediaDocument
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaPDF:
		return "pdf"
	case MediaDocument:
		return "document"
	case MediaUnknown:
		return "unknown"
	}
	return "unknown"
}

// Kind 大小写不敏感地按子串归类。
// pdf 先于 document 判断（"application/pdf" 同时也是文档）。
func (m MediaItem) Kind() MediaKind {
	t := strings.ToLower(m.FileType)
	switch {
	case strings.Contains(t, "image"):
		return MediaImage
	case strings.Contains(t, "video"):
		return MediaVideo
	case strings.Contains(t, "pdf"):
		return MediaPDF
	case strings.Contains(t, "document"), strings.Contains(t, "msword"), strings.Contains(t, "text"):
		return MediaDocument
	}
	return MediaUnknown
}

// DisplayName 优先 file_name，否则取路径最后一段。
func (m MediaItem) DisplayName() string {
	if n := strings.TrimSpace(m.FileName); n != "" {
		return n
	}
	p := strings.TrimRight(m.FilePath, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// FirstImage 返回第一个图片类证据的路径。
func FirstImage(media []MediaItem) (string, bool) {
	for _, m := range media {
		if m.Kind() == MediaImage && strings.TrimSpace(m.FilePath) != "" {
			return m.FilePath, true
		}
	}
	return "", false
}
