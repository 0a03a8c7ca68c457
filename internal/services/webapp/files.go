package webapp

import (
	"fmt"
	"net/http"
	"path/filepath"
)

// serveFile 以附件方式下发本地文件。name 为空时沿用磁盘文件名。
func serveFile(w http.ResponseWriter, r *http.Request, path string, name string) {
	if name == "" {
		name = filepath.Base(path)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
