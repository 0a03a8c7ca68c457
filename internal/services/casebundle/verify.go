package casebundle

import (
	"archive/zip"
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"satark-portal/internal/services/auditverify"
)

type VerifyItem struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Status   string `json:"status"` // ok|missing|mismatch|error
	Error    string `json:"error,omitempty"`
}

type VerifyResult struct {
	LeadID string       `json:"lead_id,omitempty"`
	Total  int          `json:"total"`
	OK     int          `json:"ok"`
	Failed int          `json:"failed"`
	Items  []VerifyItem `json:"items"`
	// Audit 为 nil 表示包内没有可解析的 manifest
	Audit *auditverify.Result `json:"audit,omitempty"`
}

// Intact 要求文件全部匹配且包内审计链未断。
func (r VerifyResult) Intact() bool {
	return r.Failed == 0 && (r.Audit == nil || r.Audit.OK)
}

// Verify 按包内 hashes.sha256 逐个重算文件摘要，再对 manifest 里的审计链做重放。
func Verify(path string) (VerifyResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}
	list, ok := files[hashListName]
	if !ok {
		return VerifyResult{}, fmt.Errorf("%s not found in zip", hashListName)
	}
	expected, err := readHashList(list)
	if err != nil {
		return VerifyResult{}, err
	}

	var res VerifyResult
	for _, e := range expected {
		res.Total++
		item := VerifyItem{Path: e.path, Expected: e.sum}
		f, ok := files[e.path]
		switch {
		case !ok:
			item.Status = "missing"
		default:
			sum, err := sumZipFile(f)
			if err != nil {
				item.Status = "error"
				item.Error = err.Error()
			} else {
				item.Actual = sum
				item.Status = "ok"
				if !strings.EqualFold(sum, e.sum) {
					item.Status = "mismatch"
				}
			}
		}
		if item.Status == "ok" {
			res.OK++
		} else {
			res.Failed++
		}
		res.Items = append(res.Items, item)
	}

	if mf, ok := files[manifestName]; ok {
		if data, err := readZipFile(mf); err == nil {
			var m Manifest
			if err := json.Unmarshal(data, &m); err == nil {
				res.LeadID = m.LeadID
				a := auditverify.Verify(m.Audits)
				a.LeadID = m.LeadID
				res.Audit = &a
			}
		}
	}
	return res, nil
}

type hashLine struct {
	sum  string
	path string
}

func readHashList(f *zip.File) ([]hashLine, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", hashListName, err)
	}
	defer rc.Close()

	var out []hashLine
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sum, p, ok := strings.Cut(line, "  ")
		if !ok || len(sum) != 64 || strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, hashLine{sum: sum, path: strings.TrimSpace(p)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", hashListName, err)
	}
	return out, nil
}

func sumZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
