package dossierpdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"satark-portal/internal/services/canvas"
)

// A4 纵向（mm）
const (
	pageW = 210.0
	pageH = 297.0
)

// BuildImagePDF 把截图放进单页 A4，按 min(页宽/图宽, 页高/图高) 缩放，从左上角放置。
// 结果是纯图片 PDF，不可检索。
func BuildImagePDF(png []byte, title string) (*gofpdf.Fpdf, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	if format != "png" || cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("unexpected screenshot format %s %dx%d", format, cfg.Width, cfg.Height)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	ratio := FitRatio(float64(cfg.Width), float64(cfg.Height))
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("canvas", opts, bytes.NewReader(png))
	pdf.ImageOptions("canvas", 0, 0, float64(cfg.Width)*ratio, float64(cfg.Height)*ratio, false, opts, 0, "")
	if pdf.Err() {
		return nil, fmt.Errorf("embed screenshot: %w", pdf.Error())
	}
	return pdf, nil
}

// FitRatio 是像素到 mm 的缩放比。
func FitRatio(imgW, imgH float64) float64 {
	return min(pageW/imgW, pageH/imgH)
}

// TextFallback 在没有浏览器时生成文字版 PDF，字段与 canvas 一致。
func TextFallback(v canvas.View, fontPath string, generatedAt time.Time) (*gofpdf.Fpdf, bool) {
	base := v.Common()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle(v.FileName(), true)

	fontFamily, utf8OK := initPDFUnicodeFont(pdf, fontPath)
	pdf.AddPage()

	heading := map[string]string{
		"wanted":  "WANTED",
		"missing": "MISSING PERSON",
		"alert":   "PUBLIC SAFETY ALERT",
		"intel":   "INTELLIGENCE REPORT",
	}[v.Kind.String()]

	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(150, 20, 20)
	pdf.CellFormat(0, 10, heading, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, "Ref: "+safeText(base.Ref, utf8OK), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated at: "+generatedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	item := func(it canvas.Item) { kv(pdf, fontFamily, utf8OK, it.Label, it.Value) }
	items := func(title string, its []canvas.Item) {
		if len(its) == 0 {
			return
		}
		sectionTitle(pdf, fontFamily, title)
		for _, it := range its {
			item(it)
		}
		pdf.Ln(2)
	}
	para := func(title, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		sectionTitle(pdf, fontFamily, title)
		pdf.SetFont(fontFamily, "", 10)
		pdf.SetTextColor(20, 20, 20)
		pdf.MultiCell(0, 5, safeText(text, utf8OK), "", "L", false)
		pdf.Ln(2)
	}

	switch {
	case v.Wanted != nil:
		w := v.Wanted
		kv(pdf, fontFamily, utf8OK, "Name", w.Name)
		kv(pdf, fontFamily, utf8OK, "Alias", w.Alias)
		if w.Caution != "" {
			kv(pdf, fontFamily, utf8OK, "Caution", w.Caution)
		}
		kv(pdf, fontFamily, utf8OK, "Reward", w.Bounty)
		pdf.Ln(2)
		items("Identity", w.Identity)
		items("Physical Description", w.Physical)
		items("Crime Information", w.Crime)
		para("Charges", strings.Join(w.Charges, "; "))
		para("Narrative", w.NarrativeMD)
		items("Warrant Information", w.Warrant)
		para("Operational Warnings", w.Operational)
		items("Last Seen & Known Ties", w.LastSeen)
		para("Background & Intelligence Remarks", w.Background)
	case v.Missing != nil:
		m := v.Missing
		kv(pdf, fontFamily, utf8OK, "Name", m.Name)
		kv(pdf, fontFamily, utf8OK, "Missing Since", m.MissingDate)
		kv(pdf, fontFamily, utf8OK, "District", m.District)
		kv(pdf, fontFamily, utf8OK, "Reward", m.Reward)
		pdf.Ln(2)
		items("Summary", m.Stats)
		para("Last Seen", m.Location+" ("+m.MissingDate+", "+m.MissingTime+")")
		items("Physical Description", m.Physical)
		para("Identifying Marks", m.Marks)
		para("Items Carried", m.Belongings)
		para("Guardian Contact", m.Guardian)
		para("Share", m.QRTarget)
	case v.Alert != nil:
		a := v.Alert
		kv(pdf, fontFamily, utf8OK, "Title", a.Title)
		kv(pdf, fontFamily, utf8OK, "Date", a.Date)
		kv(pdf, fontFamily, utf8OK, "Location", a.Location)
		kv(pdf, fontFamily, utf8OK, "Severity", a.Severity)
		pdf.Ln(2)
		para("Description", a.Description)
		if len(a.Instructions) > 0 {
			sectionTitle(pdf, fontFamily, "Public Instructions")
			pdf.SetFont(fontFamily, "", 10)
			for i, inst := range a.Instructions {
				pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, safeText(inst, utf8OK)), "", "L", false)
			}
			pdf.Ln(2)
		}
		para("Official Source", a.LinkURL)
	case v.Intel != nil:
		in := v.Intel
		kv(pdf, fontFamily, utf8OK, "Title", in.Title)
		kv(pdf, fontFamily, utf8OK, "Category", in.Category)
		kv(pdf, fontFamily, utf8OK, "Priority", in.PriorityText)
		kv(pdf, fontFamily, utf8OK, "Date", strings.TrimSpace(in.DateText+" "+in.TimeText))
		kv(pdf, fontFamily, utf8OK, "Location", in.Location)
		kv(pdf, fontFamily, utf8OK, "Classification", in.Classification)
		kv(pdf, fontFamily, utf8OK, "Reward", in.Reward)
		pdf.Ln(2)
		para("Narrative", in.NarrativeMD)
		para("Information Sought", in.SeekingInfo)
		para("Suspect Details", in.Suspect)
		para("Vehicle Details", in.Vehicle)
		para("Canonical Record", in.QRTarget)
	}

	if len(base.Media) > 0 {
		sectionTitle(pdf, fontFamily, "Attachments")
		pdf.SetFont(fontFamily, "", 9)
		for i, m := range base.Media {
			pdf.MultiCell(0, 4.5, fmt.Sprintf("%d. %s (%s)", i+1, safeText(m.Name, utf8OK), m.Kind), "", "L", false)
		}
		pdf.Ln(2)
	}

	pdf.SetFont(fontFamily, "", 8)
	pdf.SetTextColor(110, 110, 110)
	pdf.MultiCell(0, 4, "Text rendition generated without a browser. Layout differs from the on-screen dossier.", "", "L", false)
	return pdf, utf8OK
}

func sectionTitle(pdf *gofpdf.Fpdf, fontFamily string, title string) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pdf.GetX(), pdf.GetY(), 196, pdf.GetY())
	pdf.Ln(2)
}

func kv(pdf *gofpdf.Fpdf, fontFamily string, utf8OK bool, key string, value string) {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetTextColor(30, 30, 30)
	pdf.CellFormat(44, 5.2, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(20, 20, 20)
	pdf.MultiCell(0, 5.2, safeText(value, utf8OK), "", "L", false)
}

// safeText：没有 UTF-8 字体时把非 ASCII 字符替换成 '?'，保证 PDF 一定能生成。
// ₹ 单独转成 "Rs." 以免金额变成问号。
func safeText(s string, utf8OK bool) string {
	s = strings.NewReplacer("\r", " ", "\t", " ").Replace(s)
	s = strings.TrimSpace(s)
	if utf8OK {
		return s
	}
	s = strings.ReplaceAll(s, "₹", "Rs.")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 32 && r <= 126) || r == '\n' {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// fontEnv 指定 UTF-8 字体路径（优先于配置和系统探测）。
const fontEnv = "SATARK_PDF_FONT"

// initPDFUnicodeFont 依次尝试：环境变量、配置的字体、常见系统字体；都失败则回退 Helvetica。
func initPDFUnicodeFont(pdf *gofpdf.Fpdf, configured string) (family string, utf8OK bool) {
	const familyName = "unicode"
	candidates := []string{os.Getenv(fontEnv), configured}

	switch runtime.GOOS {
	case "darwin":
		candidates = append(candidates,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/Library/Fonts/Arial Unicode.ttf",
		)
	case "windows":
		candidates = append(candidates,
			`C:\Windows\Fonts\arialuni.ttf`,
			`C:\Windows\Fonts\Nirmala.ttf`,
			`C:\Windows\Fonts\arial.ttf`,
		)
	default:
		candidates = append(candidates,
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
			"/usr/share/fonts/noto/NotoSans-Regular.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
		)
	}

	for _, p := range candidates {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		pdf.AddUTF8Font(familyName, "", p)
		if pdf.Err() {
			pdf.ClearError()
			continue
		}
		pdf.AddUTF8Font(familyName, "B", p)
		if pdf.Err() {
			pdf.ClearError()
		}
		return familyName, true
	}
	return "Helvetica", false
}
