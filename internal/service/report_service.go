package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/internal/util"
	"quiz_bank_backend/pkg/logger"
	"quiz_bank_backend/pkg/tracing"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

const (
	stampFile     = "stamp.png"
	reportFont    = "report"
	stampSizeMM   = 30.0
	stampMarginMM = 10.0
)

// 标题颜色 #6eb8e0
var headingColor = [3]int{0x6e, 0xb8, 0xe0}

type ReportService struct {
	Cfg config.ReportConfig

	stampMu sync.Mutex
}

func NewReportService(cfg config.ReportConfig) *ReportService {
	return &ReportService{Cfg: cfg}
}

func (s *ReportService) outputDir() string {
	if s.Cfg.OutputDir == "" {
		return "documents"
	}
	return s.Cfg.OutputDir
}

// Generate 渲染测验结果 PDF，返回报告 ID
func (s *ReportService) Generate(ctx context.Context, result QuizResult) (id string, err error) {
	_, span := tracing.StartSpan(ctx, "report.generate")
	defer func() { tracing.EndSpan(span, err) }()

	if s.Cfg.FontPath == "" && !cp1252Encodable(reportTexts(result)...) {
		return "", fmt.Errorf("%w: text outside cp1252, set report.font_path", util.ErrReportFontRequired)
	}

	if err := os.MkdirAll(s.outputDir(), 0755); err != nil {
		return "", err
	}
	stamp, err := s.stampPath()
	if err != nil {
		return "", fmt.Errorf("prepare stamp: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 10, 15)
	pdf.SetAutoPageBreak(true, 15)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if s.Cfg.FontPath != "" {
		pdf.AddUTF8Font(reportFont, "", s.Cfg.FontPath)
		pdf.AddUTF8Font(reportFont, "B", s.Cfg.FontPath)
		family = reportFont
		tr = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.ImageOptions(stamp, 210-stampMarginMM-stampSizeMM, stampMarginMM, stampSizeMM, 0, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	// 标题
	pdf.SetFont(family, "B", 20)
	pdf.SetTextColor(headingColor[0], headingColor[1], headingColor[2])
	pdf.CellFormat(0, 12, tr("Quiz results"), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, tr("Final result with recommendations"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, time.Now().Format(util.DateFormat), "", 1, "L", false, 0, "")
	pdf.Ln(stampSizeMM - 18)

	// 总体结果
	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont(family, "B", 14)
		pdf.SetTextColor(headingColor[0], headingColor[1], headingColor[2])
		pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	section("Overall results")
	rows := [][2]string{
		{"Parameter", "Value"},
		{"Questions", fmt.Sprintf("%d", result.TotalQuestions)},
		{"Correct answers", fmt.Sprintf("%d", result.TotalCorrectAnswers)},
		{"Success rate", fmt.Sprintf("%.2f%%", result.ScorePercent)},
	}
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont(family, style, 11)
		pdf.CellFormat(70, 8, tr(row[0]), "TB", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(row[1]), "TB", 1, "L", false, 0, "")
	}

	section("Details by question")
	for _, a := range result.Answers {
		mark := "incorrect"
		if a.IsCorrect {
			mark = "correct"
		}
		pdf.SetFont(family, "B", 12)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%s (%s)", a.Description, mark)), "", "L", false)
		pdf.SetFont(family, "", 11)
		if text := HTMLToText(a.Explanation); text != "" {
			pdf.MultiCell(0, 6, tr(text), "", "L", false)
		}
		pdf.Ln(2)
	}

	section("Recommendations")
	pdf.SetFont(family, "", 11)
	pdf.MultiCell(0, 6, tr(HTMLToText(result.AIRecommendations)), "", "L", false)

	id = model.GenerateUUID()
	if err := pdf.OutputFileAndClose(s.filePath(id)); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	logger.Log.Info("Report generated", zap.String("id", id), zap.Int("questions", result.TotalQuestions))
	return id, nil
}

func (s *ReportService) filePath(id string) string {
	return filepath.Join(s.outputDir(), id+".pdf")
}

// Open 打开已生成的报告，ID 必须是 UUID
func (s *ReportService) Open(id string) (*os.File, error) {
	if !model.IsUUID(id) {
		return nil, util.ErrReportNotFound
	}
	f, err := os.Open(s.filePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, util.ErrReportNotFound
	}
	return f, err
}

// Delete 删除 <id>.* 的所有产物，印章图片除外
func (s *ReportService) Delete(id string) error {
	if !model.IsUUID(id) {
		return util.ErrReportNotFound
	}
	matches, err := filepath.Glob(filepath.Join(s.outputDir(), id+".*"))
	if err != nil {
		return err
	}

	removed := 0
	for _, m := range matches {
		if strings.EqualFold(filepath.Ext(m), ".png") {
			continue
		}
		if err := os.Remove(m); err != nil {
			return err
		}
		removed++
	}
	if removed == 0 {
		return util.ErrReportNotFound
	}
	return nil
}

// stampPath 返回印章图片路径，未配置时用 gg 绘制，写入失败的下次调用会重试
func (s *ReportService) stampPath() (string, error) {
	if s.Cfg.StampPath != "" {
		return s.Cfg.StampPath, nil
	}
	path := filepath.Join(s.outputDir(), stampFile)

	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	var buf bytes.Buffer
	if err := DrawStamp(&buf); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// reportTexts 收集写入报告的动态文本
func reportTexts(result QuizResult) []string {
	texts := make([]string, 0, 2*len(result.Answers)+1)
	for _, a := range result.Answers {
		texts = append(texts, a.Description, HTMLToText(a.Explanation))
	}
	return append(texts, HTMLToText(result.AIRecommendations))
}

// cp1252Encodable 内置 Helvetica 只能输出 cp1252 字符
func cp1252Encodable(texts ...string) bool {
	enc := charmap.Windows1252.NewEncoder()
	for _, t := range texts {
		if _, err := enc.String(t); err != nil {
			return false
		}
	}
	return true
}

// DrawStamp 绘制圆形印章 PNG
func DrawStamp(w io.Writer) error {
	const size = 240
	dc := gg.NewContext(size, size)

	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()

	r, g, b := float64(headingColor[0])/255, float64(headingColor[1])/255, float64(headingColor[2])/255
	dc.SetRGB(r, g, b)
	dc.SetLineWidth(10)
	dc.DrawCircle(size/2, size/2, size/2-12)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawCircle(size/2, size/2, size/2-30)
	dc.Stroke()

	dc.DrawStringAnchored("QUIZ BANK", size/2, size/2-12, 0.5, 0.5)
	dc.DrawStringAnchored("CHECKED", size/2, size/2+12, 0.5, 0.5)

	return dc.EncodePNG(w)
}

// HTMLToText 将富文本说明转换为纯文本段落
func HTMLToText(src string) string {
	if !strings.ContainsAny(src, "<&") {
		return strings.TrimSpace(src)
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.TrimSpace(src)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
			case "li":
				b.WriteString("\n- ")
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "tr":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "ul", "ol", "table":
				b.WriteString("\n")
			}
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
