package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// UI 是终端输出：带颜色前缀的提示行和统一风格的表格。
type UI struct {
	Out    io.Writer
	ErrOut io.Writer
}

func NewUI(out, errOut io.Writer) *UI {
	return &UI{Out: out, ErrOut: errOut}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("!")
	red           = color.New(color.FgHiRed).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
)

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

// Table 创建左对齐、无边框的表格。
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
	)
	table.Header(headers)
	return table
}

// priorityColor 按优先级着色。
func priorityColor(p string) string {
	switch strings.ToUpper(p) {
	case "CRITICAL", "EXTREME":
		return red(p)
	case "HIGH":
		return yellow(p)
	case "":
		return ""
	default:
		return cyan(p)
	}
}

func okColor(ok bool, s string) string {
	if ok {
		return green(s)
	}
	return red(s)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
