package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "passed":
		return colorSuccess(status)
	case "error", "fail", "failed":
		return colorError(status)
	default:
		return status
	}
}

func formatSeverityWithColor(s scan.Severity) string {
	switch s {
	case scan.SeverityCritical, scan.SeverityHigh:
		return colorError(s.String())
	case scan.SeverityMedium:
		return colorWarn(s.String())
	case scan.SeverityLow:
		return colorInfo(s.String())
	default:
		return s.String()
	}
}

func formatGradeWithColor(g scan.Grade) string {
	switch g {
	case scan.GradeA, scan.GradeB:
		return colorSuccess(g.String())
	case scan.GradeC, scan.GradeD:
		return colorWarn(g.String())
	default:
		return colorError(g.String())
	}
}
