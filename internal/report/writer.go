package report

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/apiprobe/internal/security"
	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
)

// Writer writes every requested format of a run into the repository's
// output directory.
type Writer struct {
	repo    *json.ReportRepository
	version string
	logger  *zap.SugaredLogger
}

// NewWriter creates a writer backed by repo.
func NewWriter(repo *json.ReportRepository, version string, logger *zap.SugaredLogger) *Writer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Writer{repo: repo, version: version, logger: logger}
}

// Render produces the bytes of one format.
func (w *Writer) Render(f Format, run *scan.Run, a scan.Assessment) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Encode(run, a)
	case FormatMarkdown:
		return Markdown(NewView(w.version, run, a))
	case FormatPDF:
		return PDF(NewView(w.version, run, a))
	}
	_, err := ParseFormat(string(f))
	return nil, err
}

// WriteAll writes each format independently. A failing format does not stop
// the others; all failures are returned together. The returned paths are the
// files actually written, in format order.
func (w *Writer) WriteAll(ctx context.Context, run *scan.Run, a scan.Assessment, formats []Format) ([]string, error) {
	var (
		paths []string
		errs  error
	)
	for _, f := range formats {
		path, err := w.write(ctx, f, run, a)
		if err != nil {
			w.logger.Errorw("report write failed", "format", f, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s report: %w", f, err))
			continue
		}
		w.logger.Infow("report written", "format", f, "path", path)
		paths = append(paths, path)
	}
	return paths, errs
}

func (w *Writer) write(ctx context.Context, f Format, run *scan.Run, a scan.Assessment) (string, error) {
	if f == FormatJSON {
		return w.repo.Save(ctx, run, a)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := w.Render(f, run, a)
	if err != nil {
		return "", err
	}
	return security.WriteFileWithin(w.repo.Dir(), f.Filename(), data, consts.DefaultFilePerm)
}
