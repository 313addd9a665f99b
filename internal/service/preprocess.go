package service

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/metrics"
)

var errEmptyPDF = errors.New("pdf has no pages")

// prepareImage rasterizes PDF uploads to a PNG of their first page. Any other
// input is returned unchanged and validated later by the adapter.
func prepareImage(image string) (string, error) {
	d, err := dataurl.Parse(image)
	if err != nil || !d.IsPDF() {
		return image, nil
	}

	start := time.Now()
	out, err := rasterizePDF(d)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.FilePreprocessTotal(status, "pdf")
	metrics.FilePreprocessDuration(status, "pdf", time.Since(start))

	if err != nil {
		return "", &generation.Error{
			Kind:    generation.ErrorKindValidation,
			Message: fmt.Sprintf("failed to convert pdf: %v", err),
			Err:     fmt.Errorf("%w: %w", generation.ErrInvalidImage, err),
		}
	}
	return out, nil
}

func rasterizePDF(d dataurl.DataURL) (string, error) {
	data, err := d.Bytes()
	if err != nil {
		return "", err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return "", errEmptyPDF
	}

	img, err := doc.Image(0)
	if err != nil {
		return "", fmt.Errorf("failed to render first page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return dataurl.FromBytes(dataurl.MIMEPNG, buf.Bytes()), nil
}
