package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/caarlos0/env/v11"
	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"github.com/kdduha/snap2html/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

var formatMIME = map[string]string{
	"png":  dataurl.MIMEPNG,
	"jpg":  dataurl.MIMEJPEG,
	"jpeg": dataurl.MIMEJPEG,
	"webp": dataurl.MIMEWebP,
	"gif":  dataurl.MIMEGIF,
	"pdf":  dataurl.MIMEPDF,
}

func main() {
	var cfg benchConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}

	files, err := collectFiles(cfg.DataDir)
	if err != nil {
		log.Fatalf("read data dir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	results := make([]BenchResult, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cfg.Concurrency, 1))
	for i, file := range files {
		eg.Go(func() error {
			res := benchmarkImage(egCtx, cfg.Endpoint, file)
			if res.Err != nil {
				log.Println("ERR:", res.File, res.Err)
			} else {
				log.Printf("OK %s %s attempts=%d %v", res.File, res.State, res.Attempts, res.Duration)
			}
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()

	printMarkdown(os.Stdout, results)
}

func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := formatMIME[fileFormat(path)]; ok {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func fileFormat(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func benchmarkImage(ctx context.Context, endpoint, filePath string) BenchResult {
	start := time.Now()
	res := BenchResult{File: filepath.Base(filePath), Format: fileFormat(filePath)}

	fileRaw, err := os.ReadFile(filePath)
	if err != nil {
		res.Err = err
		return res
	}
	res.Size = int64(len(fileRaw))

	req := models.GenerateRequest{
		Image:    dataurl.FromBytes(formatMIME[res.Format], fileRaw),
		FileName: res.File,
	}

	final, err := sendStream(ctx, endpoint, req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}

	res.Attempts = final.Attempts
	res.State = final.State
	res.Truncated = final.Truncated
	res.Bytes = len(final.GeneratedCode)
	if final.Error != "" {
		res.Err = fmt.Errorf("%s: %s", final.ErrorKind, final.Error)
	}
	return res
}

func sendStream[T any](ctx context.Context, endpoint string, req T) (*models.GenerateResponse, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal req: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s",
			resp.StatusCode,
			strings.TrimSpace(string(b)),
		)
	}

	return readEvents(resp.Body)
}

// readEvents consumes an SSE body and returns the payload of the "done" event.
func readEvents(r io.Reader) (*models.GenerateResponse, error) {
	reader := bufio.NewReader(r)
	event := ""

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("stream ended without a done event")
			}
			return nil, err
		}

		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
			continue
		case !strings.HasPrefix(line, "data: "):
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		switch event {
		case "error":
			return nil, fmt.Errorf("stream error: %s", payload)
		case "done":
			var final models.GenerateResponse
			if err := sonic.UnmarshalString(payload, &final); err != nil {
				return nil, err
			}
			return &final, nil
		}
	}
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		a := m[r.Format]
		if r.Err != nil {
			a.Failed++
			m[r.Format] = a
			continue
		}
		a.Count++
		a.Attempts += r.Attempts
		if r.Truncated {
			a.Truncated++
		}
		a.TotalBytes += r.Size
		a.Total += r.Duration
		m[r.Format] = a
	}
	return m
}

func printMarkdown(w io.Writer, results []BenchResult) {
	fmt.Fprint(w, "\n## Benchmark Results\n\n")
	fmt.Fprintln(w, "| Format | Requests | Failed | Truncated | Avg Attempts | Avg Time | Total Time | Avg File Size |")
	fmt.Fprintln(w, "|--------|----------|--------|-----------|--------------|----------|------------|---------------|")

	agg := aggregate(results)
	formats := make([]string, 0, len(agg))
	for format := range agg {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	var total Agg
	for _, format := range formats {
		a := agg[format]
		printRow(w, format, a)
		total.Count += a.Count
		total.Failed += a.Failed
		total.Truncated += a.Truncated
		total.Attempts += a.Attempts
		total.Total += a.Total
		total.TotalBytes += a.TotalBytes
	}

	if total.Count+total.Failed > 0 {
		printRow(w, "**ALL**", total)
	}
}

func printRow(w io.Writer, name string, a Agg) {
	if a.Count == 0 {
		fmt.Fprintf(w, "| %s | 0 | %d | 0 | - | - | - | - |\n", name, a.Failed)
		return
	}
	avg := a.Total / time.Duration(a.Count)
	fmt.Fprintf(w, "| %s | %d | %d | %d | %.1f | %v | %v | %s |\n",
		name,
		a.Count,
		a.Failed,
		a.Truncated,
		float64(a.Attempts)/float64(a.Count),
		avg.Round(time.Millisecond),
		a.Total.Round(time.Millisecond),
		humanBytes(a.TotalBytes/int64(a.Count)),
	)
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
