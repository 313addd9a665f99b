package main

import "time"

type benchConfig struct {
	Endpoint    string        `env:"BENCH_ENDPOINT" envDefault:"http://localhost:8080/generate/stream"`
	DataDir     string        `env:"BENCH_DATA_DIR" envDefault:"./data"`
	Concurrency int           `env:"BENCH_CONCURRENCY" envDefault:"2"`
	Timeout     time.Duration `env:"BENCH_TIMEOUT" envDefault:"10m"`
}

type BenchResult struct {
	File      string
	Format    string
	Duration  time.Duration
	Attempts  int
	State     string
	Truncated bool
	Bytes     int
	Err       error
	Size      int64
}

type Agg struct {
	Count      int
	Failed     int
	Truncated  int
	Attempts   int
	Total      time.Duration
	TotalBytes int64
}
