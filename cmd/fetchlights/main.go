package main

import (
	"context"
	"flag"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	getter "github.com/hashicorp/go-getter"

	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
)

func main() {
	var (
		src = flag.String("src", "", "go-getter source of the luminance table (https://, git::, s3::, file path)")
		out = flag.String("o", "./lights.yaml", "output file path")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *src == "" {
		log.Error("source required")
		os.Exit(2)
	}
	if *out == "" {
		log.Error("output file path required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	n, err := fetch(ctx, *src, *out)
	if err != nil {
		log.Error("fetch luminance table", "src", *src, "error", err)
		os.Exit(1)
	}
	log.Info("done downloading luminance table", "path", *out, "items", n)
}

// fetch downloads src to a temporary file next to dst, checks that it
// parses as a luminance table and moves it into place.
func fetch(ctx context.Context, src, dst string) (int, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".download")
	defer os.Remove(tmp)

	// Local sources are copied rather than symlinked.
	getters := maps.Clone(getter.Getters)
	getters["file"] = &getter.FileGetter{Copy: true}

	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     tmp,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getters,
	}
	if err := client.Get(); err != nil {
		return 0, err
	}

	table, err := luminance.LoadFile(tmp)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return 0, err
	}
	return table.Len(), nil
}
