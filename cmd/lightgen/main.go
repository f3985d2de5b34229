package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-theft-craft/dynlights/internal/dynlight/luminance"
)

// block is the part of a minecraft-data blocks.json entry lightgen reads.
type block struct {
	Name      string `json:"name"`
	EmitLight int    `json:"emitLight"`
}

// waterSensitive lists name fragments of lights that go out under water.
var waterSensitive = []string{"fire", "lava", "campfire", "magma"}

func main() {
	blocksPath := flag.String("blocks", "", "path to a minecraft-data blocks.json (e.g. ./scheme/pc-1.8/blocks.json)")
	out := flag.String("o", "./lights.yaml", "output luminance table")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *blocksPath == "" {
		fmt.Fprintln(os.Stderr, "error: -blocks flag is required")
		flag.Usage()
		os.Exit(1)
	}

	n, err := generate(*blocksPath, *out)
	if err != nil {
		log.Error("lightgen failed", "error", err)
		os.Exit(1)
	}
	log.Info("generated luminance table", "path", *out, "items", n)
}

func generate(blocksPath, out string) (int, error) {
	data, err := os.ReadFile(blocksPath)
	if err != nil {
		return 0, fmt.Errorf("read blocks: %w", err)
	}
	var blocks []block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return 0, fmt.Errorf("parse blocks: %w", err)
	}

	items := itemsFromBlocks(blocks)
	encoded, err := luminance.Encode(items)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	return len(items), nil
}

// itemsFromBlocks keeps the light emitting blocks. Blocks sharing a name
// (lit and unlit variants in older data) keep the brightest level.
func itemsFromBlocks(blocks []block) []luminance.Item {
	byName := make(map[string]int)
	var items []luminance.Item
	for _, b := range blocks {
		if b.EmitLight <= 0 || b.Name == "" {
			continue
		}
		level := min(b.EmitLight, 15)
		if i, ok := byName[b.Name]; ok {
			items[i].Luminance = max(items[i].Luminance, level)
			continue
		}
		byName[b.Name] = len(items)
		items = append(items, luminance.Item{
			ID:             b.Name,
			Luminance:      level,
			WaterSensitive: isWaterSensitive(b.Name),
		})
	}
	return items
}

func isWaterSensitive(name string) bool {
	if strings.HasSuffix(name, "torch") {
		return !strings.Contains(name, "redstone")
	}
	for _, frag := range waterSensitive {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}
