package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/simonjohansson/thoughtflow/internal/server"
	"gopkg.in/yaml.v3"
)

func main() {
	var outPath, format string
	flag.StringVar(&outPath, "out", "", "output path (default api/openapi.<format>)")
	flag.StringVar(&format, "format", "yaml", "document format: yaml or json")
	flag.Parse()

	if format != "yaml" && format != "json" {
		log.Fatalf("unsupported -format %q", format)
	}
	if outPath == "" {
		outPath = filepath.Join("api", fmt.Sprintf("openapi.%s", format))
	}

	tmpDataDir, err := os.MkdirTemp("", "thoughtflow-openapi-data-")
	if err != nil {
		log.Fatalf("create temp data dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tmpDataDir) }()

	sqlitePath := filepath.Join(tmpDataDir, "projection.db")
	app, err := server.New(server.Options{DataDir: tmpDataDir, SQLitePath: sqlitePath})
	if err != nil {
		log.Fatalf("init server: %v", err)
	}
	defer func() { _ = app.Close() }()

	raw, err := marshalDocument(app, format)
	if err != nil {
		log.Fatalf("marshal openapi: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		log.Fatalf("write openapi file: %v", err)
	}
}

func marshalDocument(app *server.Server, format string) ([]byte, error) {
	if format == "json" {
		raw, err := json.MarshalIndent(app.OpenAPI(), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(raw, '\n'), nil
	}
	return yaml.Marshal(app.OpenAPI())
}
