package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/busfinder/busfinder/internal/core/domain"
)

// catalogFile is the on-disk catalog layout. Lines are active unless they
// say otherwise.
type catalogFile struct {
	Stops []domain.Stop `yaml:"stops"`
	Lines []lineEntry   `yaml:"lines"`
}

type lineEntry struct {
	ID     string   `yaml:"id"`
	Number string   `yaml:"number"`
	Name   *string  `yaml:"name"`
	Stops  []string `yaml:"stops"`
	Active *bool    `yaml:"active"`
}

const maxCatalogBytes = 32 << 20

// readCatalog loads a catalog from a local path or an http(s) URL.
func readCatalog(ctx context.Context, source string) (*domain.Catalog, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = download(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return parseCatalog(data)
}

// parseCatalog decodes a YAML or JSON catalog document.
func parseCatalog(data []byte) (*domain.Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse catalog: empty document")
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &domain.Catalog{Stops: f.Stops, Lines: make([]domain.Line, 0, len(f.Lines))}
	for _, l := range f.Lines {
		c.Lines = append(c.Lines, domain.Line{
			ID:     l.ID,
			Number: l.Number,
			Name:   l.Name,
			Stops:  l.Stops,
			Active: l.Active == nil || *l.Active,
		})
	}
	return c, nil
}

func download(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 120 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
}
