// Package file implements a YAML-file-backed source of truth. It is the
// default backend for single-node deployments and for tests; an external
// process editing the file is exactly the drift the engine's monitor exists
// to detect.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/logger"
)

type Store struct {
	path string
	log  *slog.Logger
}

func New(path string) *Store {
	return &Store{
		path: path,
		log:  logger.Get(logger.Source),
	}
}

func (s *Store) Get(ctx context.Context) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}

	var doc document.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if doc == nil {
		doc = document.Document{}
	}

	return doc, nil
}

func (s *Store) Put(ctx context.Context, doc document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config document: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write config document: %w", err)
	}

	s.log.Debug("Wrote config document", "path", s.path, "bytes", len(data))
	return nil
}

func (s *Store) Close() error {
	return nil
}
