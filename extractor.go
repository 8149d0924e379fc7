package tabload

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Extractor extracts data from source such as Cloud Storage.
// The returned function releases the reader.
type Extractor interface {
	Extract(context.Context, Event) (io.Reader, func(), error)
}

// StorageExtractor reads Cloud Storage objects.
type StorageExtractor struct {
	storage *storage.Client
}

// NewStorageExtractor builds a StorageExtractor with default credentials.
func NewStorageExtractor(ctx context.Context) (*StorageExtractor, error) {
	s, err := storage.NewClient(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to build storage client: %w", err)
	}

	return &StorageExtractor{storage: s}, nil
}

func (e *StorageExtractor) Extract(ctx context.Context, ev Event) (io.Reader, func(), error) {
	l := log.Ctx(ctx)

	obj := e.storage.Bucket(ev.Bucket).Object(ev.Name)
	r, err := obj.NewReader(ctx)
	if err != nil {
		l.Error().Err(err).Str("object", ev.FullPath()).Msg("failed to initialize object reader")
		return nil, nil, xerrors.Errorf("failed to get reader of %s: %w", ev.FullPath(), err)
	}
	l.Debug().Str("object", ev.FullPath()).Int64("size", r.Attrs.Size).Msg("object opened")

	return r, func() { r.Close() }, nil
}

// FileExtractor reads files from a local directory. Event names are
// resolved relative to Dir.
type FileExtractor struct {
	Dir string
}

func (e *FileExtractor) Extract(ctx context.Context, ev Event) (io.Reader, func(), error) {
	p := ev.Name
	if e.Dir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(e.Dir, p)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to open %s: %w", p, err)
	}
	log.Ctx(ctx).Debug().Str("file", p).Msg("file opened")

	return f, func() { f.Close() }, nil
}
