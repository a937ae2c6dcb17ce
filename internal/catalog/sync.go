package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"harmonise/internal/config"
)

const lastRegisterFetchKey = "register.last_fetch"

// MetadataStore persists small key/value facts between runs.
type MetadataStore interface {
	GetMetadata(key string) (*string, error)
	SetMetadata(key, value string) error
}

// RefreshService keeps the cached organisation register current.
type RefreshService struct {
	store  MetadataStore
	client *Client
	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

type RefreshResult struct {
	Fetched       bool
	Organisations int
	Path          string
}

func NewRefreshService(store MetadataStore, cfg config.Config, logger *zap.Logger) *RefreshService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshService{store: store, client: NewClient(cfg), cfg: cfg, logger: logger, now: time.Now}
}

// Refresh downloads the register unless the cached copy is younger than the
// configured max age. force skips the age check.
func (s *RefreshService) Refresh(ctx context.Context, force bool) (RefreshResult, error) {
	path := s.cfg.OrganisationsPath
	result := RefreshResult{Path: path}

	if !force {
		fresh, err := s.cacheIsFresh(path)
		if err != nil {
			return result, err
		}
		if fresh {
			s.logger.Info("organisation register cache is fresh", zap.String("path", path))
			return result, nil
		}
	}

	body, rows, err := s.client.FetchOrganisations(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch organisation register: %w", err)
	}
	if err := writeFileAtomic(path, body); err != nil {
		return result, err
	}
	if err := s.store.SetMetadata(lastRegisterFetchKey, s.now().UTC().Format(time.RFC3339)); err != nil {
		return result, err
	}

	s.logger.Info("organisation register refreshed",
		zap.String("url", s.cfg.RegisterURL),
		zap.String("path", path),
		zap.Int("organisations", len(rows)),
	)
	result.Fetched = true
	result.Organisations = len(rows)
	return result, nil
}

func (s *RefreshService) cacheIsFresh(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	last, err := s.store.GetMetadata(lastRegisterFetchKey)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return false, nil
	}
	return s.now().Sub(parsed) < s.cfg.RegisterMaxAge, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
