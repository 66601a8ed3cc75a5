package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"chat-client/repository"
)

// FileService fetches stored attachments over plain HTTP. Attachments ride
// inline on the way up but come back out-of-band via GET /files/{file_id}.
type FileService struct {
	baseURL string
	client  *http.Client
	creds   repository.CredentialRepository
	log     *zap.Logger
}

func NewFileService(baseURL string, creds repository.CredentialRepository, log *zap.Logger) *FileService {
	return &FileService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		creds:   creds,
		log:     log,
	}
}

// Fetch retrieves the raw bytes of a stored file. The name comes from the
// Content-Disposition header, falling back to the file id.
func (s *FileService) Fetch(ctx context.Context, fileID string) (string, []byte, error) {
	if fileID == "" {
		return "", nil, fmt.Errorf("empty file id")
	}

	cred, err := s.creds.Get()
	if err != nil {
		return "", nil, err
	}

	u := fmt.Sprintf("%s/files/%s?token=%s", s.baseURL, url.PathEscape(fileID), url.QueryEscape(cred.Token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", nil, fmt.Errorf("fetch file %s: %s", fileID, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read file %s: %w", fileID, err)
	}

	name := fileID
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}

	s.log.Info("fetched file", zap.String("file_id", fileID), zap.String("name", name), zap.Int("bytes", len(data)))
	return name, data, nil
}

// Download fetches the file and writes it under dir using its server-side
// name. Returns the written path.
func (s *FileService) Download(ctx context.Context, fileID, dir string) (string, error) {
	name, data, err := s.Fetch(ctx, fileID)
	if err != nil {
		return "", err
	}

	// The server names the file; take only its base to keep writes in dir.
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
