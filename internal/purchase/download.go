package purchase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// RequestDownloadLink asks for a one-time download token for a purchased plan.
func (s *Service) RequestDownloadLink(ctx context.Context, planID string) (*DownloadLink, error) {
	var link DownloadLink
	if err := s.client.PostJSON(ctx, "/customer/plans/download-link", map[string]string{"plan_id": planID}, &link); err != nil {
		return nil, err
	}
	if link.Token == "" {
		return nil, ErrNoDownloadToken
	}
	return &link, nil
}

// Download exchanges token for the file and streams it into w.
func (s *Service) Download(ctx context.Context, token string, w io.Writer) (string, int64, error) {
	return s.client.Download(ctx, "/customer/plans/download/"+url.PathEscape(token), w)
}

// SaveDownload requests a link, exchanges it at once and writes the file into
// dir. It returns the written path.
func (s *Service) SaveDownload(ctx context.Context, planID, dir string) (string, error) {
	link, err := s.RequestDownloadLink(ctx, planID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	name, _, err := s.Download(ctx, link.Token, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, downloadName(name, planID))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move download into place: %w", err)
	}
	return dest, nil
}

func downloadName(announced, planID string) string {
	name := filepath.Base(strings.TrimSpace(announced))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "plan-" + planID + ".zip"
	}
	return name
}
