package ingest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"psgc-api/internal/logger"
	"psgc-api/internal/sheet"

	"github.com/pkg/errors"
)

// ErrInvalidURL：下载地址不是 HTTPS 或不在允许的域名下
var ErrInvalidURL = errors.New("invalid download url")

// MinFileSize：小于该字节数的文件视为损坏
const MinFileSize = 1024

// Downloader：把数据文件下载到存储目录
type Downloader struct {
	Client        *http.Client
	Dir           string
	AllowedDomain string
	MinSize       int64
}

func NewDownloader(dir, allowedDomain string) *Downloader {
	return &Downloader{
		Client:        &http.Client{Timeout: 60 * time.Second},
		Dir:           dir,
		AllowedDomain: allowedDomain,
		MinSize:       MinFileSize,
	}
}

// CheckURL：要求 https 且主机为允许域名本身或其子域名
func (d *Downloader) CheckURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: %v", raw, err)
	}
	host := strings.ToLower(u.Hostname())
	domain := strings.ToLower(strings.TrimPrefix(d.AllowedDomain, "."))
	if !strings.EqualFold(u.Scheme, "https") {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: scheme must be https", raw)
	}
	if domain == "" || (host != domain && !strings.HasSuffix(host, "."+domain)) {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: host not under %s", raw, d.AllowedDomain)
	}
	if !strings.EqualFold(path.Ext(u.Path), ".xlsx") {
		return nil, errors.Wrapf(ErrInvalidURL, "%q: not an xlsx file", raw)
	}
	return u, nil
}

// 文档注释：下载并落盘
// 背景：先写临时文件，确认大小与工作簿格式可读后再改名为正式文件名，失败时清理临时文件
// 返回：正式文件的绝对路径
func (d *Downloader) Download(ctx context.Context, raw string) (string, error) {
	u, err := d.CheckURL(raw)
	if err != nil {
		return "", err
	}
	l := logger.L()
	l.Info("download_start", "url", raw)
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create storage dir")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, "build download request")
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "download")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("download: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.Dir, "psgc_*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpPath)
		}
	}()
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrap(err, "write temp file")
	}
	if n < d.MinSize {
		l.Warn("download_too_small", "bytes", n)
		return "", errors.Errorf("downloaded file is too small (%d bytes)", n)
	}
	wb, err := sheet.Open(tmpPath)
	if err != nil {
		return "", errors.Wrap(err, "downloaded file is not a valid Excel file")
	}
	_ = wb.Close()

	final := filepath.Join(d.Dir, path.Base(u.Path))
	if err := os.Rename(tmpPath, final); err != nil {
		return "", errors.Wrap(err, "move downloaded file")
	}
	keep = true
	abs, err := filepath.Abs(final)
	if err != nil {
		abs = final
	}
	l.Info("download_ok", "path", abs, "bytes", n)
	return abs, nil
}
