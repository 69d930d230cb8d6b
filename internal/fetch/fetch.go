// Package fetch resolves a planning-workbook location to a local file. Plant
// workbooks live either on a mounted share (plain path) or on the logistics
// FTP server (ftp:// URL); the grid loader only ever sees a local path.
package fetch

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/retry"
)

// Options configures the FTP leg of workbook resolution.
type Options struct {
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	User     string        `yaml:"user" mapstructure:"user"`
	Password string        `yaml:"password" mapstructure:"password"`
}

func (o *Options) applyDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.User == "" {
		o.User = "anonymous"
		o.Password = "anonymous@"
	}
}

// Materialize returns a local path for location. Local paths pass through
// untouched with a no-op cleanup; ftp:// URLs are downloaded to a temp file
// that cleanup removes.
func Materialize(ctx context.Context, location string, opts Options) (string, func(), error) {
	if !strings.HasPrefix(strings.ToLower(location), "ftp://") {
		return location, func() {}, nil
	}
	opts.applyDefaults()

	tmp, err := os.CreateTemp("", "plan-*"+filepath.Ext(location))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetch: create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	err = retry.Do(ctx, retry.DefaultConfig(), "ftp download", func(ctx context.Context) error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return eris.Wrap(err, "fetch: rewind temp file")
		}
		if err := tmp.Truncate(0); err != nil {
			return eris.Wrap(err, "fetch: truncate temp file")
		}
		return download(ctx, location, tmp, opts)
	})
	if err != nil {
		tmp.Close()
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, eris.Wrap(err, "fetch: close temp file")
	}

	zap.L().Info("workbook downloaded", zap.String("url", location), zap.String("path", tmpName))
	return tmpName, cleanup, nil
}

func download(ctx context.Context, ftpURL string, w io.Writer, opts Options) error {
	host, path, err := parseURL(ftpURL)
	if err != nil {
		return err
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "fetch: ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login(opts.User, opts.Password); err != nil {
		return eris.Wrap(err, "fetch: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return eris.Wrap(err, "fetch: ftp retrieve")
	}
	defer resp.Close()

	if _, err := io.Copy(w, resp); err != nil {
		return eris.Wrap(err, "fetch: ftp copy")
	}
	return nil
}

func parseURL(rawURL string) (host, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "fetch: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetch: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return "", "", eris.New("fetch: empty path in ftp url")
	}
	return host, u.Path, nil
}
