package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-getter"
	"github.com/wagoodman/go-progress"
)

type Getter interface {
	// GetFile downloads the give URL (or copies the given local path) into the given path. The source must
	// reference a single file.
	GetFile(ctx context.Context, dst, src string, monitor ...*progress.Manual) error
}

type HashiGoGetter struct {
	httpGetter getter.HttpGetter
}

// NewGetter creates and returns a new Getter. Providing an http.Client is optional. If one is provided,
// it will be used for all HTTP(S) getting; otherwise, go-getter's default getters will be used.
func NewGetter(userAgent string, httpClient *http.Client) *HashiGoGetter {
	return &HashiGoGetter{
		httpGetter: getter.HttpGetter{
			Client: httpClient,
			Header: http.Header{
				"User-Agent": []string{userAgent},
			},
		},
	}
}

func (g HashiGoGetter) GetFile(ctx context.Context, dst, src string, monitors ...*progress.Manual) error {
	if len(monitors) > 1 {
		return fmt.Errorf("multiple monitors provided, which is not allowed")
	}

	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("unable to determine working directory: %w", err)
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
		Getters: map[string]getter.Getter{
			"http":  &g.httpGetter,
			"https": &g.httpGetter,
			// copy rather than symlink so the destination can be removed independently of the source
			"file": &getter.FileGetter{Copy: true},
		},
		Options: mapToGetterClientOptions(monitors),
	}

	return client.Get()
}

func mapToGetterClientOptions(monitors []*progress.Manual) []getter.ClientOption {
	var result []getter.ClientOption

	for _, monitor := range monitors {
		result = append(result, getter.WithProgress(&progressAdapter{monitor: monitor}))
	}

	return result
}

type readCloser struct {
	progress.Reader
}

func (c *readCloser) Close() error { return nil }

type progressAdapter struct {
	monitor *progress.Manual
}

func (a *progressAdapter) TrackProgress(_ string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	a.monitor.N = currentSize
	a.monitor.Total = totalSize
	return &readCloser{
		Reader: *progress.NewProxyReader(stream, a.monitor),
	}
}
