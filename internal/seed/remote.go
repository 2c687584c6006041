package seed

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
)

// Fetch returns a deferred payload that downloads and decodes the seed file at
// URL when work is prepared. The format follows the URL extension.
func Fetch(fs afs.Service, URL string) Payload {
	if fs == nil {
		fs = afs.New()
	}
	return Deferred(func(ctx context.Context) (Payload, error) {
		data, err := fs.DownloadWithURL(ctx, URL)
		if err != nil {
			return Payload{}, fmt.Errorf("fetch seed %s: %w", URL, err)
		}
		payload, err := decode(remoteName(URL), data)
		if err != nil {
			return Payload{}, fmt.Errorf("seed %s: %w", URL, err)
		}
		return payload, nil
	})
}

// remoteName strips query and fragment so the extension picks the decoder.
func remoteName(URL string) string {
	if i := strings.IndexAny(URL, "?#"); i >= 0 {
		URL = URL[:i]
	}
	return path.Base(URL)
}
