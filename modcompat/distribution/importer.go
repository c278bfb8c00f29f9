package distribution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/modcompat/internal/file"
	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/epoch"
)

// Importer retrieves an epoch table from an arbitrary source (a local path or any URL the getter supports), for
// installations that cannot reach the default endpoint.
type Importer struct {
	fs     afero.Fs
	getter file.Getter
}

func NewImporter(fs afero.Fs, getter file.Getter) Importer {
	return Importer{
		fs:     fs,
		getter: getter,
	}
}

func (i Importer) Import(ctx context.Context, src string, monitor *progress.Manual) (epoch.Table, error) {
	tempDir, err := afero.TempDir(i.fs, "", "modcompat-import")
	if err != nil {
		return epoch.Table{}, fmt.Errorf("unable to create temp dir for table import: %w", err)
	}
	defer func() {
		if err := i.fs.RemoveAll(tempDir); err != nil {
			log.Debugf("unable to remove import temp dir %q: %v", tempDir, err)
		}
	}()

	dst := filepath.Join(tempDir, "table.json")
	if err := i.getter.GetFile(ctx, dst, src, monitor); err != nil {
		return epoch.Table{}, fmt.Errorf("unable to retrieve compatibility table from %q: %w", src, err)
	}

	fh, err := i.fs.Open(dst)
	if err != nil {
		return epoch.Table{}, fmt.Errorf("unable to open retrieved compatibility table: %w", err)
	}
	defer log.CloseAndLogError(fh, dst)

	var table epoch.Table
	if err := json.NewDecoder(io.LimitReader(fh, maxTableSize)).Decode(&table); err != nil {
		return epoch.Table{}, fmt.Errorf("unable to decode compatibility table from %q: %w", src, err)
	}

	if table.IsEmpty() {
		return epoch.Table{}, fmt.Errorf("compatibility table from %q has no entries", src)
	}

	return table, nil
}
