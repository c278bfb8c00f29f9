/*
Package installation detects the locally installed version of the host application by probing well-known version
marker files under the application's install root.
*/
package installation

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/anchore/modcompat/internal/file"
	"github.com/anchore/modcompat/internal/log"
	"github.com/anchore/modcompat/modcompat/version"
)

var (
	// ErrVersionFileNotFound indicates none of the candidate version files exist.
	ErrVersionFileNotFound = errors.New("could not find application version file")

	// ErrVersionReadFailure indicates a version file exists but does not start with a parsable version.
	ErrVersionReadFailure = errors.New("could not read application version")
)

// DefaultVersionFiles are the candidate version file locations (relative to the install root), in probe order.
var DefaultVersionFiles = []string{
	// windows and linux builds
	"tld_Data/StreamingAssets/version.txt",
	// macOS app bundle
	"tld.app/Contents/Resources/Data/StreamingAssets/version.txt",
}

type Config struct {
	Root         string
	VersionFiles []string
}

// Installed describes the detected application version.
type Installed struct {
	Raw     string
	Version *version.Version
	Path    string
}

type Detector struct {
	fs         afero.Fs
	candidates []string
}

func NewDetector(fs afero.Fs, cfg Config) Detector {
	files := cfg.VersionFiles
	if len(files) == 0 {
		files = DefaultVersionFiles
	}

	candidates := make([]string, 0, len(files))
	for _, f := range files {
		if filepath.IsAbs(f) {
			candidates = append(candidates, f)
			continue
		}
		candidates = append(candidates, filepath.Join(cfg.Root, f))
	}

	return Detector{
		fs:         fs,
		candidates: candidates,
	}
}

// Candidates returns the version file paths that will be probed, in order.
func (d Detector) Candidates() []string {
	return append([]string(nil), d.candidates...)
}

// Locate returns the first candidate version file that exists.
func (d Detector) Locate() (string, error) {
	for _, candidate := range d.candidates {
		if file.Exists(d.fs, candidate) {
			return candidate, nil
		}
		log.Debugf("no application version file at %q", candidate)
	}
	return "", fmt.Errorf("%w (searched %d locations)", ErrVersionFileNotFound, len(d.candidates))
}

// Detect reads the installed application version from the first existing version file.
func (d Detector) Detect() (*Installed, error) {
	path, err := d.Locate()
	if err != nil {
		return nil, err
	}

	line, err := d.readFirstLine(path)
	if err != nil {
		return nil, err
	}

	v, err := version.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w from %q: %w", ErrVersionReadFailure, path, err)
	}

	log.Debugf("found application version %q at %q", v, path)

	return &Installed{
		Raw:     v.String(),
		Version: v,
		Path:    path,
	}, nil
}

func (d Detector) readFirstLine(path string) (string, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w from %q: %w", ErrVersionReadFailure, path, err)
	}
	defer log.CloseAndLogError(f, path)

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("%w from %q: %w", ErrVersionReadFailure, path, err)
		}
		return "", fmt.Errorf("%w from %q: version file is empty", ErrVersionReadFailure, path)
	}
	return scanner.Text(), nil
}
