package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type gzipReadCloser struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipReadCloser) Close() error {
	gErr := g.Reader.Close()
	fErr := g.f.Close()
	if gErr != nil {
		return gErr
	}
	return fErr
}

// OpenReader opens path for reading, transparently decompressing ".gz" files.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading gzip header of %s", path)
	}
	return &gzipReadCloser{Reader: gz, f: f}, nil
}

type gzipWriteCloser struct {
	*gzip.Writer
	f *os.File
}

func (g *gzipWriteCloser) Close() error {
	gErr := g.Writer.Close()
	fErr := g.f.Close()
	if gErr != nil {
		return gErr
	}
	return fErr
}

// CreateWriter creates path (and its parent directory), compressing the
// stream when the name ends in ".gz".
func CreateWriter(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	return &gzipWriteCloser{Writer: gzip.NewWriter(f), f: f}, nil
}

// EnsureDir creates outputDir when it does not exist and fails when the path
// exists but is not a directory.
func EnsureDir(outputDir string) error {
	outInfo, outErr := os.Stat(outputDir)
	if outErr != nil {
		if os.IsNotExist(outErr) {
			if createErr := os.MkdirAll(outputDir, 0755); createErr != nil {
				return errors.Wrapf(createErr, "creating output directory %s", outputDir)
			}
			return nil
		}
		return errors.Wrapf(outErr, "accessing output directory %s", outputDir)
	}
	if !outInfo.IsDir() {
		return fmt.Errorf("output path %s is not a directory", outputDir)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ExpandTemplate fills "{key}" placeholders in template from fields in a
// single pass, so values are never expanded again. Unknown placeholders are
// left as they are.
func ExpandTemplate(template string, fields map[string]string) string {
	keys := lo.Keys(fields)
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", fields[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
