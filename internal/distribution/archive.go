package distribution

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/buildgrid/internal/archive"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// ArchiveRequest packs an install tree.
type ArchiveRequest struct {
	// InstallDir is the tree written by Install.
	InstallDir string
	Name       string
	Version    string
	// DestDir receives `<name>-<version>.<ext>`.
	DestDir string
}

// BaseName is the archive file name without extension, and the top-level
// directory inside it.
func (r ArchiveRequest) BaseName() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "-" + r.Version
}

// Path is where the archive for format is written.
func (r ArchiveRequest) Path(format archive.Format) string {
	return filepath.Join(r.DestDir, r.BaseName()+"."+format.Ext())
}

// Archive writes one archive of the install tree and returns its path.
func Archive(ctx context.Context, req ArchiveRequest, format archive.Format) (string, error) {
	entries, err := archive.Collect(req.InstallDir, req.BaseName())
	if err != nil {
		return "", fmt.Errorf("collecting %s: %w", req.InstallDir, err)
	}
	dest := req.Path(format)
	if err := archive.WriteFile(ctx, dest, format, entries); err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Info("🗜️ Distribution archived", "component", "distribution", "path", dest, "format", format)
	return dest, nil
}
