package archive

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// Write streams entries to w in the given format.
func Write(w io.Writer, format Format, entries []Entry) error {
	sorted, err := prepare(entries)
	if err != nil {
		return err
	}
	switch format {
	case Zip:
		return writeZip(w, sorted)
	case Tar:
		return writeTar(w, sorted)
	case Tgz:
		gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		gz.ModTime = Epoch
		if err := writeTar(gz, sorted); err != nil {
			return err
		}
		return gz.Close()
	default:
		return fmt.Errorf("unsupported archive format %q", format)
	}
}

// WriteFile writes the archive to dest, replacing it atomically. Nothing is
// published once ctx is done.
func WriteFile(ctx context.Context, dest string, format Format, entries []Entry) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = Write(buf, format, entries); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err = buf.Flush(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	// A task that outlived its timeout must not publish its output.
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return os.Rename(tmp.Name(), dest)
}

func writeZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: Epoch,
		}
		if e.Dir {
			hdr.Name += "/"
			hdr.Method = zip.Store
			hdr.SetMode(e.Mode | os.ModeDir)
		} else {
			hdr.SetMode(e.Mode)
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if e.Dir {
			continue
		}
		data, err := e.open()
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeTar(w io.Writer, entries []Entry) error {
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.Name,
			Mode:    int64(e.Mode.Perm()),
			ModTime: Epoch,
		}
		var data []byte
		if e.Dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
		} else {
			var err error
			if data, err = e.open(); err != nil {
				return err
			}
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(data))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}
	return tw.Close()
}
