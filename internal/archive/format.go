package archive

import (
	"fmt"
	"strings"
)

// Format selects the archive container.
type Format string

const (
	Zip Format = "zip"
	Tar Format = "tar"
	Tgz Format = "tgz"
)

// Formats lists every supported format.
func Formats() []Format { return []Format{Tar, Tgz, Zip} }

// ParseFormat validates a format name. "tar.gz" is accepted for Tgz.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zip":
		return Zip, nil
	case "tar":
		return Tar, nil
	case "tgz", "tar.gz":
		return Tgz, nil
	}
	return "", fmt.Errorf("unsupported archive format %q", s)
}

// Ext is the file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }
