// =============================================================================
// FTZ to GEDCOM Converter - Archive Reader
// =============================================================================
//
// This module opens .ftz archives. An archive is a zip container with a
// single top-level folder named after the tree:
//
//   <tree>/node.ftt          tab-delimited record file (required)
//   <tree>/faces/*.jpg       portraits (optional, "face/" also accepted)
//
// Portraits are carried as opaque bytes; nothing here interprets them. A
// portrait is named by its path below the face folder. When both folders hold
// the same name, the "faces/" entry wins and the other is listed in
// SkippedPortraits.
//
// =============================================================================

package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// Extension is the archive file extension.
const Extension = ".ftz"

// RecordFileName is the record file inside the tree folder.
const RecordFileName = "node.ftt"

var portraitFolders = []string{"faces/", "face/"}

var (
	// ErrNotArchive is returned for paths without the .ftz extension.
	ErrNotArchive = errors.New("not an .ftz archive")

	// ErrNoTreeFolder is returned when the archive has no top-level folder.
	ErrNoTreeFolder = errors.New("no tree folder found inside the archive")

	// ErrRecordFileMissing is returned when no folder holds node.ftt.
	ErrRecordFileMissing = errors.New("record file " + RecordFileName + " not found in the archive")

	// ErrInvalidEncoding is returned when the record file is not UTF-8.
	ErrInvalidEncoding = errors.New("record file is not valid UTF-8")
)

// Portrait is one face image found in the archive.
type Portrait struct {
	// Name is the slash-separated path below the face folder, e.g. "12.jpg"
	// or "old/12.jpg".
	Name string
	Data []byte
}

// Archive is the content of one .ftz file.
type Archive struct {
	// TreeName is the top-level folder name.
	TreeName string

	// RecordFile is the raw node.ftt content.
	RecordFile []byte

	// Portraits are sorted by name.
	Portraits []Portrait

	// SkippedPortraits lists entries whose name was already taken.
	SkippedPortraits []string
}

// Open reads the archive at p from fs.
func Open(fs afero.Fs, p string) (*Archive, error) {
	if !strings.EqualFold(filepath.Ext(p), Extension) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotArchive)
	}

	f, err := fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	return Read(f, info.Size())
}

// Read parses an archive from r.
func Read(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip container: %w", err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	folders := make(map[string]struct{})
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		entries[name] = f
		if i := strings.Index(name, "/"); i > 0 {
			folders[name[:i]] = struct{}{}
		}
	}
	if len(folders) == 0 {
		return nil, ErrNoTreeFolder
	}

	tree, ok := pickTreeFolder(folders, entries)
	if !ok {
		return nil, ErrRecordFileMissing
	}

	record, err := readEntry(entries[tree+"/"+RecordFileName])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", RecordFileName, err)
	}

	a := &Archive{TreeName: tree, RecordFile: record}

	if err := a.collectPortraits(entries); err != nil {
		return nil, err
	}

	return a, nil
}

// pickTreeFolder returns the first folder, by name, that holds a record file.
func pickTreeFolder(folders map[string]struct{}, entries map[string]*zip.File) (string, bool) {
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := entries[name+"/"+RecordFileName]; ok {
			return name, true
		}
	}
	return "", false
}

func (a *Archive) collectPortraits(entries map[string]*zip.File) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	taken := map[string]bool{}
	for _, folder := range portraitFolders {
		prefix := a.TreeName + "/" + folder
		for _, name := range names {
			rel, ok := portraitName(prefix, name)
			if !ok || entries[name].FileInfo().IsDir() {
				continue
			}
			if taken[rel] {
				a.SkippedPortraits = append(a.SkippedPortraits, name)
				continue
			}
			taken[rel] = true

			data, err := readEntry(entries[name])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			a.Portraits = append(a.Portraits, Portrait{Name: rel, Data: data})
		}
	}
	sort.Slice(a.Portraits, func(i, j int) bool { return a.Portraits[i].Name < a.Portraits[j].Name })
	return nil
}

// portraitName returns the path of a .jpg entry below prefix. Paths escaping
// the folder are rejected.
func portraitName(prefix, name string) (string, bool) {
	rel, ok := strings.CutPrefix(name, prefix)
	if !ok || !strings.HasSuffix(strings.ToLower(rel), ".jpg") {
		return "", false
	}
	rel = path.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DecodeRecordFile validates the record file bytes as UTF-8 and drops a
// leading byte-order mark.
func DecodeRecordFile(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}
