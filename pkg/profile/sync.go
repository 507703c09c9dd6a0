package profile

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// SyncResult reports whether a snapshot was actually refreshed.
type SyncResult struct {
	Synced bool
}

// Volatile or sensitive subpaths that never belong in a snapshot: process
// locks, crash state, telemetry, caches, session restore, safe-browsing and
// favicon history, and the WAL/SHM companions of embedded databases.
// Automation must neither depend on nor corrupt any of this.
var (
	excludedNames = map[string]struct{}{
		"lock":                    {},
		".parentlock":             {},
		"parent.lock":             {},
		"sessionstore.jsonlz4":    {},
		"sessionCheckpoints.json": {},
		"favicons.sqlite":         {},
	}

	excludedDirs = map[string]struct{}{
		"crashes":               {},
		"minidumps":             {},
		"datareporting":         {},
		"saved-telemetry-pings": {},
		"cache2":                {},
		"startupCache":          {},
		"thumbnails":            {},
		"safebrowsing":          {},
		"sessionstore-backups":  {},
	}

	excludedSuffixes = []string{".sqlite-wal", ".sqlite-shm"}
)

func excluded(rel string, isDir bool) bool {
	base := filepath.Base(rel)
	if isDir {
		_, ok := excludedDirs[base]
		return ok
	}
	if _, ok := excludedNames[base]; ok {
		return true
	}
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// Sync mirrors the source profile tree into dest, excluding the volatile
// subpaths above and deleting anything in dest that no longer exists in
// source. A missing source is not an error: the result reports
// Synced=false and the caller launches with a fresh profile instead.
//
// The destination is a shared cache directory; concurrent invocations
// syncing against the same directory race, which is accepted since the
// typical pattern is one interactive invocation at a time.
func Sync(source, dest string) (SyncResult, error) {
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return SyncResult{Synced: false}, nil
	}

	if err := os.MkdirAll(dest, 0o700); err != nil {
		return SyncResult{}, errors.Wrap(err, "creating snapshot directory")
	}

	kept := map[string]struct{}{}
	var result *multierror.Error

	err = filepath.WalkDir(source, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			result = multierror.Append(result, walkErr)
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil || rel == "." {
			return nil
		}
		if excluded(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dest, rel)
		kept[rel] = struct{}{}

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o700); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "creating %s", rel))
			}
			return nil
		}
		if err := copyIfChanged(path, target); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "copying %s", rel))
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, err)
	}

	if err := mirrorDeletions(dest, kept); err != nil {
		result = multierror.Append(result, err)
	}

	return SyncResult{Synced: true}, result.ErrorOrNil()
}

func copyIfChanged(source, dest string) error {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return err
	}
	if dstInfo, err := os.Stat(dest); err == nil &&
		dstInfo.Size() == srcInfo.Size() && dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		return nil
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dest, srcInfo.ModTime(), srcInfo.ModTime())
}

// mirrorDeletions removes everything under dest that was not kept from
// source, so stale state never survives a resync.
func mirrorDeletions(dest string, kept map[string]struct{}) error {
	var doomed []string
	err := filepath.WalkDir(dest, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil || rel == "." {
			return nil
		}
		if _, ok := kept[rel]; !ok {
			doomed = append(doomed, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, path := range doomed {
		if err := os.RemoveAll(path); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "removing stale %s", path))
		}
	}
	return result.ErrorOrNil()
}
