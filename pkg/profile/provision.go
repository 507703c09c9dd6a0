package profile

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/logger"
)

// Provisioner prepares profile directories for browser launches. It
// implements the browser package's Provisioner contract.
type Provisioner struct {
	// Root is the Firefox installation root; empty means the platform default.
	Root string
	// CacheDir is where snapshots live; empty means ~/.skillet/firefox-profile.
	// Not protected by any lock: concurrent invocations against the same
	// cache race (accepted; see Sync).
	CacheDir string
}

// CacheDir returns the default profile snapshot location.
func CacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(homeDir, ".skillet", "firefox-profile"), nil
}

// Provision returns a ready profile directory for a fresh launch. With
// copySource set it locates the source profile (named or default), syncs
// it into the cache, and suppresses background networking in the copy.
// When no source profile can be found the named case is a hard failure
// (NotFoundError); the default case degrades to a fresh empty profile with
// a warning.
func (p *Provisioner) Provision(ctx context.Context, profileName string, copySource bool) (string, error) {
	log := logger.G(ctx)

	root := p.Root
	if root == "" {
		var err error
		if root, err = DefaultRoot(); err != nil {
			return "", err
		}
	}

	dest := p.CacheDir
	if dest == "" {
		var err error
		if dest, err = CacheDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return "", errors.Wrap(err, "creating profile directory")
	}

	if !copySource {
		return dest, nil
	}

	var source string
	if profileName != "" {
		var err error
		if source, err = LocateNamed(ctx, root, profileName); err != nil {
			return "", err
		}
	} else {
		var ok bool
		var err error
		if source, ok, err = LocateDefault(root); err != nil {
			return "", err
		} else if !ok {
			log.Warn("no default Firefox profile found, starting with a fresh profile")
			return dest, nil
		}
	}

	result, err := Sync(source, dest)
	if err != nil {
		return "", errors.Wrap(err, "syncing profile snapshot")
	}
	if !result.Synced {
		log.WithField("source", source).Warn("source profile unreadable, starting with a fresh profile")
		return dest, nil
	}

	if err := SuppressBackgroundNetworking(dest); err != nil {
		return "", err
	}

	log.WithFields(map[string]interface{}{"source": source, "dest": dest}).Debug("profile snapshot refreshed")
	return dest, nil
}
