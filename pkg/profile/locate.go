// Package profile locates, snapshots, and sanitizes Firefox user profiles
// so automation runs against a copy instead of the user's real profile.
package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	ini "gopkg.in/ini.v1"
	_ "modernc.org/sqlite"

	"github.com/skillet-sh/skillet/pkg/logger"
)

// NotFoundError reports a named profile that matched nothing, along with
// the names that do exist so the CLI can show them.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// DefaultRoot returns the platform's Firefox installation root: the
// directory holding profiles.ini and the profile directories.
func DefaultRoot() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "Firefox"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Mozilla", "Firefox"), nil
	default:
		return filepath.Join(homeDir, ".mozilla", "firefox"), nil
	}
}

type iniProfile struct {
	name      string
	path      string
	isDefault bool
}

func readProfilesINI(root string) (installDefault string, profiles []iniProfile, err error) {
	iniPath := filepath.Join(root, "profiles.ini")
	cfg, err := ini.Load(iniPath)
	if err != nil {
		return "", nil, errors.Wrapf(err, "reading %s", iniPath)
	}

	for _, section := range cfg.Sections() {
		name := section.Name()
		switch {
		case strings.HasPrefix(name, "Install"):
			if installDefault == "" {
				installDefault = section.Key("Default").String()
			}
		case strings.HasPrefix(name, "Profile"):
			path := section.Key("Path").String()
			if path == "" {
				continue
			}
			if section.Key("IsRelative").MustInt(1) == 1 {
				path = filepath.Join(root, path)
			}
			profiles = append(profiles, iniProfile{
				name:      section.Key("Name").String(),
				path:      path,
				isDefault: section.Key("Default").MustInt(0) == 1,
			})
		}
	}
	return installDefault, profiles, nil
}

// LocateDefault resolves the user's default profile under root. It prefers
// the explicit default-install pointer in profiles.ini and falls back to
// the profile flagged as default. ok is false when no default exists.
func LocateDefault(root string) (path string, ok bool, err error) {
	installDefault, profiles, err := readProfilesINI(root)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return "", false, nil
		}
		return "", false, err
	}

	if installDefault != "" {
		p := installDefault
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		return p, true, nil
	}

	for _, p := range profiles {
		if p.isDefault {
			return p.path, true, nil
		}
	}
	return "", false, nil
}

// groupsDir is where Firefox keeps its profile-groups databases.
func groupsDir(root string) string {
	return filepath.Join(root, "Profile Groups")
}

type groupProfile struct {
	Name string `db:"name"`
	Path string `db:"path"`
}

func readGroupDatabases(ctx context.Context, root string) ([]groupProfile, error) {
	pattern := filepath.Join(groupsDir(root), "*.sqlite")
	dbFiles, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "globbing profile group databases")
	}

	var all []groupProfile
	for _, dbFile := range dbFiles {
		profiles, err := readGroupDatabase(ctx, dbFile)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("db", dbFile).Debug("skipping unreadable profile group database")
			continue
		}
		all = append(all, profiles...)
	}
	return all, nil
}

func readGroupDatabase(ctx context.Context, dbFile string) ([]groupProfile, error) {
	db, err := sqlx.Open("sqlite", dbFile+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, "opening profile group database")
	}
	defer db.Close()

	var profiles []groupProfile
	if err := db.SelectContext(ctx, &profiles, "SELECT name, path FROM Profiles"); err != nil {
		return nil, errors.Wrap(err, "querying profile group database")
	}
	return profiles, nil
}

// LocateNamed resolves a profile by name, consulting both profiles.ini and
// the profile-groups databases. An ambiguous name is non-fatal: the first
// match wins and a warning enumerates the count and chosen path. A miss
// yields a NotFoundError carrying the available names.
func LocateNamed(ctx context.Context, root, name string) (string, error) {
	_, iniProfiles, err := readProfilesINI(root)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return "", err
	}

	groupProfiles, err := readGroupDatabases(ctx, root)
	if err != nil {
		return "", err
	}

	var matches []string
	available := map[string]struct{}{}
	for _, p := range iniProfiles {
		if p.name != "" {
			available[p.name] = struct{}{}
		}
		if p.name == name {
			matches = append(matches, p.path)
		}
	}
	for _, p := range groupProfiles {
		if p.Name != "" {
			available[p.Name] = struct{}{}
		}
		if p.Name == name {
			path := p.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(root, path)
			}
			matches = append(matches, path)
		}
	}

	if len(matches) == 0 {
		names := make([]string, 0, len(available))
		for n := range available {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", &NotFoundError{Name: name, Available: names}
	}

	if len(matches) > 1 {
		logger.G(ctx).WithFields(map[string]interface{}{
			"name":    name,
			"matches": len(matches),
			"chosen":  matches[0],
		}).Warn("profile name is ambiguous, using first match")
	}
	return matches[0], nil
}
