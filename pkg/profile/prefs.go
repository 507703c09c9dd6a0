package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Preference overrides appended to the snapshot so a copied profile never
// phones home: account sync, data-reporting submission, and telemetry all
// off. user.js is read at startup and wins over prefs.js.
var backgroundPrefs = []string{
	`user_pref("identity.fxaccounts.enabled", false);`,
	`user_pref("datareporting.policy.dataSubmissionEnabled", false);`,
	`user_pref("toolkit.telemetry.enabled", false);`,
}

const userPrefsFile = "user.js"

// SuppressBackgroundNetworking appends the override preferences to the
// profile's user.js, skipping any that are already present. Calling it
// twice yields the same file as calling it once.
func SuppressBackgroundNetworking(profileDir string) error {
	path := filepath.Join(profileDir, userPrefsFile)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "reading %s", path)
	}
	content := string(existing)

	var missing []string
	for _, pref := range backgroundPrefs {
		if !strings.Contains(content, pref) {
			missing = append(missing, pref)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
