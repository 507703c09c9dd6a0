package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvision(t *testing.T) {
	ctx := context.Background()

	t.Run("no copy returns empty cache dir", func(t *testing.T) {
		cache := filepath.Join(t.TempDir(), "snapshot")
		p := &Provisioner{Root: t.TempDir(), CacheDir: cache}

		dir, err := p.Provision(ctx, "", false)
		require.NoError(t, err)
		assert.Equal(t, cache, dir)
		assert.DirExists(t, cache)
	})

	t.Run("copies default profile and suppresses networking", func(t *testing.T) {
		root := t.TempDir()
		profileDir := filepath.Join(root, "Profiles", "abc123.default-release")
		require.NoError(t, os.MkdirAll(profileDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(profileDir, "prefs.js"), []byte("user_pref(\"a\", 1);\n"), 0o644))
		writeProfilesINI(t, root, testProfilesINI)

		cache := filepath.Join(t.TempDir(), "snapshot")
		p := &Provisioner{Root: root, CacheDir: cache}

		dir, err := p.Provision(ctx, "", true)
		require.NoError(t, err)
		assert.Equal(t, cache, dir)
		assert.FileExists(t, filepath.Join(cache, "prefs.js"))

		userJS, err := os.ReadFile(filepath.Join(cache, "user.js"))
		require.NoError(t, err)
		assert.Contains(t, string(userJS), "toolkit.telemetry.enabled")
	})

	t.Run("missing default degrades to fresh profile", func(t *testing.T) {
		cache := filepath.Join(t.TempDir(), "snapshot")
		p := &Provisioner{Root: t.TempDir(), CacheDir: cache}

		dir, err := p.Provision(ctx, "", true)
		require.NoError(t, err)
		assert.Equal(t, cache, dir)
	})

	t.Run("missing named profile is a hard failure", func(t *testing.T) {
		root := t.TempDir()
		writeProfilesINI(t, root, testProfilesINI)
		p := &Provisioner{Root: root, CacheDir: filepath.Join(t.TempDir(), "snapshot")}

		_, err := p.Provision(ctx, "no-such-profile", true)
		require.Error(t, err)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
