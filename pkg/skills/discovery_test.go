package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, description, body string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func TestNewDiscovery(t *testing.T) {
	t.Run("with default dirs", func(t *testing.T) {
		discovery, err := NewDiscovery()
		require.NoError(t, err)
		assert.Len(t, discovery.skillDirs, 2)
	})

	t.Run("with custom dirs", func(t *testing.T) {
		customDirs := []string{"/tmp/skills1", "/tmp/skills2"}
		discovery, err := NewDiscovery(WithSkillDirs(customDirs...))
		require.NoError(t, err)
		assert.Equal(t, customDirs, discovery.skillDirs)
	})
}

func TestDiscoverSkills(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "web-research", "Research topics on the web", "# Web Research\n\nUse the fetch command.\n")
	writeSkill(t, tmpDir, "doc-convert", "Convert documents to markdown", "# Doc Convert\n\nUse pandoc.\n")

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	require.Len(t, skills, 2)

	skill := skills["web-research"]
	require.NotNil(t, skill)
	assert.Equal(t, "Research topics on the web", skill.Description)
	assert.Equal(t, filepath.Join(tmpDir, "web-research"), skill.Directory)
	assert.Contains(t, skill.Content, "# Web Research")
	assert.NotContains(t, skill.Content, "---", "frontmatter must be stripped")
}

func TestDiscoverSkillsShadowing(t *testing.T) {
	localDir := t.TempDir()
	globalDir := t.TempDir()
	writeSkill(t, localDir, "web-research", "Local version", "local body")
	writeSkill(t, globalDir, "web-research", "Global version", "global body")

	discovery, err := NewDiscovery(WithSkillDirs(localDir, globalDir))
	require.NoError(t, err)

	skill, err := discovery.GetSkill("web-research")
	require.NoError(t, err)
	assert.Equal(t, "Local version", skill.Description, "earlier dirs shadow later ones")
}

func TestDiscoverSkillsSkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "valid-skill", "A valid skill", "body")

	// No frontmatter at all.
	badDir := filepath.Join(tmpDir, "no-frontmatter")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "SKILL.md"), []byte("# Just markdown\n"), 0o644))

	// Frontmatter missing the description.
	incompleteDir := filepath.Join(tmpDir, "incomplete")
	require.NoError(t, os.MkdirAll(incompleteDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(incompleteDir, "SKILL.md"), []byte("---\nname: incomplete\n---\nbody\n"), 0o644))

	// A directory without any SKILL.md.
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "empty-dir"), 0o755))

	// A stray file at the top level.
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("not a skill"), 0o644))

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Contains(t, skills, "valid-skill")
}

func TestGetSkillNotFound(t *testing.T) {
	discovery, err := NewDiscovery(WithSkillDirs(t.TempDir()))
	require.NoError(t, err)

	_, err = discovery.GetSkill("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `skill "missing" not found`)
}

func TestListSkillNames(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "zeta", "Z", "z")
	writeSkill(t, tmpDir, "alpha", "A", "a")
	writeSkill(t, tmpDir, "mid", "M", "m")

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	names, err := discovery.ListSkillNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "strips frontmatter",
			content: "---\nname: x\n---\n\n# Body\n",
			want:    "# Body\n",
		},
		{
			name:    "no frontmatter",
			content: "# Just body\n",
			want:    "# Just body\n",
		},
		{
			name:    "unterminated frontmatter",
			content: "---\nname: x\n",
			want:    "---\nname: x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractBody(tt.content))
		})
	}
}
