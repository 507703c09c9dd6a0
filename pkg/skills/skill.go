// Package skills discovers the skill library: directories containing a
// SKILL.md file whose YAML frontmatter names and describes the skill, with
// the markdown body carrying the instructions.
package skills

// Skill is one discovered skill.
type Skill struct {
	Name        string // unique name from frontmatter
	Description string // short description from frontmatter
	Directory   string // full path to the skill directory
	Content     string // SKILL.md body, frontmatter stripped
}
