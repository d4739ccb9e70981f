// Package skills locates skill directories in a plugin tree. A skill is a
// directory holding a SKILL.md sentinel file whose YAML frontmatter names and
// describes the skill.
package skills

// DefaultSentinel is the marker file that identifies a skill directory
const DefaultSentinel = "SKILL.md"

// Skill represents a parsed SKILL.md
type Skill struct {
	Name        string         // from frontmatter
	Description string         // from frontmatter
	Directory   string         // directory containing the sentinel
	Path        string         // path to the sentinel itself
	Content     string         // body without frontmatter
	Metadata    map[string]any // full frontmatter
}
