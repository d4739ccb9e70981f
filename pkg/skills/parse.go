package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// ErrNoFrontmatter is returned when SKILL.md carries no YAML frontmatter
var ErrNoFrontmatter = errors.New("missing frontmatter")

// Load reads and parses a sentinel file
func Load(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	skill, err := Parse(content)
	if err != nil {
		return nil, err
	}
	skill.Path = path
	skill.Directory = filepath.Dir(path)
	return skill, nil
}

// Parse extracts frontmatter and body from SKILL.md content. Only the presence
// of frontmatter is enforced here; field rules belong to validators.
func Parse(content []byte) (*Skill, error) {
	if !bytes.HasPrefix(content, []byte("---")) {
		return nil, ErrNoFrontmatter
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}
	if len(metaData) == 0 {
		return nil, ErrNoFrontmatter
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	return &Skill{
		Name:        name,
		Description: description,
		Content:     extractBodyContent(string(content)),
		Metadata:    metaData,
	}, nil
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// Discover finds and parses every skill below root. Sentinels that fail to
// parse are returned in the second slice alongside their error.
func Discover(root string, opts ...Option) ([]*Skill, []LoadError, error) {
	paths, err := FindSentinels(root, opts...)
	if err != nil {
		return nil, nil, err
	}

	var (
		found  []*Skill
		failed []LoadError
	)
	for _, p := range paths {
		skill, err := Load(p)
		if err != nil {
			failed = append(failed, LoadError{Path: p, Err: err})
			continue
		}
		found = append(found, skill)
	}
	return found, failed, nil
}

// LoadError pairs a sentinel path with the reason it could not be parsed
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e LoadError) Unwrap() error {
	return e.Err
}
