package tags

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/bastiangx/tagserve/internal/utils"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// inlineTagRe matches #tag preceded by whitespace, '(' or line start.
var inlineTagRe = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_/-]+)`)

var fence = []byte("---")

// Parse returns the tags of one note: the frontmatter tags/tag field
// followed by inline #tags of the body. Duplicates differing only in case
// keep their first spelling.
func Parse(content []byte) []string {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	front, body := splitFrontmatter(content)

	filter := utils.NewDedupFilter()
	var out []string
	add := func(t string) {
		t = StripHash(strings.TrimSpace(t))
		if t != "" && filter.ShouldInclude(t) {
			out = append(out, t)
		}
	}

	if front != nil {
		for _, t := range frontmatterTags(front) {
			add(t)
		}
	}
	for _, m := range inlineTagRe.FindAllSubmatch(body, -1) {
		if t := string(m[1]); hasLetter(t) {
			add(t)
		}
	}
	return out
}

// splitFrontmatter returns the YAML between the first two fence lines and
// the rest of the note. Without a closed block the whole note is body.
func splitFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), fence) {
		return nil, content
	}
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), fence) {
			return content[len(lines[0]):offset], content[offset+len(line):]
		}
		offset += len(line)
	}
	return nil, content
}

func frontmatterTags(front []byte) []string {
	var fields map[string]any
	if err := yaml.Unmarshal(front, &fields); err != nil {
		log.Debugf("Skipping unparsable frontmatter: %v", err)
		return nil
	}

	byKey := make(map[string]any, 2)
	for key, value := range fields {
		lower := strings.ToLower(key)
		if _, dup := byKey[lower]; !dup {
			byKey[lower] = value
		}
	}

	var out []string
	for _, key := range []string{"tags", "tag"} {
		switch v := byKey[key].(type) {
		case []any:
			for _, item := range v {
				if item != nil {
					out = append(out, fmt.Sprint(item))
				}
			}
		case string:
			out = append(out, strings.FieldsFunc(v, func(r rune) bool {
				return r == ',' || unicode.IsSpace(r)
			})...)
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
