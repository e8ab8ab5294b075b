package property

import (
	"fmt"
	"strings"
)

// Step is one access of a property path: either a named property or an
// indexer with its textual arguments.
type Step struct {
	Name  string
	Index bool
	Args  []string
}

func (s Step) String() string {
	if s.Index {
		return "[" + strings.Join(s.Args, ",") + "]"
	}

	return s.Name
}

// Path is an immutable, parsed property path such as "A.B[2].C". The zero
// Path is the identity path: it resolves to the root itself.
type Path struct {
	steps []Step
}

// ParsePath parses a property path string into a Path.
// Supports: "Name", "Address.Street", "Items[2]", "Items[2].Name", "[0]",
// "Cells[1,2]" and "" (identity).
func ParsePath(path string) (Path, error) {
	if path == "" {
		return Path{}, nil
	}

	parts, err := splitSegments(path)
	if err != nil {
		return Path{}, err
	}

	var steps []Step

	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		name, rest := part, ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}

		if name != "" {
			if !isValidIdent(name) {
				return Path{}, fmt.Errorf("invalid path %q: invalid identifier %q", path, name)
			}

			steps = append(steps, Step{Name: name})
		}

		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return Path{}, fmt.Errorf("invalid path %q: malformed indexer in %q", path, part)
			}

			args := strings.Split(rest[1:end], ",")
			for i, arg := range args {
				args[i] = strings.TrimSpace(arg)
				if args[i] == "" {
					return Path{}, fmt.Errorf("invalid path %q: empty index argument", path)
				}
			}

			steps = append(steps, Step{Name: IndexerName, Index: true, Args: args})
			rest = rest[end+1:]
		}
	}

	return Path{steps: steps}, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(path string) Path {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}

	return p
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.steps)
}

// IsIdentity reports whether p has no steps.
func (p Path) IsIdentity() bool {
	return len(p.steps) == 0
}

// Step returns the i-th step.
func (p Path) Step(i int) Step {
	return p.steps[i]
}

// String returns the canonical form of the path.
func (p Path) String() string {
	var b strings.Builder

	for i, s := range p.steps {
		if i > 0 && !s.Index {
			b.WriteByte('.')
		}

		b.WriteString(s.String())
	}

	return b.String()
}

// Equal reports whether both paths have the same canonical form.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}

// splitSegments splits on dots outside of brackets.
func splitSegments(path string) ([]string, error) {
	var (
		parts []string
		depth int
		start int
	)

	for i, r := range path {
		switch r {
		case '[':
			depth++
			if depth > 1 {
				return nil, fmt.Errorf("invalid path %q: nested brackets", path)
			}
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("invalid path %q: unbalanced brackets", path)
			}
		case '.':
			if depth == 0 {
				parts = append(parts, path[start:i])
				start = i + 1
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("invalid path %q: unbalanced brackets", path)
	}

	return append(parts, path[start:]), nil
}

// isValidIdent checks if a string is a valid Go identifier.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
