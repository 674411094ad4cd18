package gamification

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// BadgeKind enumerates the badges the engine can award.
type BadgeKind string

const (
	KindPlannerPro   BadgeKind = "planner_pro"
	KindFirstStep    BadgeKind = "first_step"
	KindQuizWhiz     BadgeKind = "quiz_whiz"
	KindSubjectAdept BadgeKind = "subject_adept"
	// KindUnknown marks a restored badge whose name matches no catalog entry.
	KindUnknown BadgeKind = "unknown"
)

const subjectPlaceholder = "{subject}"

//go:embed badges.yaml
var catalogYAML []byte

// Definition is one catalog entry.
type Definition struct {
	Kind        BadgeKind `yaml:"kind"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Aliases     []string  `yaml:"aliases"`
}

// PerSubject reports whether the definition is parameterised by subject.
func (d Definition) PerSubject() bool {
	return strings.Contains(d.Name, subjectPlaceholder)
}

// Badge instantiates the definition. subject is ignored for global badges.
func (d Definition) Badge(subject string) Badge {
	if !d.PerSubject() {
		return Badge{Kind: d.Kind, Name: d.Name, Description: d.Description}
	}
	return Badge{
		Kind:        d.Kind,
		Name:        strings.ReplaceAll(d.Name, subjectPlaceholder, subject),
		Description: strings.ReplaceAll(d.Description, subjectPlaceholder, subject),
		Subject:     subject,
	}
}

// Catalog holds the badge definitions keyed by kind.
type Catalog struct {
	defs  map[BadgeKind]Definition
	order []BadgeKind
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Badges []Definition `yaml:"badges"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing badge catalog: %w", err)
	}

	c := &Catalog{defs: make(map[BadgeKind]Definition, len(doc.Badges))}
	for _, d := range doc.Badges {
		if d.Kind == "" || d.Name == "" {
			return nil, fmt.Errorf("badge catalog: entry needs kind and name")
		}
		if _, dup := c.defs[d.Kind]; dup {
			return nil, fmt.Errorf("badge catalog: duplicate kind %q", d.Kind)
		}
		c.defs[d.Kind] = d
		c.order = append(c.order, d.Kind)
	}
	for _, k := range []BadgeKind{KindPlannerPro, KindFirstStep, KindQuizWhiz, KindSubjectAdept} {
		if _, ok := c.defs[k]; !ok {
			return nil, fmt.Errorf("badge catalog: missing kind %q", k)
		}
	}
	return c, nil
}

var defaultCatalog = mustParse(catalogYAML)

func mustParse(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Definition returns the entry for kind.
func (c *Catalog) Definition(kind BadgeKind) (Definition, bool) {
	d, ok := c.defs[kind]
	return d, ok
}

// Definitions returns all entries in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.defs[k])
	}
	return out
}

// Resolve maps a stored badge name to its canonical badge. Current names and
// aliases are both accepted; per-subject patterns recover the subject from
// the name. Unknown names come back as KindUnknown with ok=false.
func (c *Catalog) Resolve(name string) (Badge, bool) {
	for _, k := range c.order {
		d := c.defs[k]
		for _, pattern := range append([]string{d.Name}, d.Aliases...) {
			if subject, ok := matchPattern(pattern, name); ok {
				return d.Badge(subject), true
			}
		}
	}
	return Badge{Kind: KindUnknown, Name: name}, false
}

// matchPattern matches name against a pattern that may hold one {subject}.
func matchPattern(pattern, name string) (string, bool) {
	before, after, found := strings.Cut(pattern, subjectPlaceholder)
	if !found {
		return "", pattern == name
	}
	if len(name) <= len(before)+len(after) {
		return "", false
	}
	if !strings.HasPrefix(name, before) || !strings.HasSuffix(name, after) {
		return "", false
	}
	subject := name[len(before) : len(name)-len(after)]
	if strings.TrimSpace(subject) == "" {
		return "", false
	}
	return subject, true
}
