package enrich

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Node is one category, subcategory or tag in the classification taxonomy.
type Node struct {
	Code     string
	Name     string
	Children []*Node
}

func node(code, name string, children ...*Node) *Node {
	return &Node{Code: code, Name: name, Children: children}
}

// Taxonomy is the fixed vocabulary the classifier chooses from.
type Taxonomy struct {
	Roots []*Node
	index map[string]*Node
}

// DefaultTaxonomy is the four-category tree used for every episode.
var DefaultTaxonomy = NewTaxonomy(
	node("1", "Data Analytics",
		node("1.1", "Business Intelligence",
			node("1.1.1", "Dashboards",
				node("1.1.1.1", "Interactive Dashboards"),
				node("1.1.1.2", "KPI Dashboards"),
			),
			node("1.1.2", "Reporting Tools",
				node("1.1.2.1", "Looker"),
				node("1.1.2.2", "Lightdash"),
			),
		),
		node("1.2", "Advanced Analytics",
			node("1.2.1", "Customer Analytics",
				node("1.2.1.1", "Customer Segmentation"),
				node("1.2.1.2", "Customer Journey Analysis"),
			),
			node("1.2.2", "Marketing Analytics",
				node("1.2.2.1", "Attribution Modeling"),
				node("1.2.2.2", "Ad Spend Analysis"),
			),
			node("1.2.3", "Financial Analytics",
				node("1.2.3.1", "Benchmarking"),
				node("1.2.3.2", "Forecasting"),
			),
		),
		node("1.3", "Web and Digital Analytics",
			node("1.3.1", "Event-Based Analytics"),
			node("1.3.2", "SEO Analytics"),
		),
		node("1.4", "Specialized Analytics",
			node("1.4.1", "IoT Analytics",
				node("1.4.1.1", "Smart Home"),
				node("1.4.1.2", "Smart Buildings"),
			),
			node("1.4.2", "Media Analytics"),
		),
	),
	node("2", "Data Strategy",
		node("2.1", "Modern Data Stack",
			node("2.1.1", "Components",
				node("2.1.1.1", "Data Integration Tools"),
				node("2.1.1.2", "Data Transformation Tools"),
			),
			node("2.1.2", "Best Practices",
				node("2.1.2.1", "Project Management"),
				node("2.1.2.2", "Healthchecks"),
			),
		),
		node("2.2", "Data Governance",
			node("2.2.1", "Data Quality"),
			node("2.2.2", "Data Lineage"),
		),
		node("2.3", "Cloud Strategy",
			node("2.3.1", "Google Cloud"),
			node("2.3.2", "Oracle Cloud"),
			node("2.3.3", "Multi-Cloud Solutions"),
		),
	),
	node("3", "Data Centralization",
		node("3.1", "Data Warehousing",
			node("3.1.1", "Cloud Data Warehouses",
				node("3.1.1.1", "BigQuery"),
				node("3.1.1.2", "Autonomous Data Warehouse"),
			),
			node("3.1.2", "Data Lakehouses"),
		),
		node("3.2", "Data Modeling",
			node("3.2.1", "Semantic Layers"),
			node("3.2.2", "Dimensional Modeling",
				node("3.2.2.1", "Slowly Changing Dimensions"),
			),
		),
		node("3.3", "Data Engineering",
			node("3.3.1", "ETL and Data Pipelines"),
			node("3.3.2", "Data Transformation",
				node("3.3.2.1", "dbt"),
			),
		),
		node("3.4", "Data Integration",
			node("3.4.1", "Customer Data Platforms"),
			node("3.4.2", "Data Synchronization"),
		),
	),
	node("4", "Artificial Intelligence",
		node("4.1", "Machine Learning",
			node("4.1.1", "Predictive Analytics"),
			node("4.1.2", "Customer Lifetime Value"),
		),
		node("4.2", "Natural Language Processing",
			node("4.2.1", "Text Generation"),
			node("4.2.2", "Sentiment Analysis"),
		),
		node("4.3", "Generative AI",
			node("4.3.1", "Large Language Models"),
			node("4.3.2", "AI-Powered Chatbots"),
		),
		node("4.4", "AI in Business Intelligence",
			node("4.4.1", "Automated Insights"),
			node("4.4.2", "AI-Enhanced Dashboards"),
		),
	),
)

// NewTaxonomy indexes roots by code and by normalized name.
func NewTaxonomy(roots ...*Node) *Taxonomy {
	t := &Taxonomy{Roots: roots, index: make(map[string]*Node)}
	t.Walk(func(n *Node, _ int) {
		t.index[n.Code] = n
		t.index[normalizeTag(n.Name)] = n
	})
	return t
}

// Walk visits every node depth-first in declaration order.
func (t *Taxonomy) Walk(fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(t.Roots, 0)
}

// Lookup resolves a tag written as a code ("1.1.2"), a name ("Reporting
// Tools") or both ("1.1.2. Reporting Tools"). Name matching ignores case.
func (t *Taxonomy) Lookup(tag string) (*Node, bool) {
	tag = strings.TrimSpace(strings.Trim(strings.TrimSpace(tag), "[]\"'*"))
	if tag == "" {
		return nil, false
	}
	if m := tagCodePattern.FindStringSubmatch(tag); m != nil {
		code := strings.TrimSuffix(m[1], ".")
		name := strings.TrimSpace(m[2])
		n, ok := t.index[code]
		if !ok {
			return nil, false
		}
		if name != "" && normalizeTag(name) != normalizeTag(n.Name) {
			return nil, false
		}
		return n, true
	}
	n, ok := t.index[normalizeTag(tag)]
	return n, ok
}

// Contains reports whether tag names a node in the taxonomy.
func (t *Taxonomy) Contains(tag string) bool {
	_, ok := t.Lookup(tag)
	return ok
}

// Render writes the taxonomy the way the classifier prompt lists it: one
// line per category, with every descendant as "code. name".
func (t *Taxonomy) Render() string {
	lines := make([]string, 0, len(t.Roots))
	for _, root := range t.Roots {
		parts := []string{"* " + root.Name}
		var visit func(nodes []*Node)
		visit = func(nodes []*Node) {
			for _, n := range nodes {
				parts = append(parts, n.Code+". "+n.Name)
				visit(n.Children)
			}
		}
		visit(root.Children)
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

var tagCodePattern = regexp.MustCompile(`^(\d+(?:\.\d+)*\.?)\s*(.*)$`)

func normalizeTag(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// Classification is the parsed form of the classifier's text output.
type Classification struct {
	Primary   string
	Secondary []string
}

// ErrNoPrimaryTag marks classifier output without a "Primary Tag:" line.
var ErrNoPrimaryTag = errors.New("classification has no primary tag")

// ParseClassification reads the "Primary Tag:" and "Secondary Tags:" lines.
// Brackets around values are dropped and secondary tags are split on commas.
func ParseClassification(text string) (Classification, error) {
	var c Classification
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*-#"))
		line = strings.ReplaceAll(line, "**", "")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "[]"))
		switch normalizeTag(key) {
		case "primary tag":
			c.Primary = value
			found = value != ""
		case "secondary tags", "secondary tag":
			for _, tag := range strings.Split(value, ",") {
				if tag = strings.TrimSpace(strings.Trim(strings.TrimSpace(tag), "[]")); tag != "" {
					c.Secondary = append(c.Secondary, tag)
				}
			}
		}
	}
	if !found {
		return c, ErrNoPrimaryTag
	}
	return c, nil
}

// Unknown returns the tags in c that the taxonomy does not contain.
func (t *Taxonomy) Unknown(c Classification) []string {
	var unknown []string
	for _, tag := range append([]string{c.Primary}, c.Secondary...) {
		if !t.Contains(tag) {
			unknown = append(unknown, tag)
		}
	}
	return unknown
}

// Validate parses text and checks every tag against the taxonomy. The
// returned note is empty when the text is well formed and fully known.
func (t *Taxonomy) Validate(text string) (Classification, string) {
	c, err := ParseClassification(text)
	if err != nil {
		return c, err.Error()
	}
	unknown := t.Unknown(c)
	if len(unknown) == 0 {
		return c, ""
	}
	quoted := make([]string, len(unknown))
	for i, tag := range unknown {
		quoted[i] = fmt.Sprintf("%q", tag)
	}
	return c, "tags not in taxonomy: " + strings.Join(quoted, ", ")
}
