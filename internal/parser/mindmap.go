package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

// DefaultMindMapTopic labels the root when neither the text nor the caller
// names a central topic.
const DefaultMindMapTopic = "Mapa mental"

var mindMapClass = lineclass.New(lineclass.Vocabulary{
	Rules: []lineclass.Rule{
		lineclass.BoundaryRule("root", `MAPA\s+MENTAL|(?:TEMA|IDEA|CONCEPTO|NODO)\s+CENTRAL`),
	},
})

// mindMapSpace namespaces node IDs so they are stable across re-parses.
var mindMapSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("studyparse/mindmap"))

type draftNode struct {
	label    string
	children []*draftNode
}

func (d *draftNode) add(label string) *draftNode {
	child := &draftNode{label: label}
	d.children = append(d.children, child)
	return child
}

type stackEntry struct {
	depth int
	node  *draftNode
}

// ParseMindMap builds a mind map tree from bullet indentation and markdown
// heading depth, up to the first separator after the branches. The root is the central topic named in the text, else
// topic, else DefaultMindMapTopic. It returns a single root node, or nothing
// when the root has no branches.
func ParseMindMap(text, topic string) (out []domain.MindMapNode) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("parser recovered from panic", "parser", "mindmap", "panic", r)
			out = nil
		}
	}()

	lines := mindMapClass.Lines(text)

	start, rootLabel := 0, ""
	for i, l := range lines {
		if l.Kind == lineclass.Boundary {
			if start == 0 {
				start = i + 1
			}
			if rootLabel == "" {
				rootLabel = l.Value
			}
		}
	}

	minHeading := 0
	for _, l := range lines[start:] {
		if l.Kind == lineclass.Body && l.Heading > 0 && (minHeading == 0 || l.Heading < minHeading) {
			minHeading = l.Heading
		}
	}

	root := &draftNode{}
	var headings, bullets []stackEntry

	anchor := func() *draftNode {
		if len(headings) > 0 {
			return headings[len(headings)-1].node
		}
		return root
	}

loop:
	for _, l := range lines[start:] {
		switch {
		case l.Kind == lineclass.Separator && len(root.children) > 0:
			break loop

		case l.Kind == lineclass.Body && (l.Heading > 0 || (l.Indent == 0 && isBoldLine(l.Raw))):
			depth := 1
			if l.Heading > 0 {
				depth = l.Heading - minHeading + 1
			}
			for len(headings) > 0 && headings[len(headings)-1].depth >= depth {
				headings = headings[:len(headings)-1]
			}
			node := anchor().add(l.Value)
			headings = append(headings, stackEntry{depth: depth, node: node})
			bullets = bullets[:0]

		case l.Kind == lineclass.Bullet:
			for len(bullets) > 0 && bullets[len(bullets)-1].depth >= l.Indent {
				bullets = bullets[:len(bullets)-1]
			}
			parent := anchor()
			if len(bullets) > 0 {
				parent = bullets[len(bullets)-1].node
			}
			node := parent.add(l.Value)
			bullets = append(bullets, stackEntry{depth: l.Indent, node: node})
		}
	}

	label := textnorm.Clean(rootLabel)
	if label == "" {
		label = textnorm.Clean(topic)
	}
	if label == "" {
		label = DefaultMindMapTopic
	}

	path := "root:" + label
	tree := domain.MindMapNode{
		ID:       nodeID(path),
		Label:    label,
		Children: freeze(root.children, path, 1),
		Level:    0,
	}
	if len(tree.Children) == 0 || !Valid(tree) {
		return nil
	}
	return []domain.MindMapNode{tree}
}

// freeze converts draft nodes into immutable nodes. A node whose label is
// empty once cleaned is dropped and its children move up to its parent.
func freeze(drafts []*draftNode, parentPath string, level int) []domain.MindMapNode {
	var nodes []domain.MindMapNode
	for _, d := range drafts {
		label := textnorm.Clean(d.label)
		if label == "" {
			nodes = append(nodes, freeze(d.children, parentPath, level)...)
			continue
		}
		path := parentPath + "\x1f" + strconv.Itoa(len(nodes)) + ":" + label
		nodes = append(nodes, domain.MindMapNode{
			ID:       nodeID(path),
			Label:    label,
			Children: freeze(d.children, path, level+1),
			Level:    level,
		})
	}
	return nodes
}

func nodeID(path string) string {
	return uuid.NewSHA1(mindMapSpace, []byte(path)).String()
}

func isBoldLine(raw string) bool {
	s := textnorm.StripEmoji(raw)
	return strings.HasPrefix(s, "**") && strings.HasSuffix(strings.TrimRight(s, ":"), "**")
}
