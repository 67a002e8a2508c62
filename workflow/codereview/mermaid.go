package codereview

import (
	"fmt"
	"strings"
)

// Mermaid renders def as a Mermaid flowchart. The entry point is drawn as a
// circle and each router as a decision node, since a router's targets are
// only known at run time.
func (def Definition) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := def.EntryPoint
	if entry == "" && len(def.Nodes) > 0 {
		entry = def.Nodes[0]
	}

	for _, name := range def.Nodes {
		opener, closer := "[", "]"
		if name == entry {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", mermaidID(name), opener, name, closer))
	}

	for _, from := range sortedKeys(def.Edges) {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(from), mermaidID(def.Edges[from])))
	}

	for _, from := range sortedKeys(def.ConditionalEdges) {
		router := def.ConditionalEdges[from]
		sb.WriteString(fmt.Sprintf("    %s -.-> %s{\"%s\"}\n", mermaidID(from), mermaidID(from+"_"+router), router))
	}

	return sb.String()
}

func mermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", " ", "_")
	return r.Replace(id)
}
