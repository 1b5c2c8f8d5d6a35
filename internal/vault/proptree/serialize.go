package proptree

import "strings"

// Write renders node as a top-level document: its entries listed directly,
// without enclosing braces. Sub-nodes are rendered brace-delimited and
// indented two spaces per nesting level.
func Write(node *Node) []byte {
	var sb strings.Builder
	writeEntries(&sb, node, 0)
	return []byte(sb.String())
}

func writeEntries(sb *strings.Builder, node *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range node.Entries {
		sb.WriteString(indent)
		sb.WriteString(e.Key)
		if e.Child != nil {
			sb.WriteString(" {\n")
			writeEntries(sb, e.Child, depth+1)
			sb.WriteString(indent)
			sb.WriteString("}\n")
		} else {
			sb.WriteString(" = ")
			sb.WriteString(quote(e.Value))
			sb.WriteString(";\n")
		}
	}
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(s[i])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
