package feed

// Text returns the plain-text value of n. A missing node yields "".
//
// All text is pulled out of parsed documents through Text so that CDATA
// sections, character data and elements carrying attributes read the same.
func Text(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Text
}

// firstText returns the text of the first named child with non-empty text.
func firstText(n *Node, names ...string) string {
	for _, name := range names {
		for _, c := range n.All(name) {
			if t := Text(c); t != "" {
				return t
			}
		}
	}
	return ""
}
