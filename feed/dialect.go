package feed

// Dialect identifies one of the supported feed schemas.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectRSS2
	DialectAtom
	DialectRDF
)

func (d Dialect) String() string {
	switch d {
	case DialectRSS2:
		return "rss2"
	case DialectAtom:
		return "atom"
	case DialectRDF:
		return "rdf"
	default:
		return "unknown"
	}
}

// Resolved is a document reduced to its channel node and item sequence.
type Resolved struct {
	Dialect Dialect
	Channel *Node
	Items   []*Node
}

type shape struct {
	dialect Dialect
	channel func(doc *Node) *Node
	items   func(doc, channel *Node) []*Node
}

// shapes are tried in order; the first whose channel exists wins.
var shapes = []shape{
	{
		dialect: DialectRSS2,
		channel: func(doc *Node) *Node { return doc.Child("rss").Child("channel") },
		items:   func(_, channel *Node) []*Node { return channel.All("item") },
	},
	{
		dialect: DialectAtom,
		channel: func(doc *Node) *Node { return doc.Child("feed") },
		items:   func(_, channel *Node) []*Node { return channel.All("entry") },
	},
	{
		dialect: DialectRDF,
		channel: func(doc *Node) *Node { return doc.Child("rdf:RDF").Child("channel") },
		// RSS 1.0 items are siblings of the channel, not children of it.
		items: func(doc, _ *Node) []*Node { return doc.Child("rdf:RDF").All("item") },
	},
}

// Resolve identifies the dialect of doc and extracts its channel and items.
// It returns ErrInvalidFeed when no dialect matches.
func Resolve(doc *Node) (*Resolved, error) {
	for _, s := range shapes {
		channel := s.channel(doc)
		if channel == nil {
			continue
		}
		items := s.items(doc, channel)
		if items == nil {
			items = []*Node{}
		}
		return &Resolved{Dialect: s.dialect, Channel: channel, Items: items}, nil
	}
	return nil, ErrInvalidFeed
}
