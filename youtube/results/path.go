package results

// Node is a safe-navigation cursor over an untyped JSON document. Every
// lookup on an absent or wrongly-typed value yields an absent Node, so
// traversal code can chain lookups declaratively and check presence once at
// the leaf. The zero Node is absent.
type Node struct {
	v  any
	ok bool
}

// Wrap starts navigation at the document root.
func Wrap(v any) Node {
	return Node{v: v, ok: v != nil}
}

// Key descends through one or more map keys.
func (n Node) Key(keys ...string) Node {
	cur := n
	for _, key := range keys {
		if !cur.ok {
			return Node{}
		}
		m, isMap := cur.v.(map[string]any)
		if !isMap {
			return Node{}
		}
		next, present := m[key]
		if !present {
			return Node{}
		}
		cur = Node{v: next, ok: true}
	}
	return cur
}

// Index descends into a list element.
func (n Node) Index(i int) Node {
	if !n.ok {
		return Node{}
	}
	list, isList := n.v.([]any)
	if !isList || i < 0 || i >= len(list) {
		return Node{}
	}
	return Node{v: list[i], ok: true}
}

// Last descends into the final list element.
func (n Node) Last() Node {
	if !n.ok {
		return Node{}
	}
	list, isList := n.v.([]any)
	if !isList || len(list) == 0 {
		return Node{}
	}
	return Node{v: list[len(list)-1], ok: true}
}

// Each calls fn for every element of a list node. Non-list nodes iterate
// zero times.
func (n Node) Each(fn func(Node)) {
	if !n.ok {
		return
	}
	list, isList := n.v.([]any)
	if !isList {
		return
	}
	for _, el := range list {
		fn(Node{v: el, ok: true})
	}
}

// Exists reports whether the node is present.
func (n Node) Exists() bool {
	return n.ok
}

// Str returns the string value, or "" when absent or not a string.
func (n Node) Str() string {
	if !n.ok {
		return ""
	}
	s, _ := n.v.(string)
	return s
}
