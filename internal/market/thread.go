package market

import "releaf_backend/models"

// MessageNode is one message in the reconstructed reply forest.
type MessageNode struct {
	Message  models.Message `json:"message"`
	Children []*MessageNode `json:"children"`
}

// FlatMessage is a depth-annotated entry of the flattened forest, for
// renderers that indent rather than nest.
type FlatMessage struct {
	Message models.Message `json:"message"`
	Depth   int            `json:"depth"`
}

// BuildThread converts a flat, ordered message list with parent pointers
// into an ordered forest. Rules:
//   - a message is a root when ParentMessageID is nil or references an id
//     absent from the input (dangling parents degrade to roots, they are
//     never dropped);
//   - children attach to their parent in input order;
//   - the forest is rebuilt from scratch on every call, so reconstructing
//     twice from the same input yields structurally identical trees.
//
// The input order is assumed to be the fetch order (created_at ascending).
// A parent appearing after its child in the input is treated as dangling
// for that child, matching the invariant that a reply's parent must
// already exist when the reply is created.
func BuildThread(msgs []models.Message) []*MessageNode {
	nodes := make(map[uint]*MessageNode, len(msgs))
	roots := []*MessageNode{}

	for _, m := range msgs {
		n := &MessageNode{Message: m, Children: []*MessageNode{}}
		nodes[m.ID] = n

		if m.ParentMessageID == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*m.ParentMessageID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return roots
}

// FlattenThread walks the forest iteratively (explicit stack, no
// recursion) and returns a depth-first render list with depth
// annotations. Sibling order is preserved.
func FlattenThread(forest []*MessageNode) []FlatMessage {
	type frame struct {
		node  *MessageNode
		depth int
	}

	out := []FlatMessage{}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, FlatMessage{Message: f.node.Message, Depth: f.depth})
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
	return out
}
