package render

import "github.com/goliatone/go-feishu2md/docx"

// orderOf counts the contiguous run of ordered siblings ending at b. Items
// without a resolvable parent number as 1.
func (w *walker) orderOf(b *docx.Block) int {
	parent, ok := w.lookup(b.ParentID)
	if !ok {
		return 1
	}

	position := -1
	for i, id := range parent.Children {
		if id == b.ID {
			position = i
			break
		}
	}
	if position < 0 {
		return 1
	}

	order := 1
	for i := position - 1; i >= 0; i-- {
		sibling, ok := w.lookup(parent.Children[i])
		if !ok || sibling.Type != docx.BlockTypeOrdered {
			break
		}
		order++
	}
	return order
}
