package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-feishu2md/docx"
)

type cellPos struct {
	row, col int
}

// table renders the payload as an HTML table so merged regions can carry
// rowspan and colspan attributes.
func (w *walker) table(table *docx.Table) string {
	if table == nil {
		return ""
	}
	if table.Columns <= 0 {
		return "<table>\n</table>\n"
	}

	grid := w.tableGrid(table)
	consumed := make(map[cellPos]struct{})

	var out strings.Builder
	out.WriteString("<table>\n")
	for row, cells := range grid {
		out.WriteString("<tr>\n")
		for col, content := range cells {
			if _, skip := consumed[cellPos{row, col}]; skip {
				continue
			}

			rowSpan, colSpan := 1, 1
			if merge, ok := table.MergeAt(row, col); ok {
				rowSpan = max(merge.RowSpan, 1)
				colSpan = max(merge.ColSpan, 1)
			}

			out.WriteString("<td")
			if rowSpan > 1 {
				fmt.Fprintf(&out, " rowspan=\"%d\"", rowSpan)
			}
			if colSpan > 1 {
				fmt.Fprintf(&out, " colspan=\"%d\"", colSpan)
			}
			out.WriteString(">")
			out.WriteString(content)
			out.WriteString("</td>")

			for r := row; r < row+rowSpan; r++ {
				for c := col; c < col+colSpan; c++ {
					consumed[cellPos{r, c}] = struct{}{}
				}
			}
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</table>\n")
	return out.String()
}

// tableGrid places each rendered cell at (i/cols, i%cols) with newlines
// stripped. Missing cell blocks leave an empty slot.
func (w *walker) tableGrid(table *docx.Table) [][]string {
	var grid [][]string
	for i, id := range table.Cells {
		row := i / table.Columns
		for len(grid) <= row {
			grid = append(grid, nil)
		}
		content := ""
		if cell, ok := w.lookup(id); ok {
			content = strings.ReplaceAll(w.block(cell, 0), "\n", "")
		}
		grid[row] = append(grid[row], content)
	}
	return grid
}
