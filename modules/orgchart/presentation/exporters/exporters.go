// Package exporters renders built org trees for humans and other tools.
package exporters

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/hierarchy"
	"github.com/iota-uz/orgchart/modules/orgchart/presentation/mappers"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Export writes roots to w in the named format.
func Export(w io.Writer, format string, roots []*hierarchy.Node) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return Text(w, roots)
	case FormatJSON:
		return JSON(w, roots)
	case FormatXLSX:
		return XLSX(w, roots)
	default:
		return fmt.Errorf("unknown format %q (expected text|json|xlsx)", format)
	}
}

// Text prints one employee per line, indented two spaces per level.
func Text(w io.Writer, roots []*hierarchy.Node) error {
	tree := mappers.ForestToTree(roots, nil)
	for _, n := range tree.Nodes {
		line := strings.Repeat("  ", n.Depth) + fmt.Sprintf("%s [%d]", n.Name, n.ID)
		var details []string
		if n.PositionName != "" {
			details = append(details, n.PositionName)
		}
		if n.DepartmentName != "" {
			details = append(details, n.DepartmentName)
		}
		if len(details) > 0 {
			line += " " + strings.Join(details, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the nested node structure.
func JSON(w io.Writer, roots []*hierarchy.Node) error {
	if roots == nil {
		roots = []*hierarchy.Node{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(roots)
}
