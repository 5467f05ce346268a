package bvh

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats collects tree build information.
type Stats struct {
	Triangles int
	Nodes     int
	LeafRefs  int
	MaxDepth  int
	BuildTime time.Duration

	// Side of the serialized node texture.
	NodeTexSide int
}

// Build a tabular representation of the tree statistics.
func (s Stats) String() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", s.Triangles)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"Leaf refs", fmt.Sprintf("%d", s.LeafRefs)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", s.MaxDepth)})
	table.Append([]string{"Build time", s.BuildTime.String()})
	if s.NodeTexSide != 0 {
		table.Append([]string{"Node texture", fmt.Sprintf("%dx%d", s.NodeTexSide, s.NodeTexSide)})
		table.Append([]string{"Vertex texture", fmt.Sprintf("%dx%d", VertexTextureSide(s.Triangles*3), VertexTextureSide(s.Triangles*3))})
	}
	table.SetFooter([]string{"Memory", fmtSize(s.Nodes*NodeFloats*4 + s.Triangles*FloatsPerTriangle*4)})
	table.Render()
	return buf.String()
}

// Format a byte count using the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
