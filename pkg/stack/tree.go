package stack

import (
	"fmt"
	"io"
)

// WriteTree prints every node under root on its own line, indented by depth,
// with its self weight. It is a debugging view of what the builder inferred.
func (f *Forest) WriteTree(w io.Writer, root NodeID) error {
	return f.Walk(root, func(_ NodeID, n Node) error {
		_, err := fmt.Fprintln(w, n.String())
		return err
	})
}
