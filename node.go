package ripple

import "github.com/petrijr/ripple/pkg/api"

// nodeBase carries the identity every node shares: the owning domain,
// the node id and the type tag.
type nodeBase struct {
	d   *Domain
	id  api.NodeID
	typ api.NodeType
}

func newNodeBase(d *Domain, typ api.NodeType) nodeBase {
	return nodeBase{d: d, id: d.NextNodeID(), typ: typ}
}

func (n *nodeBase) ObjectID() api.NodeID   { return n.id }
func (n *nodeBase) NodeType() api.NodeType { return n.typ }

// releaseNode severs n's parent edges and removes it from the engine.
func releaseNode(d *Domain, n api.Node, parents []api.Node) {
	for _, p := range parents {
		d.Engine().OnNodeDetach(n, p)
	}
	d.Engine().OnNodeDestroy(n)
}
