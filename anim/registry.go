package anim

import "sort"

// A Link is an undirected connection between two nodes, emitted as part of
// the topology snapshot.
type Link struct {
	From, To NodeID
}

// A NodeRegistry holds the static, externally configured facts about the
// simulated nodes: human-readable descriptions, mobility sources, and
// point-to-point links. It is an explicit object owned by the session
// rather than process-global state.
type NodeRegistry struct {
	descriptions map[NodeID]string
	mobility     map[NodeID]PositionProvider
	links        []Link
}

// NewNodeRegistry creates an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		descriptions: make(map[NodeID]string),
		mobility:     make(map[NodeID]PositionProvider),
	}
}

// SetDescription sets the label of a node. A later call overwrites the
// earlier one.
func (r *NodeRegistry) SetDescription(node NodeID, description string) {
	r.descriptions[node] = description
}

// Description returns the label of a node, or the empty string.
func (r *NodeRegistry) Description(node NodeID) string {
	return r.descriptions[node]
}

// SetMobilityProvider attaches a mobility source to a node. Nodes with a
// provider are visited by the mobility poll.
func (r *NodeRegistry) SetMobilityProvider(
	node NodeID,
	provider PositionProvider,
) {
	r.mobility[node] = provider
}

// MobilityProvider returns the mobility source of a node, if any.
func (r *NodeRegistry) MobilityProvider(
	node NodeID,
) (PositionProvider, bool) {
	p, ok := r.mobility[node]
	return p, ok
}

// NodesWithMobility returns all nodes with a mobility source, in ascending
// ID order.
func (r *NodeRegistry) NodesWithMobility() []NodeID {
	nodes := make([]NodeID, 0, len(r.mobility))
	for node := range r.mobility {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	return nodes
}

// AddLink records a point-to-point link between two nodes.
func (r *NodeRegistry) AddLink(from, to NodeID) {
	r.links = append(r.links, Link{From: from, To: to})
}

// Links returns all recorded links in insertion order.
func (r *NodeRegistry) Links() []Link {
	return r.links
}
