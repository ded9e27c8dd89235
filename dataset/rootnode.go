package dataset

// RootNode is an entry point into the node tree for a given component: the
// matching algorithm starts walking at the node found at NodeOffset when
// inspecting that component's headers.
type RootNode struct {
	ds             *Dataset
	index          uint32
	componentIndex uint32
	nodeOffset     uint32
}

func (r RootNode) Index() uint32 { return r.index }

// Component resolves the component this root node is the entry point for.
func (r RootNode) Component() (Entity, error) {
	return r.ds.componentAt(r.componentIndex)
}

// NodeOffset is the byte offset of the top-level node within the nodes
// section.
func (r RootNode) NodeOffset() uint32 { return r.nodeOffset }

const rootNodeRecordSize = 8 // u32 componentIndex + u32 nodeOffset

type rootNodeFactory struct{}

func (rootNodeFactory) Create(ds *Dataset, key uint32, r Reader) (RootNode, error) {
	componentIndex, err := r.ReadUint32()
	if err != nil {
		return RootNode{}, err
	}
	nodeOffset, err := r.ReadUint32()
	if err != nil {
		return RootNode{}, err
	}
	return RootNode{ds: ds, index: key, componentIndex: componentIndex, nodeOffset: nodeOffset}, nil
}

func (rootNodeFactory) RecordLength() (uint32, error) { return rootNodeRecordSize, nil }

func (rootNodeFactory) EntityLength(RootNode) (uint32, error) { return rootNodeRecordSize, nil }
