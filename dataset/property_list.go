package dataset

import "fmt"

// PropertyList is the properties section's resident list, specialised with
// a name -> property-index map built alongside the resident read so the
// matching algorithm can resolve "IsMobile" to its Property without a
// linear scan.
type PropertyList struct {
	MemoryFixedList[Property]
	byName map[string]uint32
}

// buildNameIndex resolves every resident property's name through the
// strings section's loader (and its cache, if one is configured) and
// records it. Called once, immediately after Read, while the properties
// section is still being wired.
func (l *PropertyList) buildNameIndex() error {
	l.byName = make(map[string]uint32, l.Size())
	for _, p := range l.All() {
		name, err := p.Name()
		if err != nil {
			return fmt.Errorf("property %d: %w", p.Index(), err)
		}
		l.byName[name] = p.Index()
	}
	return nil
}

// ByName resolves a property by its name, returning ErrInvalidIndex if no
// property with that name exists.
func (l *PropertyList) ByName(name string) (Property, error) {
	idx, ok := l.byName[name]
	if !ok {
		return Property{}, ErrInvalidIndex
	}
	return l.Get(idx)
}
