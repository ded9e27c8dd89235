package dataset

import (
	"fmt"

	"patterndataset/cache"
	"patterndataset/config"
	"patterndataset/logger"
)

// assemble runs the Dataset Assembler's section-discovery sequence: read
// the preamble, then walk sections in version-specific order, reading each
// Header, wiring a resident list or a StreamList+Loader, and validating
// invariants along the way. It uses a single Reader borrowed for the
// entire pass, since sections are laid out contiguously and the next
// section's Header begins exactly where the previous section's body ends.
func assemble(ds *Dataset, opts Options) error {
	cfg := config.Load()

	return ds.readerPool.WithReader(func(r Reader) error {
		if err := r.Seek(0); err != nil {
			return err
		}
		pre, err := loadPreamble(r)
		if err != nil {
			return err
		}
		ds.pre = pre
		ds.ver = pre.version()
		isV32 := ds.ver == version32
		logger.TraceIf("assembler", "section walk starting, version=%d isV32=%t", ds.ver, isV32)

		// 2. Strings
		stringsHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("strings section: %w", err)
		}
		stringsLoader, err := buildLoader[AsciiString](ds, ds.readerPool, stringsHeader, asciiStringFactory{}, false, opts.CacheOverrides, SlotStrings)
		if err != nil {
			return err
		}
		ds.strings = NewStreamList[AsciiString](ds, stringsHeader, asciiStringFactory{}, stringsLoader, false)
		if err := skipSection(r, stringsHeader); err != nil {
			return err
		}

		// 3. Components
		componentsHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("components section: %w", err)
		}
		if err := checkCount("components", componentsHeader.Count, pre.counts.components); err != nil {
			return err
		}
		components, err := buildComponents(ds, componentsHeader, r, isV32)
		if err != nil {
			return err
		}
		ds.components = components

		// 4. Maps
		mapsHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("maps section: %w", err)
		}
		if err := checkCount("maps", mapsHeader.Count, pre.counts.maps); err != nil {
			return err
		}
		ds.maps = &MemoryFixedList[MapEntity]{}
		if err := ds.maps.Read(ds, mapsHeader, mapFactory{}, r); err != nil {
			return err
		}

		// 5. Properties (+ name index)
		propertiesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("properties section: %w", err)
		}
		if err := checkCount("properties", propertiesHeader.Count, pre.counts.properties); err != nil {
			return err
		}
		ds.properties = &PropertyList{}
		if err := ds.properties.Read(ds, propertiesHeader, propertyFactory{}, r); err != nil {
			return err
		}
		if err := ds.properties.buildNameIndex(); err != nil {
			return err
		}

		// 6. Values
		valuesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("values section: %w", err)
		}
		if err := checkCount("values", valuesHeader.Count, pre.counts.values); err != nil {
			return err
		}
		valuesLoader, err := buildLoader[Value](ds, ds.readerPool, valuesHeader, valueFactory{}, true, opts.CacheOverrides, SlotValues)
		if err != nil {
			return err
		}
		ds.values = NewStreamList[Value](ds, valuesHeader, valueFactory{}, valuesLoader, true)
		if err := skipSection(r, valuesHeader); err != nil {
			return err
		}

		// 7. Profiles (variable)
		profilesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("profiles section: %w", err)
		}
		if err := checkCount("profiles", profilesHeader.Count, pre.counts.profiles); err != nil {
			return err
		}
		pFactory := profileFactory{isV32: isV32}
		profilesLoader, err := buildLoader[Profile](ds, ds.readerPool, profilesHeader, pFactory, false, opts.CacheOverrides, SlotProfiles)
		if err != nil {
			return err
		}
		ds.profiles = NewStreamList[Profile](ds, profilesHeader, pFactory, profilesLoader, false)
		if err := skipSection(r, profilesHeader); err != nil {
			return err
		}

		// 8. Signatures (+ v3.2 side tables)
		signaturesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("signatures section: %w", err)
		}
		if err := checkCount("signatures", signaturesHeader.Count, pre.counts.signatures); err != nil {
			return err
		}
		signatures, err := buildSignatures(ds, signaturesHeader, cfg.CacheCapacitySignatures, isV32, opts.CacheKind)
		if err != nil {
			return err
		}
		ds.signatures = signatures
		if err := skipSection(r, signaturesHeader); err != nil {
			return err
		}

		if isV32 {
			logger.TraceIf("assembler", "v3.2 detected, reading side tables after signatures")
			sigNodeOffsetsHeader, err := nextHeader(r, ds.containerSize)
			if err != nil {
				return fmt.Errorf("signature_node_offsets section: %w", err)
			}
			ds.signatureNodeOffsets = NewIntTable(ds, ds.readerPool, sigNodeOffsetsHeader, cfg.CacheCapacityNodes)
			if err := skipSection(r, sigNodeOffsetsHeader); err != nil {
				return err
			}

			nodeRankedHeader, err := nextHeader(r, ds.containerSize)
			if err != nil {
				return fmt.Errorf("node_ranked_signature_indexes section: %w", err)
			}
			ds.nodeRankedSignatureIndexes = NewIntTable(ds, ds.readerPool, nodeRankedHeader, cfg.CacheCapacityNodes)
			if err := skipSection(r, nodeRankedHeader); err != nil {
				return err
			}

			// 9. Ranked-signature-indexes (v3.2 only: v3.1 signatures carry
			// their rank inline, so there is no on-disk section for it).
			rankedHeader, err := nextHeader(r, ds.containerSize)
			if err != nil {
				return fmt.Errorf("ranked_signature_indexes section: %w", err)
			}
			ds.rankedSignatureIndexes = NewIntTable(ds, ds.readerPool, rankedHeader, cfg.CacheCapacitySignatures)
			if err := skipSection(r, rankedHeader); err != nil {
				return err
			}
		}

		// 10. Nodes (variable)
		nodesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("nodes section: %w", err)
		}
		if err := checkCount("nodes", nodesHeader.Count, pre.counts.nodes); err != nil {
			return err
		}
		nodes, err := buildNodes(ds, nodesHeader, cfg.CacheCapacityNodes, isV32, opts.CacheKind)
		if err != nil {
			return err
		}
		ds.nodes = nodes
		if err := skipSection(r, nodesHeader); err != nil {
			return err
		}

		// 11. RootNodes
		rootNodesHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("root_nodes section: %w", err)
		}
		if err := checkCount("root_nodes", rootNodesHeader.Count, pre.counts.rootNodes); err != nil {
			return err
		}
		ds.rootNodes = &MemoryFixedList[RootNode]{}
		if err := ds.rootNodes.Read(ds, rootNodesHeader, rootNodeFactory{}, r); err != nil {
			return err
		}

		// 12. ProfileOffsets
		profileOffsetsHeader, err := nextHeader(r, ds.containerSize)
		if err != nil {
			return fmt.Errorf("profile_offsets section: %w", err)
		}
		if err := checkCount("profile_offsets", profileOffsetsHeader.Count, pre.counts.profileOffsets); err != nil {
			return err
		}
		ds.profileOffsets = &MemoryFixedList[ProfileOffset]{}
		if err := ds.profileOffsets.Read(ds, profileOffsetsHeader, profileOffsetFactory{}, r); err != nil {
			return err
		}

		logger.TraceIf("assembler", "section walk complete, %d signatures %d nodes", pre.counts.signatures, pre.counts.nodes)
		return nil
	})
}

// nextHeader reads the 12-byte Header at the reader's current position and
// validates it against the known container size (invariant 1).
func nextHeader(r Reader, containerSize int64) (Header, error) {
	var h Header
	if err := h.Load(r); err != nil {
		return h, err
	}
	if err := h.Validate(containerSize); err != nil {
		return h, err
	}
	return h, nil
}

// skipSection advances r past a section's body to the next section's
// Header.
func skipSection(r Reader, h Header) error {
	return r.Seek(int64(h.Start) + int64(h.ByteLength))
}

// overrideCache resolves slot's caller-supplied cache override, if any,
// asserting it implements cache.Cache[T].
func overrideCache[T Entity](overrides map[Slot]any, slot Slot) (cache.Cache[T], bool, error) {
	v, ok := overrides[slot]
	if !ok {
		return nil, false, nil
	}
	c, ok := v.(cache.Cache[T])
	if !ok {
		return nil, false, fmt.Errorf("%w: cache override for slot %d has the wrong element type", ErrConfig, slot)
	}
	return c, true, nil
}

// buildLoader wires a section's Loader: a direct loader if slot is absent
// from overrides, or a put-cache loader over the caller-supplied cache
// otherwise.
func buildLoader[T Entity](ds *Dataset, pool *ReaderPool, header Header, factory Factory[T], fixed bool, overrides map[Slot]any, slot Slot) (Loader[T], error) {
	var recordSize uint32
	if fixed {
		rs, err := factory.RecordLength()
		if err != nil {
			return nil, err
		}
		recordSize = rs
	}
	direct := NewDirectLoader[T](ds, pool, header, factory, recordSize, fixed)

	c, ok, err := overrideCache[T](overrides, slot)
	if err != nil {
		return nil, err
	}
	if ok {
		return NewPutCacheLoader[T](c, direct), nil
	}
	return direct, nil
}

// buildCachedLoader wires a section's Loader behind this package's own
// loading cache (LRU or ARC, per kind), for the version-dispatched
// sections (Signatures, Nodes) that aren't eligible for a caller-supplied
// override (see Slot).
func buildCachedLoader[T Entity](ds *Dataset, pool *ReaderPool, header Header, factory Factory[T], fixed bool, capacity int, kind CacheKind) (Loader[T], error) {
	var recordSize uint32
	if fixed {
		rs, err := factory.RecordLength()
		if err != nil {
			return nil, err
		}
		recordSize = rs
	}
	direct := NewDirectLoader[T](ds, pool, header, factory, recordSize, fixed)
	return NewCachedLoader[T](direct, capacity, kind), nil
}

func buildComponents(ds *Dataset, header Header, r Reader, isV32 bool) (EntityList, error) {
	if isV32 {
		list := &MemoryFixedList[ComponentV32]{}
		if err := list.Read(ds, header, componentV32Factory{}, r); err != nil {
			return nil, err
		}
		return memoryListAdapter[ComponentV32]{list: list}, nil
	}
	list := &MemoryFixedList[ComponentV31]{}
	if err := list.Read(ds, header, componentV31Factory{}, r); err != nil {
		return nil, err
	}
	return memoryListAdapter[ComponentV31]{list: list}, nil
}

func buildSignatures(ds *Dataset, header Header, capacity int, isV32 bool, kind CacheKind) (EntityList, error) {
	if isV32 {
		loader, err := buildCachedLoader[SignatureV32](ds, ds.readerPool, header, signatureV32Factory{}, true, capacity, kind)
		if err != nil {
			return nil, err
		}
		list := NewStreamList[SignatureV32](ds, header, signatureV32Factory{}, loader, true)
		return streamListAdapter[SignatureV32]{list: list}, nil
	}
	loader, err := buildCachedLoader[SignatureV31](ds, ds.readerPool, header, signatureV31Factory{}, true, capacity, kind)
	if err != nil {
		return nil, err
	}
	list := NewStreamList[SignatureV31](ds, header, signatureV31Factory{}, loader, true)
	return streamListAdapter[SignatureV31]{list: list}, nil
}

func buildNodes(ds *Dataset, header Header, capacity int, isV32 bool, kind CacheKind) (EntityList, error) {
	if isV32 {
		loader, err := buildCachedLoader[NodeV32](ds, ds.readerPool, header, nodeV32Factory{}, false, capacity, kind)
		if err != nil {
			return nil, err
		}
		list := NewStreamList[NodeV32](ds, header, nodeV32Factory{}, loader, false)
		return streamListAdapter[NodeV32]{list: list}, nil
	}
	loader, err := buildCachedLoader[NodeV31](ds, ds.readerPool, header, nodeV31Factory{}, false, capacity, kind)
	if err != nil {
		return nil, err
	}
	list := NewStreamList[NodeV31](ds, header, nodeV31Factory{}, loader, false)
	return streamListAdapter[NodeV31]{list: list}, nil
}
