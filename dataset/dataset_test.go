package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"patterndataset/cache"
)

func openFixture(t *testing.T, isV32 bool, opts Options) (*Dataset, fixture) {
	t.Helper()
	f := buildFixture(isV32)
	ds, err := OpenBytes(f.data, opts)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds, f
}

func TestOpenBytesV31Roundtrip(t *testing.T) {
	ds, f := openFixture(t, false, Options{})

	if got := ds.Version(); got != "3.1" {
		t.Fatalf("Version() = %q, want 3.1", got)
	}

	hw, err := ds.Components().GetEntity(f.hardwareComponent)
	if err != nil {
		t.Fatalf("Components GetEntity: %v", err)
	}
	comp, ok := hw.(ComponentV31)
	if !ok {
		t.Fatalf("component is %T, want ComponentV31", hw)
	}
	name, err := comp.Name()
	if err != nil {
		t.Fatalf("component Name: %v", err)
	}
	if name != "Hardware" {
		t.Fatalf("component name = %q, want Hardware", name)
	}

	prop, err := ds.Properties().ByName("IsMobile")
	if err != nil {
		t.Fatalf("Properties.ByName: %v", err)
	}
	def, err := prop.DefaultValue()
	if err != nil {
		t.Fatalf("Property.DefaultValue: %v", err)
	}
	defName, err := def.Name()
	if err != nil {
		t.Fatalf("Value.Name: %v", err)
	}
	if defName != "True" {
		t.Fatalf("default value = %q, want True", defName)
	}

	profileOffset, err := ds.ProfileOffsets().Get(0)
	if err != nil {
		t.Fatalf("ProfileOffsets.Get: %v", err)
	}
	profile, err := ds.Profiles().Get(profileOffset.Offset())
	if err != nil {
		t.Fatalf("Profiles.Get: %v", err)
	}
	if profile.ProfileID() != profileOffset.ProfileID() {
		t.Fatalf("profile id = %d, want %d", profile.ProfileID(), profileOffset.ProfileID())
	}
	if profile.ValueCount() != 1 {
		t.Fatalf("profile value count = %d, want 1", profile.ValueCount())
	}
	v, err := profile.ValueAt(0)
	if err != nil {
		t.Fatalf("Profile.ValueAt: %v", err)
	}
	vName, err := v.Name()
	if err != nil {
		t.Fatalf("Value.Name: %v", err)
	}
	if vName != "True" {
		t.Fatalf("profile value = %q, want True", vName)
	}

	sigEntity, err := ds.Signatures().GetEntity(0)
	if err != nil {
		t.Fatalf("Signatures.GetEntity: %v", err)
	}
	sig, ok := sigEntity.(SignatureV31)
	if !ok {
		t.Fatalf("signature is %T, want SignatureV31", sigEntity)
	}
	if sig.NodeOffsetCount() != 1 {
		t.Fatalf("signature node offset count = %d, want 1", sig.NodeOffsetCount())
	}
	nodeOffset, err := sig.NodeOffsetAt(0)
	if err != nil {
		t.Fatalf("Signature.NodeOffsetAt: %v", err)
	}

	nodeEntity, err := ds.Nodes().GetEntity(nodeOffset)
	if err != nil {
		t.Fatalf("Nodes.GetEntity: %v", err)
	}
	node, ok := nodeEntity.(NodeV31)
	if !ok {
		t.Fatalf("node is %T, want NodeV31", nodeEntity)
	}
	if child, found := node.ChildOffsetFor('a'); !found || child != 0 {
		t.Fatalf("node child for 'a' = (%d, %v), want (0, true)", child, found)
	}
}

func TestOpenBytesV32Roundtrip(t *testing.T) {
	ds, f := openFixture(t, true, Options{})

	if got := ds.Version(); got != "3.2" {
		t.Fatalf("Version() = %q, want 3.2", got)
	}

	browser, err := ds.Components().GetEntity(f.browserComponent)
	if err != nil {
		t.Fatalf("Components GetEntity: %v", err)
	}
	comp, ok := browser.(ComponentV32)
	if !ok {
		t.Fatalf("component is %T, want ComponentV32", browser)
	}
	headers, err := comp.Headers()
	if err != nil {
		t.Fatalf("Component.Headers: %v", err)
	}
	if len(headers) != 1 || headers[0] != "Hardware" {
		t.Fatalf("component headers = %v, want [Hardware]", headers)
	}

	sigEntity, err := ds.Signatures().GetEntity(0)
	if err != nil {
		t.Fatalf("Signatures.GetEntity: %v", err)
	}
	sig, ok := sigEntity.(SignatureV32)
	if !ok {
		t.Fatalf("signature is %T, want SignatureV32", sigEntity)
	}
	if sig.NodeOffsetCount() != 2 {
		t.Fatalf("signature node offset count = %d, want 2", sig.NodeOffsetCount())
	}
	off0, err := sig.NodeOffsetAt(0)
	if err != nil {
		t.Fatalf("Signature.NodeOffsetAt(0): %v", err)
	}
	if off0 != 0 {
		t.Fatalf("node offset 0 = %d, want 0", off0)
	}
	rank, err := sig.RankedSignatureIndex()
	if err != nil {
		t.Fatalf("Signature.RankedSignatureIndex: %v", err)
	}
	if rank != 0 {
		t.Fatalf("ranked signature index = %d, want 0", rank)
	}

	nodeEntity, err := ds.Nodes().GetEntity(0)
	if err != nil {
		t.Fatalf("Nodes.GetEntity: %v", err)
	}
	node, ok := nodeEntity.(NodeV32)
	if !ok {
		t.Fatalf("node is %T, want NodeV32", nodeEntity)
	}
	if node.RankedSignatureCount() != 1 {
		t.Fatalf("node ranked signature count = %d, want 1", node.RankedSignatureCount())
	}
	ranked, err := node.RankedSignatureAt(0)
	if err != nil {
		t.Fatalf("Node.RankedSignatureAt: %v", err)
	}
	if ranked != 0 {
		t.Fatalf("node ranked signature = %d, want 0", ranked)
	}

	v, err := ds.SignatureNodeOffsets().Get(1)
	if err != nil {
		t.Fatalf("SignatureNodeOffsets.Get(1): %v", err)
	}
	if v == 0 {
		t.Fatalf("signature_node_offsets[1] = 0, want the second node's offset")
	}
}

func TestUnknownVersionRejected(t *testing.T) {
	f := buildFixture(false)
	data := make([]byte, len(f.data))
	copy(data, f.data)
	// Corrupt the minor version field (offset 2, a u16) to an unsupported value.
	data[2] = 0xFF
	data[3] = 0xFF

	_, err := OpenBytes(data, Options{})
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("OpenBytes with corrupt version = %v, want ErrUnknownVersion", err)
	}
}

func TestClosedDatasetRejectsOperations(t *testing.T) {
	ds, _ := openFixture(t, false, Options{})
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := ds.componentAt(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("componentAt after Close = %v, want ErrClosed", err)
	}
	// Close must be idempotent.
	if err := ds.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCacheOverrideIsExercised(t *testing.T) {
	valuesCache := cache.NewLRUCache[Value](8)
	ds, _ := openFixture(t, false, Options{
		CacheOverrides: map[Slot]any{SlotValues: valuesCache},
	})

	for i := 0; i < 2; i++ {
		if _, err := ds.Values().Get(0); err != nil {
			t.Fatalf("Values.Get(0): %v", err)
		}
	}

	stats := valuesCache.Stats()
	if stats.Hits == 0 {
		t.Fatalf("expected at least one cache hit after repeated Get, stats=%+v", stats)
	}
}

// TestCacheHitRatioIsMonotonicInCapacity replays the same cyclic access
// pattern over every distinct string in the fixture against two strings
// caches of different capacity. A cache too small to hold the whole working
// set thrashes; one sized to it does not, so the hit ratio must not
// decrease as capacity grows (checked here for cache.LRUCache).
func TestCacheHitRatioIsMonotonicInCapacity(t *testing.T) {
	f := buildFixture(false)
	indexes := []uint32{f.hardwareName, f.browserName, f.isMobileName, f.trueName, f.falseName, f.descName}

	ratioFor := func(capacity int) float64 {
		stringsCache := cache.NewLRUCache[AsciiString](capacity)
		ds, err := OpenBytes(f.data, Options{
			CacheOverrides: map[Slot]any{SlotStrings: stringsCache},
		})
		if err != nil {
			t.Fatalf("OpenBytes: %v", err)
		}
		defer ds.Close()

		for round := 0; round < 5; round++ {
			for _, idx := range indexes {
				if _, err := ds.Strings().Get(idx); err != nil {
					t.Fatalf("Strings.Get(%d): %v", idx, err)
				}
			}
		}
		return stringsCache.Stats().HitRatio
	}

	small := ratioFor(2)
	large := ratioFor(len(indexes))
	if large < small {
		t.Fatalf("hit ratio decreased as capacity grew: capacity=2 ratio=%v, capacity=%d ratio=%v", small, len(indexes), large)
	}
}

// TestStreamModeAndInMemoryModeAgree opens the same container bytes through
// OpenBytes (ModeInMemory) and through Open against a temp file (ModeFile,
// the default reader-pool path) and asserts that a representative entity
// from each stream section (string, value, profile, signature, node) comes
// back identical either way - the reader abstraction
// (FileReader/MemoryReader) is the only thing that differs between the two
// paths, so byte-for-byte identical reads out of it must agree.
func TestStreamModeAndInMemoryModeAgree(t *testing.T) {
	f := buildFixture(true)

	memDs, err := OpenBytes(f.data, Options{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer memDs.Close()

	path := filepath.Join(t.TempDir(), uuid.NewString()+".pattern")
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fileDs, err := Open(path, Options{Mode: ModeFile})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fileDs.Close()

	memString, err := memDs.Strings().Get(f.hardwareName)
	if err != nil {
		t.Fatalf("mem Strings.Get: %v", err)
	}
	fileString, err := fileDs.Strings().Get(f.hardwareName)
	if err != nil {
		t.Fatalf("file Strings.Get: %v", err)
	}
	memName := memString.Value()
	fileName := fileString.Value()
	if memName != fileName {
		t.Fatalf("string value mismatch: mem=%q file=%q", memName, fileName)
	}

	memValue, err := memDs.Values().Get(0)
	if err != nil {
		t.Fatalf("mem Values.Get: %v", err)
	}
	fileValue, err := fileDs.Values().Get(0)
	if err != nil {
		t.Fatalf("file Values.Get: %v", err)
	}
	memValueName, err := memValue.Name()
	if err != nil {
		t.Fatalf("mem Value.Name: %v", err)
	}
	fileValueName, err := fileValue.Name()
	if err != nil {
		t.Fatalf("file Value.Name: %v", err)
	}
	if memValueName != fileValueName {
		t.Fatalf("value name mismatch: mem=%q file=%q", memValueName, fileValueName)
	}

	memProfile, err := memDs.Profiles().Get(0)
	if err != nil {
		t.Fatalf("mem Profiles.Get: %v", err)
	}
	fileProfile, err := fileDs.Profiles().Get(0)
	if err != nil {
		t.Fatalf("file Profiles.Get: %v", err)
	}
	if memProfile.ProfileID() != fileProfile.ProfileID() || memProfile.ValueCount() != fileProfile.ValueCount() {
		t.Fatalf("profile mismatch: mem=%+v file=%+v", memProfile, fileProfile)
	}

	memSig, err := memDs.Signatures().GetEntity(0)
	if err != nil {
		t.Fatalf("mem Signatures.GetEntity: %v", err)
	}
	fileSig, err := fileDs.Signatures().GetEntity(0)
	if err != nil {
		t.Fatalf("file Signatures.GetEntity: %v", err)
	}
	memSigV32, ok := memSig.(SignatureV32)
	if !ok {
		t.Fatalf("mem signature is %T, want SignatureV32", memSig)
	}
	fileSigV32, ok := fileSig.(SignatureV32)
	if !ok {
		t.Fatalf("file signature is %T, want SignatureV32", fileSig)
	}
	if memSigV32.NodeOffsetCount() != fileSigV32.NodeOffsetCount() {
		t.Fatalf("signature node offset count mismatch: mem=%d file=%d", memSigV32.NodeOffsetCount(), fileSigV32.NodeOffsetCount())
	}

	memNode, err := memDs.Nodes().GetEntity(0)
	if err != nil {
		t.Fatalf("mem Nodes.GetEntity: %v", err)
	}
	fileNode, err := fileDs.Nodes().GetEntity(0)
	if err != nil {
		t.Fatalf("file Nodes.GetEntity: %v", err)
	}
	memNodeV32, ok := memNode.(NodeV32)
	if !ok {
		t.Fatalf("mem node is %T, want NodeV32", memNode)
	}
	fileNodeV32, ok := fileNode.(NodeV32)
	if !ok {
		t.Fatalf("file node is %T, want NodeV32", fileNode)
	}
	memChild, memFound := memNodeV32.ChildOffsetFor('a')
	fileChild, fileFound := fileNodeV32.ChildOffsetFor('a')
	if memFound != fileFound || memChild != fileChild {
		t.Fatalf("node child mismatch: mem=(%d,%v) file=(%d,%v)", memChild, memFound, fileChild, fileFound)
	}
}

func TestCacheOverrideAbsentSlotUsesDirectLoader(t *testing.T) {
	// A non-nil CacheOverrides map is taken literally: a slot missing from
	// it gets a direct loader, never this package's default cache.
	ds, _ := openFixture(t, false, Options{
		CacheOverrides: map[Slot]any{SlotValues: cache.NewLRUCache[Value](8)},
	})
	if _, ok := ds.Strings().loader.(*DirectLoader[AsciiString]); !ok {
		t.Fatalf("strings loader is %T, want *DirectLoader[AsciiString]", ds.Strings().loader)
	}
	if _, err := ds.Strings().Get(0); err != nil {
		t.Fatalf("Strings.Get(0) via direct loader: %v", err)
	}
}

func TestCacheKindARCIsExercisedForSignaturesAndNodes(t *testing.T) {
	ds, _ := openFixture(t, true, Options{CacheKind: CacheKindARC})

	for i := 0; i < 2; i++ {
		if _, err := ds.Signatures().GetEntity(0); err != nil {
			t.Fatalf("Signatures.GetEntity(0): %v", err)
		}
		if _, err := ds.Nodes().GetEntity(0); err != nil {
			t.Fatalf("Nodes.GetEntity(0): %v", err)
		}
	}

	sigLoader := ds.signatures.(streamListAdapter[SignatureV32]).list.loader.(*CachedLoader[SignatureV32])
	if stats := sigLoader.Stats(); stats.Hits == 0 {
		t.Fatalf("expected at least one ARC cache hit on signatures, stats=%+v", stats)
	}
	nodeLoader := ds.nodes.(streamListAdapter[NodeV32]).list.loader.(*CachedLoader[NodeV32])
	if stats := nodeLoader.Stats(); stats.Hits == 0 {
		t.Fatalf("expected at least one ARC cache hit on nodes, stats=%+v", stats)
	}
}

func TestConcurrentReads(t *testing.T) {
	ds, f := openFixture(t, true, Options{})

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				if _, err := ds.Strings().Get(f.hardwareName); err != nil {
					return err
				}
				if _, err := ds.Profiles().Get(0); err != nil {
					return err
				}
				if _, err := ds.Components().GetEntity(f.browserComponent); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent reads: %v", err)
	}
}

func TestDeleteOnCloseRemovesBackingFile(t *testing.T) {
	f := buildFixture(false)
	path := filepath.Join(t.TempDir(), uuid.NewString()+".pattern")
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ds, err := Open(path, Options{DeleteOnClose: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("backing file still exists after DeleteOnClose Close: err=%v", err)
	}
}

func TestNodeIteratorProducesExactCount(t *testing.T) {
	ds, _ := openFixture(t, false, Options{})
	it, err := ds.nodes.(streamListAdapter[NodeV31]).list.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	defer it.Close()

	count := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 3 {
		t.Fatalf("iterated %d nodes, want 3", count)
	}
}
