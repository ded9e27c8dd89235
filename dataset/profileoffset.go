package dataset

// ProfileOffset maps a stable profile-id to the byte offset of its record
// inside the (variable-length) profiles section, giving O(1) profile
// lookup by id without scanning the section.
type ProfileOffset struct {
	index     uint32
	profileID uint32
	offset    uint32
}

func (p ProfileOffset) Index() uint32 { return p.index }

func (p ProfileOffset) ProfileID() uint32 { return p.profileID }

// Offset is the byte offset of the referenced profile within the profiles
// section; pass it directly to Dataset.Profiles().Get.
func (p ProfileOffset) Offset() uint32 { return p.offset }

const profileOffsetRecordSize = 8 // u32 profileID + u32 offset

type profileOffsetFactory struct{}

func (profileOffsetFactory) Create(ds *Dataset, key uint32, r Reader) (ProfileOffset, error) {
	profileID, err := r.ReadUint32()
	if err != nil {
		return ProfileOffset{}, err
	}
	offset, err := r.ReadUint32()
	if err != nil {
		return ProfileOffset{}, err
	}
	return ProfileOffset{index: key, profileID: profileID, offset: offset}, nil
}

func (profileOffsetFactory) RecordLength() (uint32, error) { return profileOffsetRecordSize, nil }

func (profileOffsetFactory) EntityLength(ProfileOffset) (uint32, error) { return profileOffsetRecordSize, nil }
