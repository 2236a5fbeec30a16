package zkvm

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yourorg/zkvc/internal/keccak"
)

// ImageID identifies one compiled program together with its verifying key.
type ImageID [32]byte

// DeriveImageID binds a program name, its compiled constraint system and its
// verifying key into one identity.
func DeriveImageID(name string, ccsDigest [sha256.Size]byte, vk []byte) ImageID {
	return ImageID(keccak.Sum([]byte(name), ccsDigest[:], vk))
}

// ParseImageID reads a 32-byte hex identity, with or without 0x.
func ParseImageID(s string) (ImageID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return ImageID{}, fmt.Errorf("image id: %w", err)
	}
	if len(b) != len(ImageID{}) {
		return ImageID{}, fmt.Errorf("image id: want 32 bytes, got %d", len(b))
	}
	return ImageID(b), nil
}

func (id ImageID) String() string {
	return hexutil.Encode(id[:])
}

func (id ImageID) IsZero() bool {
	return id == ImageID{}
}

func (id ImageID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ImageID) UnmarshalText(b []byte) error {
	parsed, err := ParseImageID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
