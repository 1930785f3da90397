package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// FromWatermill copies Watermill metadata into a Metadata map. The result is
// never nil.
func FromWatermill(md message.Metadata) Metadata {
	return Metadata(md).Clone()
}
