package enums

import "fmt"

// DrumSize identifies one of the three sorbetes drum sizes.
type DrumSize string

const (
	DrumSizeSmall  DrumSize = "small"
	DrumSizeMedium DrumSize = "medium"
	DrumSizeLarge  DrumSize = "large"
)

// DrumSizesBySmallestFirst is the floor-allocation priority: smaller sizes
// are kept available first so the store stays operating at the most
// affordable tier.
var DrumSizesBySmallestFirst = []DrumSize{
	DrumSizeSmall,
	DrumSizeMedium,
	DrumSizeLarge,
}

// DrumSizesByLargestFirst is the cut priority: large drums are the most
// capacity-expensive, so excess stock is removed from them first.
var DrumSizesByLargestFirst = []DrumSize{
	DrumSizeLarge,
	DrumSizeMedium,
	DrumSizeSmall,
}

// String implements fmt.Stringer.
func (d DrumSize) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DrumSize.
func (d DrumSize) IsValid() bool {
	for _, candidate := range DrumSizesBySmallestFirst {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDrumSize converts raw input into a DrumSize.
func ParseDrumSize(value string) (DrumSize, error) {
	for _, candidate := range DrumSizesBySmallestFirst {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid drum size %q", value)
}
