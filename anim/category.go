package anim

// Category identifies the link technology that originated a tx/rx
// notification. Each category owns one pending table.
type Category int

// The supported link technologies.
const (
	CategoryWifi Category = iota
	CategoryWimax
	CategoryLte
	CategoryCsma

	numCategories
)

func (c Category) String() string {
	switch c {
	case CategoryWifi:
		return "wifi"
	case CategoryWimax:
		return "wimax"
	case CategoryLte:
		return "lte"
	case CategoryCsma:
		return "csma"
	default:
		return "unknown"
	}
}

// IsWireless returns true if packets of this category are rendered as
// wireless packet records carrying a transmission range.
func (c Category) IsWireless() bool {
	return c != CategoryCsma
}

// CompletionPolicy decides when a matched pending entry is removed from its
// table.
type CompletionPolicy int

const (
	// ConsumeOnce removes the entry on the first matching receive. Used
	// for point-to-point technologies with a single receiver.
	ConsumeOnce CompletionPolicy = iota

	// ConsumeWhilePending keeps the entry after a match so that every
	// receiver of a broadcast can resolve the same token. The entry lives
	// until an explicit completion signal or a purge.
	ConsumeWhilePending
)

// Policy returns the completion policy of the category. The wireless
// categories deliver to many receivers and therefore consume while pending.
func (c Category) Policy() CompletionPolicy {
	if c.IsWireless() {
		return ConsumeWhilePending
	}
	return ConsumeOnce
}

// Categories lists all link technologies in rendering order.
func Categories() []Category {
	return []Category{CategoryWifi, CategoryWimax, CategoryLte, CategoryCsma}
}
