package domain

// Channel names a broadcast channel on the event bus
type Channel string

const (
	// SelectionChanged fires when something in the selection set changed:
	// an item was selected, a new item was ingested, or an order was persisted.
	SelectionChanged Channel = "selectionChanged"
	// ReorderApplied is reserved for reorder-specific notifications. Nothing
	// emits on it unless ui.notify_reorder_applied is enabled.
	ReorderApplied Channel = "reorderApplied"
)

// Channels lists every channel the bus knows about
var Channels = []Channel{SelectionChanged, ReorderApplied}
