package render

// Palette is the fixed set of sender colors, in palette order.
var Palette = []string{
	"blue",
	"purple",
	"pink",
	"indigo",
	"teal",
	"orange",
	"rose",
}

// SenderColorIndex maps a sender identity to a palette slot. The hash
// is the 32-bit string hash the web client uses, so any process
// computing it assigns the same color to the same sender.
func SenderColorIndex(sender string) int {
	var hash int32
	for _, r := range sender {
		hash = int32(r) + (hash << 5) - hash
	}

	if hash < 0 {
		hash = -hash
	}
	return int(hash) % len(Palette)
}

// SenderColor returns the palette color for a sender; an empty sender
// gets a neutral color outside the palette.
func SenderColor(sender string) string {
	if sender == "" {
		return "gray"
	}

	return Palette[SenderColorIndex(sender)]
}
