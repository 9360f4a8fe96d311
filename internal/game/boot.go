package game

const (
	BootComplete       = 100
	bootPercentPerLine = 16
)

// NextBootProgress advances a boot progress percentage by one step. Progress
// slows down as it approaches completion.
func NextBootProgress(p int) int {
	switch {
	case p >= BootComplete:
		return BootComplete
	case p < 70:
		p += 3
	case p < 92:
		p += 2
	default:
		p++
	}
	return min(p, BootComplete)
}

// BootSequence simulates the boot splash progress bar.
type BootSequence struct {
	progress int
	lines    int
}

// NewBootSequence creates a sequence that cycles through lines status lines.
func NewBootSequence(lines int) *BootSequence {
	return &BootSequence{lines: max(lines, 1)}
}

// Step advances progress and returns the new value.
func (b *BootSequence) Step() int {
	b.progress = NextBootProgress(b.progress)
	return b.progress
}

func (b *BootSequence) Progress() int {
	return b.progress
}

func (b *BootSequence) Done() bool {
	return b.progress >= BootComplete
}

// LineIndex returns the status line shown for the current progress.
func (b *BootSequence) LineIndex() int {
	return min(b.lines-1, b.progress/bootPercentPerLine)
}
