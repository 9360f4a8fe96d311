package game

import "slices"

// Trigger sequences, compared against lower-cased key names.
var (
	DirectionalSequence = []string{
		"arrowup", "arrowup", "arrowdown", "arrowdown",
		"arrowleft", "arrowright", "arrowleft", "arrowright",
	}
	WordSequence = []string{"l", "i", "t", "h", "i", "c"}
)

// SecretDetector watches recent key presses for the trigger sequences.
// Once unlocked it ignores input until Reset.
type SecretDetector struct {
	sequences [][]string
	buffers   [][]string
	unlocked  bool
}

// NewSecretDetector creates a detector for the given sequences, or the
// default directional and word sequences when none are given.
func NewSecretDetector(sequences ...[]string) *SecretDetector {
	if len(sequences) == 0 {
		sequences = [][]string{DirectionalSequence, WordSequence}
	}
	return &SecretDetector{
		sequences: sequences,
		buffers:   make([][]string, len(sequences)),
	}
}

// Press records a key press and reports whether it unlocked the secret.
func (d *SecretDetector) Press(key string) bool {
	if d.unlocked {
		return false
	}

	k := NormalizeKey(key)
	triggered := false
	for i, seq := range d.sequences {
		buf := d.buffers[i]
		if len(buf) == len(seq) {
			copy(buf, buf[1:])
			buf[len(buf)-1] = k
		} else {
			buf = append(buf, k)
		}
		d.buffers[i] = buf

		if slices.Equal(buf, seq) {
			triggered = true
		}
	}

	if triggered {
		d.unlocked = true
		d.clearBuffers()
	}
	return triggered
}

func (d *SecretDetector) Unlocked() bool {
	return d.unlocked
}

// Reset clears the unlocked flag and all buffered presses.
func (d *SecretDetector) Reset() {
	d.unlocked = false
	d.clearBuffers()
}

func (d *SecretDetector) clearBuffers() {
	for i := range d.buffers {
		d.buffers[i] = d.buffers[i][:0]
	}
}
