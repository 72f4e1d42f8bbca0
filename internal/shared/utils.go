// Package shared provides small helpers used across the client, currently
// secure wiping of sensitive byte buffers.
package shared

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Used to remove passwords from memory after they have been sent.
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
