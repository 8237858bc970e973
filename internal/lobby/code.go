// internal/lobby/code.go
package lobby

import "math/rand"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// GenerateCode returns a 6-character join code drawn from uppercase letters
// and digits, retrying until taken rejects the candidate. With 36^6 possible
// codes a bounded number of retries is plenty; no cryptographic strength is
// needed for lobby codes.
//
// GenerateCode itself does no locking. The Store calls it while holding its
// own mutex, which makes the store's map lookup the authoritative uniqueness
// check: two concurrent creates can never both accept the same code.
func GenerateCode(taken func(string) bool) string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if !taken(code) {
			return code
		}
	}
}
