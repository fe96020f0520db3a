package booking

import "crypto/rand"

// Reservation codes have a fixed format: a constant prefix followed by
// eight alphanumeric characters, twelve characters in total.  Ambiguous
// characters (0/O, 1/I) are left out of the alphabet so codes can be
// read over the phone.  Codes are collision-resistant but not unique by
// construction; the database's unique constraint is the final guarantor
// and the engine retries on collision.
const (
	codePrefix   = "RES-"
	codeSuffix   = 8
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewCode returns a fresh reservation code.  The underlying call to
// crypto/rand ensures cryptographically secure random bytes.  On the
// (practically impossible) failure of the system RNG it returns an error.
func NewCode() (string, error) {
	buf := make([]byte, codeSuffix)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(codePrefix)+codeSuffix)
	out = append(out, codePrefix...)
	for _, b := range buf {
		out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return string(out), nil
}
