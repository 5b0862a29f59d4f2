package oauthclient

const redacted = "[REDACTED]"

// Secret holds credential material (client secrets, access tokens). It never
// prints its value through fmt, JSON or zerolog; call Reveal when the raw
// value has to go on the wire.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return s.String()
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reveal returns the raw secret value.
func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) IsZero() bool {
	return s == ""
}
