package ir

import "github.com/google/uuid"

// identityLen is the length of the hyphenated 8-4-4-4-12 form.
const identityLen = 36

// ParseIdentity reports whether s is a durable identity and returns its
// canonical lowercase form.
//
// Only the hyphenated form is accepted. uuid.Parse alone would also take
// the urn:uuid:, braced and 32-digit forms, which as argument strings are
// far more likely to be ordinary user data than a rendered identity.
func ParseIdentity(s string) (string, bool) {
	if len(s) != identityLen {
		return "", false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// IdentityOf returns the durable identity carried by v, if v is a String
// holding one.
func IdentityOf(v Value) (string, bool) {
	s, ok := v.(String)
	if !ok {
		return "", false
	}
	return ParseIdentity(string(s))
}
