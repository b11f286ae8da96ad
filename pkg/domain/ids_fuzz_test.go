package domain

import "testing"

// FuzzParseAccountID checks that parsing never panics on arbitrary input and
// that any accepted value round-trips through String.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		accountID, err := ParseAccountID(input)
		if err != nil {
			return
		}
		if accountID.IsZero() {
			t.Error("accepted value must not be the nil UUID")
		}
		roundTrip, err := ParseAccountID(accountID.String())
		if err != nil {
			t.Errorf("accepted value failed round-trip: %v", err)
		}
		if roundTrip != accountID {
			t.Error("round-trip changed the value")
		}
	})
}

// FuzzParseIdentityID checks the counter parser with arbitrary input.
func FuzzParseIdentityID(f *testing.F) {
	f.Add("")
	f.Add("0")
	f.Add("1")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("-1")
	f.Add("1e9")

	f.Fuzz(func(t *testing.T, input string) {
		identityID, err := ParseIdentityID(input)
		if err != nil {
			return
		}
		if identityID == 0 {
			t.Error("accepted value must be greater than zero")
		}
		roundTrip, err := ParseIdentityID(identityID.String())
		if err != nil || roundTrip != identityID {
			t.Error("round-trip must preserve the value")
		}
	})
}
