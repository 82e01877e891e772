package model

// Member is an authorized user from the roster file.  Identity is the
// normalized phone number used as the holder identity on reservations.
// PinHash is an optional bcrypt hash; members without one log in with
// their phone number alone.
type Member struct {
	Identity string
	Name     string
	IsAdmin  bool
	PinHash  string
}
