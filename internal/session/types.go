package session

// Profile is the identity the backend reports for the signed-in user.
type Profile struct {
	Username    string
	DisplayName string
	Role        string
}

func (p Profile) IsAdmin() bool {
	return p.Role == "admin"
}

// Label picks the friendliest name available for display.
func (p Profile) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Snapshot is the observable session state handed to subscribers. HasToken
// reports bearer-token presence without exposing the value.
type Snapshot struct {
	Authenticated bool
	User          Profile
	HasToken      bool
}
