package domain

import "fmt"

// ExternalProfile is the verified identity returned by the provider's
// userinfo endpoint. It is transient: only the fields copied onto an
// account row are ever persisted.
type ExternalProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	AvatarURL     string `json:"picture,omitempty"`
	Locale        string `json:"locale,omitempty"`
	HostedDomain  string `json:"hd,omitempty"`
}

// Validate checks the fields the account logic depends on. A profile
// missing any of them is treated as a failed exchange.
func (p *ExternalProfile) Validate() error {
	if p.Subject == "" {
		return fmt.Errorf("profile missing subject id")
	}
	if p.Email == "" {
		return fmt.Errorf("profile missing email")
	}
	if p.Name == "" {
		return fmt.Errorf("profile missing name")
	}
	return nil
}
