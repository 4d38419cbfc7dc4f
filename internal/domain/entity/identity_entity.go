package entity

// ExternalIdentity is what a federated sign-in yields once the provider handshake is done.
type ExternalIdentity struct {
	Provider    string
	ExternalID  string
	Email       string
	DisplayName string
}
