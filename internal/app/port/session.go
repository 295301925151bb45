package port

// TokenStore keeps access tokens for the lifetime of the process.
type TokenStore interface {
	Get(address string) (string, bool)
	Set(address, token string)
	Delete(address string)
}
