package entity

// WalletCredential holds the login record for one wallet, as read from the input table.
type WalletCredential struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	Sign    string `json:"-" yaml:"sign"`
	Msg     string `json:"-" yaml:"msg"`
}

// DisplayName returns the name used for output files, falling back to the address.
func (w WalletCredential) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.Address
}
