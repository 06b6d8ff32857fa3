package resolve

// Input carries pre-filled values. A nil field is elicited. It doubles as the
// schema of a --plan-file.
type Input struct {
	Mode       *string       `yaml:"mode" json:"mode,omitempty"`
	Network    *string       `yaml:"network" json:"network,omitempty"`
	RPCURL     *string       `yaml:"rpc_url" json:"rpc_url,omitempty"`
	Nonce      *string       `yaml:"nonce" json:"nonce,omitempty"`
	BlockHash  *string       `yaml:"block_hash" json:"block_hash,omitempty"`
	SignerID   *string       `yaml:"signer" json:"signer,omitempty"`
	ReceiverID *string       `yaml:"receiver" json:"receiver,omitempty"`
	Actions    []ActionInput `yaml:"actions" json:"actions,omitempty"`
	Signing    *SigningInput `yaml:"signing" json:"signing,omitempty"`
}

type ActionInput struct {
	Kind          string           `yaml:"kind" json:"kind"`
	Amount        *string          `yaml:"amount" json:"amount,omitempty"`
	BeneficiaryID *string          `yaml:"beneficiary" json:"beneficiary,omitempty"`
	PublicKey     *string          `yaml:"public_key" json:"public_key,omitempty"`
	Nonce         *string          `yaml:"nonce" json:"nonce,omitempty"`
	Permission    *PermissionInput `yaml:"permission" json:"permission,omitempty"`
}

type PermissionInput struct {
	Kind        *string `yaml:"kind" json:"kind,omitempty"`
	Allowance   *string `yaml:"allowance" json:"allowance,omitempty"`
	ReceiverID  *string `yaml:"receiver" json:"receiver,omitempty"`
	MethodNames *string `yaml:"methods" json:"methods,omitempty"`
}

type SigningInput struct {
	Strategy  *string `yaml:"strategy" json:"strategy,omitempty"`
	PublicKey *string `yaml:"public_key" json:"public_key,omitempty"`
	SecretKey *string `yaml:"secret_key" json:"-"`
	Reference *string `yaml:"reference" json:"reference,omitempty"`
}

// Prefilled reports whether any signing value was supplied up front.
func (s *SigningInput) Prefilled() bool {
	if s == nil {
		return false
	}
	return s.Strategy != nil || s.PublicKey != nil || s.SecretKey != nil || s.Reference != nil
}
