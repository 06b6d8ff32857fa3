package txn

import (
	"github.com/mr-tron/base58"

	"github.com/ggonzalez94/neartx/internal/id"
)

// View is the JSON rendering of a transaction.
type View struct {
	SignerID   string       `json:"signer_id"`
	PublicKey  string       `json:"public_key"`
	Nonce      uint64       `json:"nonce"`
	ReceiverID string       `json:"receiver_id"`
	BlockHash  string       `json:"block_hash"`
	Actions    []ActionView `json:"actions"`
}

type ActionView struct {
	Type          ActionKind     `json:"type"`
	Deposit       string         `json:"deposit,omitempty"`
	DepositNEAR   string         `json:"deposit_near,omitempty"`
	PublicKey     string         `json:"public_key,omitempty"`
	BeneficiaryID string         `json:"beneficiary_id,omitempty"`
	AccessKey     *AccessKeyView `json:"access_key,omitempty"`
}

type AccessKeyView struct {
	Nonce      uint64         `json:"nonce"`
	Permission PermissionView `json:"permission"`
}

type PermissionView struct {
	Type        string   `json:"type"`
	Allowance   string   `json:"allowance,omitempty"`
	ReceiverID  string   `json:"receiver_id,omitempty"`
	MethodNames []string `json:"method_names,omitempty"`
}

func (t Transaction) View() View {
	actions := make([]ActionView, 0, len(t.Actions))
	for _, a := range t.Actions {
		actions = append(actions, a.view())
	}
	return View{
		SignerID:   t.SignerID,
		PublicKey:  t.PublicKey.String(),
		Nonce:      t.Nonce,
		ReceiverID: t.ReceiverID,
		BlockHash:  base58.Encode(t.BlockHash[:]),
		Actions:    actions,
	}
}

func (CreateAccount) view() ActionView { return ActionView{Type: KindCreateAccount} }

func (a Transfer) view() ActionView {
	v := ActionView{Type: KindTransfer, Deposit: "0", DepositNEAR: id.FormatNEAR(a.Deposit)}
	if a.Deposit != nil {
		v.Deposit = a.Deposit.String()
	}
	return v
}

func (a AddKey) view() ActionView {
	return ActionView{
		Type:      KindAddKey,
		PublicKey: a.PublicKey.String(),
		AccessKey: &AccessKeyView{Nonce: a.AccessKey.Nonce, Permission: permissionView(a.AccessKey.Permission)},
	}
}

func (a DeleteKey) view() ActionView {
	return ActionView{Type: KindDeleteKey, PublicKey: a.PublicKey.String()}
}

func (a DeleteAccount) view() ActionView {
	return ActionView{Type: KindDeleteAccount, BeneficiaryID: a.BeneficiaryID}
}

func permissionView(p Permission) PermissionView {
	fc, ok := p.(FunctionCall)
	if !ok {
		return PermissionView{Type: "FullAccess"}
	}
	v := PermissionView{Type: "FunctionCall", ReceiverID: fc.ReceiverID, MethodNames: fc.MethodNames, Allowance: "unlimited"}
	if fc.Allowance != nil {
		v.Allowance = fc.Allowance.String()
	}
	return v
}
