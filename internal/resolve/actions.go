package resolve

import (
	"fmt"

	"github.com/ggonzalez94/neartx/internal/id"
	"github.com/ggonzalez94/neartx/internal/keys"
	"github.com/ggonzalez94/neartx/internal/txn"
)

const (
	ActionTransfer        = "transfer"
	ActionCreateAccount   = "create-account"
	ActionDeleteAccount   = "delete-account"
	ActionAddAccessKey    = "add-access-key"
	ActionDeleteAccessKey = "delete-access-key"
	ActionFinalize        = "finalize"
)

var actionOptions = []Option{
	{Key: ActionTransfer, Label: "Transfer NEAR Tokens"},
	{Key: ActionCreateAccount, Label: "Create an Account"},
	{Key: ActionDeleteAccount, Label: "Delete an Account"},
	{Key: ActionAddAccessKey, Label: "Add an Access Key"},
	{Key: ActionDeleteAccessKey, Label: "Delete an Access Key"},
	{Key: ActionFinalize, Label: "Skip adding a new action"},
}

// ActionKinds lists the keys accepted for ActionInput.Kind.
func ActionKinds() []string {
	out := make([]string, 0, len(actionOptions))
	for _, opt := range actionOptions {
		out = append(out, opt.Key)
	}
	return out
}

// ResolveActions walks the action chain until it is finalized. Pre-filled
// entries are consumed in order. Once they run out, a pre-filled signing
// configuration closes the chain; otherwise the next kind is elicited.
func (r *Resolver) ResolveActions(in Input) ([]txn.Action, SigningStrategy, error) {
	actions := []txn.Action{}
	for i := 0; ; i++ {
		var entry ActionInput
		var kindPtr *string
		if i < len(in.Actions) {
			entry = in.Actions[i]
			kindPtr = strPtr(entry.Kind)
		} else if in.Signing.Prefilled() {
			kindPtr = strPtr(ActionFinalize)
		}

		kind, err := choose(r.src, kindPtr, "Select an action that you want to add to the action:", actionOptions)
		if err != nil {
			return nil, SigningStrategy{}, wrapAction(i, err)
		}
		if kind == ActionFinalize {
			if i < len(in.Actions)-1 {
				r.warn(fmt.Sprintf("ignoring %d action(s) listed after finalize", len(in.Actions)-1-i))
			}
			signing, err := r.ResolveSigning(in.Signing)
			if err != nil {
				return nil, SigningStrategy{}, err
			}
			return actions, signing, nil
		}
		action, err := r.resolveAction(kind, entry)
		if err != nil {
			return nil, SigningStrategy{}, wrapAction(i, err)
		}
		actions = append(actions, action)
	}
}

func (r *Resolver) resolveAction(kind string, in ActionInput) (txn.Action, error) {
	switch kind {
	case ActionTransfer:
		deposit, err := field(r.src, in.Amount, "How many NEAR Tokens do you want to transfer? (example: 10NEAR)", r.parseAmount)
		if err != nil {
			return nil, err
		}
		r.noteFallback("transfer amount", deposit)
		return txn.Transfer{Deposit: deposit.BaseUnits}, nil
	case ActionCreateAccount:
		return txn.CreateAccount{}, nil
	case ActionDeleteAccount:
		beneficiary, err := field(r.src, in.BeneficiaryID, "Enter the beneficiary ID to delete this account ID", parseAccountID)
		if err != nil {
			return nil, err
		}
		return txn.DeleteAccount{BeneficiaryID: beneficiary}, nil
	case ActionAddAccessKey:
		pk, err := field(r.src, in.PublicKey, "Enter a public key for this access key", keys.ParsePublicKey)
		if err != nil {
			return nil, err
		}
		nonce, err := field(r.src, in.Nonce, "Enter the nonce for this access key", parseNonce)
		if err != nil {
			return nil, err
		}
		permission, err := r.ResolvePermission(in.Permission)
		if err != nil {
			return nil, err
		}
		return txn.AddKey{PublicKey: pk, AccessKey: txn.AccessKey{Nonce: nonce, Permission: permission}}, nil
	case ActionDeleteAccessKey:
		pk, err := field(r.src, in.PublicKey, "Enter the access key to remove it", keys.ParsePublicKey)
		if err != nil {
			return nil, err
		}
		return txn.DeleteKey{PublicKey: pk}, nil
	}
	return nil, invalid("action", fmt.Errorf("unknown action kind %q", kind))
}

// parseAmount reads a balance. Text that is neither base units nor NEAR is
// zero with Fallback set, unless the resolver is strict.
func (r *Resolver) parseAmount(v string) (id.Balance, error) {
	if r.strict {
		n, err := id.ParseNearBalanceStrict(v)
		return id.Balance{BaseUnits: n}, err
	}
	return id.ParseNearBalance(v)
}

func (r *Resolver) noteFallback(what string, bal id.Balance) {
	if bal.Fallback {
		r.warn(fmt.Sprintf("%s is neither base units nor NEAR; using 0 (pass --strict to reject)", what))
	}
}

func wrapAction(index int, err error) error {
	return fmt.Errorf("action %d: %w", index+1, err)
}
