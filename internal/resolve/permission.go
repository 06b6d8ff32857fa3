package resolve

import (
	"errors"
	"strings"

	"github.com/ggonzalez94/neartx/internal/id"
	"github.com/ggonzalez94/neartx/internal/txn"
)

const (
	PermissionFunctionCall = "function-call"
	PermissionFullAccess   = "full-access"
)

var permissionOptions = []Option{
	{Key: PermissionFunctionCall, Label: "A permission with function call"},
	{Key: PermissionFullAccess, Label: "A permission with full access"},
}

func (r *Resolver) ResolvePermission(in *PermissionInput) (txn.Permission, error) {
	if in == nil {
		in = &PermissionInput{}
	}
	kindPtr := in.Kind
	if kindPtr == nil && (in.Allowance != nil || in.ReceiverID != nil || in.MethodNames != nil) {
		kindPtr = strPtr(PermissionFunctionCall)
	}
	kind, err := choose(r.src, kindPtr, "Select a permission that you want to add to the access key:", permissionOptions)
	if err != nil {
		return nil, err
	}
	if kind == PermissionFullAccess {
		return txn.FullAccess{}, nil
	}

	allowance, err := field(r.src, in.Allowance, "Enter an allowance for this access key (example: 10NEAR, blank for unlimited)", r.parseAllowance)
	if err != nil {
		return nil, err
	}
	receiver, err := field(r.src, in.ReceiverID, "Enter a receiver to use by this access key to pay for function call gas and transaction fees.", parseAccountID)
	if err != nil {
		return nil, err
	}
	methods, err := field(r.src, in.MethodNames, "Enter a comma-separated list of method names allowed for this access key (blank for any method)", parseMethodNames)
	if err != nil {
		return nil, err
	}
	fc := txn.FunctionCall{ReceiverID: receiver, MethodNames: methods}
	if allowance != nil {
		r.noteFallback("allowance", *allowance)
		fc.Allowance = allowance.BaseUnits
	}
	return fc, nil
}

// parseAllowance returns nil for an unlimited allowance.
func (r *Resolver) parseAllowance(v string) (*id.Balance, error) {
	clean := strings.TrimSpace(v)
	if clean == "" || strings.EqualFold(clean, "unlimited") {
		return nil, nil
	}
	bal, err := r.parseAmount(clean)
	if err != nil {
		return nil, err
	}
	return &bal, nil
}

func parseMethodNames(v string) ([]string, error) {
	return id.ParseMethodNames(v), nil
}

func parseNonEmpty(what string) func(string) (string, error) {
	return func(v string) (string, error) {
		clean := strings.TrimSpace(v)
		if clean == "" {
			return "", invalid(what, errors.New("must not be empty"))
		}
		return clean, nil
	}
}
