package resolve

import (
	"github.com/ethereum/go-ethereum/log"
)

// Networks is what the endpoint resolver may offer.
type Networks struct {
	// Allowed restricts selectable networks. Empty allows all.
	Allowed []string
	// RPCURLs overrides the built-in endpoint per network name.
	RPCURLs map[string]string
}

type Resolver struct {
	src      ValueSource
	networks Networks
	strict   bool
	warnings []string
}

func NewResolver(src ValueSource, networks Networks, strict bool) *Resolver {
	return &Resolver{src: src, networks: networks, strict: strict}
}

// Resolve builds a plan in the fixed order mode, signer, receiver, actions.
func (r *Resolver) Resolve(in Input) (Plan, error) {
	r.warnings = nil
	mode, err := r.ResolveMode(in)
	if err != nil {
		return Plan{}, err
	}
	signer, err := r.ResolveSigner(in)
	if err != nil {
		return Plan{}, err
	}
	receiver, err := r.ResolveReceiver(in)
	if err != nil {
		return Plan{}, err
	}
	actions, signing, err := r.ResolveActions(in)
	if err != nil {
		return Plan{}, err
	}
	log.Debug("Resolved plan", "mode", mode.Kind, "signer", signer, "receiver", receiver, "actions", len(actions), "signing", signing.Kind)
	return Plan{
		Mode:       mode,
		SignerID:   signer,
		ReceiverID: receiver,
		Actions:    actions,
		Signing:    signing,
		Warnings:   r.warnings,
	}, nil
}

func (r *Resolver) warn(msg string) {
	log.Warn(msg)
	r.warnings = append(r.warnings, msg)
}
