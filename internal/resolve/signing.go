package resolve

var signingOptions = []Option{
	{Key: string(SigningEmbedded), Label: "Yes, I want to sign the transaction with my private key"},
	{Key: string(SigningExternal), Label: "No, I want to construct the transaction and sign it somewhere else"},
}

// ResolveSigning resolves the terminal step of the chain. Key text is only
// checked for presence here.
func (r *Resolver) ResolveSigning(in *SigningInput) (SigningStrategy, error) {
	if in == nil {
		in = &SigningInput{}
	}
	strategy := in.Strategy
	if strategy == nil {
		switch {
		case in.PublicKey != nil || in.SecretKey != nil:
			strategy = strPtr(string(SigningEmbedded))
		case in.Reference != nil:
			strategy = strPtr(string(SigningExternal))
		}
	}
	kind, err := choose(r.src, strategy, "Would you like to sign the transaction?", signingOptions)
	if err != nil {
		return SigningStrategy{}, err
	}

	if SigningKind(kind) == SigningExternal {
		ref, err := field(r.src, in.Reference, "Enter the key chain", parseNonEmpty("key chain"))
		if err != nil {
			return SigningStrategy{}, err
		}
		return SigningStrategy{Kind: SigningExternal, Reference: ref}, nil
	}

	pub, err := field(r.src, in.PublicKey, "Enter sender's public key", parseNonEmpty("public key"))
	if err != nil {
		return SigningStrategy{}, err
	}
	secret, err := secretField(r.src, in.SecretKey, "Enter sender's private key", parseNonEmpty("secret key"))
	if err != nil {
		return SigningStrategy{}, err
	}
	return SigningStrategy{Kind: SigningEmbedded, PublicKey: pub, SecretKey: secret}, nil
}
