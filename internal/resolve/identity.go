package resolve

import "github.com/ggonzalez94/neartx/internal/id"

func (r *Resolver) ResolveSigner(in Input) (string, error) {
	return field(r.src, in.SignerID, "What is the account ID of the sender?", parseAccountID)
}

func (r *Resolver) ResolveReceiver(in Input) (string, error) {
	return field(r.src, in.ReceiverID, "What is the account ID of the receiver?", parseAccountID)
}

func parseAccountID(v string) (string, error) {
	return id.NormalizeAccountID(v)
}
