package domain

import "sort"

// Principal is the identity executing a chain. OpAuths holds the operation
// authorisation tokens used to pick insertion rules; it is read-only while a
// chain is being rewritten.
type Principal struct {
	UserID  string
	OpAuths map[string]struct{}
}

// AnonymousUserID is the user id given to unauthenticated principals.
const AnonymousUserID = "anonymous"

// NewPrincipal creates a principal with the given op auths.
func NewPrincipal(userID string, opAuths ...string) *Principal {
	p := &Principal{
		UserID:  userID,
		OpAuths: make(map[string]struct{}, len(opAuths)),
	}
	for _, a := range opAuths {
		p.OpAuths[a] = struct{}{}
	}
	return p
}

// Anonymous returns a principal with no op auths.
func Anonymous() *Principal {
	return NewPrincipal(AnonymousUserID)
}

// HasOpAuth reports whether the principal holds auth. A nil principal holds
// nothing.
func (p *Principal) HasOpAuth(auth string) bool {
	if p == nil {
		return false
	}
	_, ok := p.OpAuths[auth]
	return ok
}

// HasOpAuths reports whether the principal holds at least one op auth.
func (p *Principal) HasOpAuths() bool {
	return p != nil && len(p.OpAuths) > 0
}

// OpAuthList returns the op auths sorted, for logs and responses.
func (p *Principal) OpAuthList() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.OpAuths))
	for a := range p.OpAuths {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
