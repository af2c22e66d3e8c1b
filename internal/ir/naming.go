package ir

// NamingContext maps source-level local-variable names to the Idents
// pre-allocated for them, scoped per method by the Translator (one
// NamingContext's lifetime is a single method body). Mutated only during
// translation; read-only afterwards.
type NamingContext struct {
	idents map[string]Ident
}

// NewNamingContext creates an empty context.
func NewNamingContext() *NamingContext {
	return &NamingContext{idents: make(map[string]Ident)}
}

// IdentOfName returns the Ident bound to name, minting and recording a fresh
// one on first use.
func (n *NamingContext) IdentOfName(name string) Ident {
	if id, ok := n.idents[name]; ok {
		return id
	}
	id := NewIdent()
	n.idents[name] = id
	return id
}
