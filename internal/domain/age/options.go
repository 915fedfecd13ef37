package age

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithPolicy sets the bare-number policy. Empty keeps the default.
func WithPolicy(policy Policy) Option {
	return func(p *Parser) {
		if policy != "" {
			p.policy = policy
		}
	}
}
