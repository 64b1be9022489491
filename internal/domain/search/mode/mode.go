package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses the semantic and lexical channels.
	Hybrid   Mode = "hybrid"
	Semantic Mode = "semantic"
	Lexical  Mode = "lexical"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Lexical
}

// UsesSemantic reports whether the mode may query the semantic channel.
func (m Mode) UsesSemantic() bool { return m == Hybrid || m == Semantic }

// UsesLexical reports whether the mode may query the lexical channel.
func (m Mode) UsesLexical() bool { return m == Hybrid || m == Lexical }
