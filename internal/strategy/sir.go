package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

// SIRStatement is a Structured Intermediate Representation statement:
// {statementType: "fact", fact: {...}} or {statementType: "rule", rule: {...}}
// (GLOSSARY). Unrecognized statementType values (e.g. "comment") yield zero
// clauses, never an error.
type SIRStatement struct {
	StatementType string   `json:"statementType"`
	Fact          *SIRFact `json:"fact,omitempty"`
	Rule          *SIRRule `json:"rule,omitempty"`
}

// SIRFact is a single predicate/arguments pair.
type SIRFact struct {
	Predicate string   `json:"predicate"`
	Arguments []string `json:"arguments"`
}

// SIRRule is a head fact plus an ordered list of body goals.
type SIRRule struct {
	Head SIRFact   `json:"head"`
	Body []SIRFact `json:"body"`
}

// SIRToProlog converts one or more SIR statements into Prolog clause
// strings, each ending with ".". Unknown statement types contribute
// nothing to the output.
func SIRToProlog(statements []SIRStatement) []string {
	clauses := make([]string, 0, len(statements))
	for _, st := range statements {
		switch st.StatementType {
		case "fact":
			if st.Fact == nil {
				continue
			}
			clauses = append(clauses, sirFactText(*st.Fact)+".")
		case "rule":
			if st.Rule == nil {
				continue
			}
			bodyParts := make([]string, 0, len(st.Rule.Body))
			for _, g := range st.Rule.Body {
				bodyParts = append(bodyParts, sirFactText(g))
			}
			clauses = append(clauses, fmt.Sprintf("%s :- %s.", sirFactText(st.Rule.Head), strings.Join(bodyParts, ", ")))
		default:
			// comment or unrecognized type: nothing to assert.
		}
	}
	return clauses
}

func sirFactText(f SIRFact) string {
	if len(f.Arguments) == 0 {
		return f.Predicate
	}
	args := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = sirQuoteAtomIfNeeded(a)
	}
	return fmt.Sprintf("%s(%s)", f.Predicate, strings.Join(args, ", "))
}

// sirQuoteAtomIfNeeded quotes an argument that is not already a number,
// variable (leading uppercase or underscore, then only letters, digits and
// underscores), or bare lowercase atom.
func sirQuoteAtomIfNeeded(arg string) string {
	if arg == "" {
		return "''"
	}
	if _, err := strconv.ParseFloat(arg, 64); err == nil {
		return arg
	}
	first := arg[0]
	if first == '_' || (first >= 'A' && first <= 'Z') {
		isVar := true
		for i := 1; i < len(arg); i++ {
			c := arg[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
				isVar = false
				break
			}
		}
		if isVar {
			return arg // variable
		}
	}
	if isBareLowerAtom(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", "\\'") + "'"
}

func isBareLowerAtom(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}
