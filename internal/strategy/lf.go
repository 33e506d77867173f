package strategy

import (
	"fmt"
	"strings"

	"github.com/automenta/mcr/internal/mcrerrors"
)

// LFArgType is the closed set of LF argument kinds (GLOSSARY).
type LFArgType string

const (
	LFAtom     LFArgType = "atom"
	LFVariable LFArgType = "variable"
	LFNumber   LFArgType = "number"
	LFTerm     LFArgType = "term"
	LFList     LFArgType = "list"
)

// LFArg is one typed argument of an LF predicate.
type LFArg struct {
	Type     LFArgType `json:"type"`
	Value    string    `json:"value,omitempty"`
	Number   float64   `json:"number,omitempty"`
	Elements []LFArg   `json:"elements,omitempty"` // LFList only
	Term     *LFGoal   `json:"term,omitempty"`      // LFTerm only
}

// LFGoal is a predicate application, optionally negated.
type LFGoal struct {
	Predicate string  `json:"predicate"`
	Arguments []LFArg `json:"arguments"`
	Negated   bool    `json:"negated,omitempty"`
}

// LFClause is a fact (empty Body) or a rule (Head :- Body).
type LFClause struct {
	Head LFGoal   `json:"head"`
	Body []LFGoal `json:"body,omitempty"`
}

// LFToProlog converts a logical-form tree into Prolog clause strings.
// Invalid shapes (empty predicate name) raise INVALID_LF_STRUCTURE.
func LFToProlog(clauses []LFClause) ([]string, error) {
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		head, err := lfGoalText(c.Head)
		if err != nil {
			return nil, err
		}
		if len(c.Body) == 0 {
			out = append(out, head+".")
			continue
		}
		bodyParts := make([]string, 0, len(c.Body))
		for _, g := range c.Body {
			text, err := lfGoalText(g)
			if err != nil {
				return nil, err
			}
			bodyParts = append(bodyParts, text)
		}
		out = append(out, fmt.Sprintf("%s :- %s.", head, strings.Join(bodyParts, ", ")))
	}
	return out, nil
}

func lfGoalText(g LFGoal) (string, error) {
	if g.Predicate == "" {
		return "", mcrerrors.New(mcrerrors.InvalidLFStructure, "logical-form goal missing predicate")
	}
	var term string
	if len(g.Arguments) == 0 {
		term = g.Predicate
	} else {
		args := make([]string, len(g.Arguments))
		for i, a := range g.Arguments {
			text, err := lfArgText(a)
			if err != nil {
				return "", err
			}
			args[i] = text
		}
		term = fmt.Sprintf("%s(%s)", g.Predicate, strings.Join(args, ", "))
	}
	if g.Negated {
		return fmt.Sprintf("not(%s)", term), nil
	}
	return term, nil
}

func lfArgText(a LFArg) (string, error) {
	switch a.Type {
	case LFAtom:
		if isBareLowerAtom(a.Value) {
			return a.Value, nil
		}
		return "'" + strings.ReplaceAll(a.Value, "'", "\\'") + "'", nil
	case LFVariable:
		if a.Value == "" {
			return "", mcrerrors.New(mcrerrors.InvalidLFStructure, "logical-form variable missing name")
		}
		return a.Value, nil
	case LFNumber:
		return formatLFNumber(a.Number), nil
	case LFTerm:
		if a.Term == nil {
			return "", mcrerrors.New(mcrerrors.InvalidLFStructure, "logical-form term argument missing nested goal")
		}
		return lfGoalText(*a.Term)
	case LFList:
		elems := make([]string, len(a.Elements))
		for i, e := range a.Elements {
			text, err := lfArgText(e)
			if err != nil {
				return "", err
			}
			elems[i] = text
		}
		return "[" + strings.Join(elems, ", ") + "]", nil
	default:
		return "", mcrerrors.New(mcrerrors.InvalidLFStructure, fmt.Sprintf("unknown logical-form argument type %q", a.Type))
	}
}

func formatLFNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
