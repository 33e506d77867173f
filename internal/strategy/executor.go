package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/mcrerrors"
)

// LLMResponse is the LLM Adapter's generate() contract (spec.md §6). A nil
// Text is a valid response meaning "empty", distinct from a returned error.
type LLMResponse struct {
	Text *string
	Cost map[string]any
}

// LLMPort is the subset of the LLM Adapter the Executor calls.
type LLMPort interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, options map[string]any) (*LLMResponse, error)
}

// ReasonerPort is the subset of the Reasoner Adapter the Executor calls.
type ReasonerPort interface {
	Validate(ctx context.Context, knowledgeBase string) (valid bool, errMsg string)
}

// Executor is a single-threaded interpreter of strategy DAGs (spec.md §4.2).
// Node execution is strictly sequential; no intra-strategy parallelism.
type Executor struct {
	llm      LLMPort
	reasoner ReasonerPort
}

// NewExecutor builds an Executor bound to the given adapters.
func NewExecutor(llm LLMPort, reasoner ReasonerPort) *Executor {
	return &Executor{llm: llm, reasoner: reasoner}
}

// Run executes s starting at its entry node (the node with no incoming
// edge) and returns the value bound to s.ResultVariable once execution
// reaches a terminal node (a node with no outgoing edge and no branch
// taken).
func (e *Executor) Run(ctx context.Context, s *Strategy, initial map[string]any) (any, error) {
	state := make(map[string]any, len(initial)+len(s.Nodes))
	for k, v := range initial {
		state[k] = v
	}

	current := entryNode(s)
	if current == nil {
		return nil, mcrerrors.New(mcrerrors.InvalidStrategyNode, "strategy has no entry node")
	}

	maxSteps := (len(s.Nodes) + 1) * 4 // guards against a malformed cyclic definition
	for step := 0; ; step++ {
		if step > maxSteps {
			return nil, mcrerrors.New(mcrerrors.StrategyExecutionError, "strategy exceeded maximum step count, possible cycle")
		}
		if err := ctx.Err(); err != nil {
			return nil, mcrerrors.Wrap(mcrerrors.Cancelled, "strategy execution cancelled", err)
		}

		nextID, err := e.execNode(ctx, s, current, state)
		if err != nil {
			return nil, wrapNodeError(s, current, err)
		}
		if nextID == "" {
			break
		}
		next := s.nodeByID(nextID)
		if next == nil {
			return nil, wrapNodeError(s, current, fmt.Errorf("branch target %q does not exist", nextID))
		}
		current = next
	}

	return state[s.ResultVariable], nil
}

func wrapNodeError(s *Strategy, n *Node, cause error) error {
	logging.StrategyDebug("node %s (%s) in strategy %s failed: %v", n.ID, n.Type, s.ID, cause)
	if me, ok := cause.(*mcrerrors.Error); ok && me.Code == mcrerrors.Cancelled {
		return cause
	}
	return mcrerrors.Wrap(mcrerrors.StrategyExecutionError,
		fmt.Sprintf("node %s (type %s) in strategy %s failed", n.ID, n.Type, s.ID), cause).
		WithDetails(cause.Error())
}

// entryNode returns the node with no incoming edge. Declaration order
// breaks ties so two otherwise-valid entry candidates resolve
// deterministically.
func entryNode(s *Strategy) *Node {
	hasIncoming := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		hasIncoming[e.To] = true
	}
	for i := range s.Nodes {
		if !hasIncoming[s.Nodes[i].ID] {
			return &s.Nodes[i]
		}
	}
	return nil
}

// outgoingTarget returns the single node this node's normal (non-branch)
// edge points to, or "" if it is terminal.
func outgoingTarget(s *Strategy, n *Node) string {
	for _, e := range s.Edges {
		if e.From == n.ID {
			return e.To
		}
	}
	return ""
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// resolvePlaceholders substitutes every {{varName}} occurrence in tmpl with
// the string form of the matching execution-state value.
func resolvePlaceholders(tmpl string, state map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := state[name]
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "\n")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func paramString(n *Node, key string) string {
	v, ok := n.Params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func inputVariable(n *Node) (string, error) {
	name := paramString(n, "input_variable")
	if name == "" {
		return "", mcrerrors.New(mcrerrors.InvalidStrategyNode, "node missing required param \"input_variable\"")
	}
	return name, nil
}

// execNode runs a single node and returns the next node ID to execute, or
// "" for a terminal node.
func (e *Executor) execNode(ctx context.Context, s *Strategy, n *Node, state map[string]any) (string, error) {
	switch n.Type {
	case NodeLLMCall:
		return outgoingTarget(s, n), e.runLLMCall(ctx, n, state)
	case NodeParseJSON:
		return outgoingTarget(s, n), runParseJSON(n, state)
	case NodeExtractPrologQuery:
		return outgoingTarget(s, n), runExtractPrologQuery(n, state)
	case NodeSIRToProlog:
		return outgoingTarget(s, n), runSIRToProlog(n, state)
	case NodeLFToProlog:
		return outgoingTarget(s, n), runLFToProlog(n, state)
	case NodeConditionalRouter:
		return runConditionalRouter(n, state)
	case NodeValidateProlog:
		return outgoingTarget(s, n), e.runValidateProlog(ctx, n, state)
	default:
		return "", mcrerrors.New(mcrerrors.InvalidStrategyNode, fmt.Sprintf("unknown node type %q", n.Type))
	}
}

func (e *Executor) runLLMCall(ctx context.Context, n *Node, state map[string]any) error {
	system := resolvePlaceholders(paramString(n, "system"), state)
	user := resolvePlaceholders(paramString(n, "user"), state)

	options, _ := n.Params["options"].(map[string]any)
	resp, err := e.llm.Generate(ctx, system, user, options)
	if err != nil {
		return err
	}
	if n.OutputVariable != "" {
		if resp.Text == nil {
			state[n.OutputVariable] = nil
		} else {
			state[n.OutputVariable] = *resp.Text
		}
	}
	if costVar := paramString(n, "cost_variable"); costVar != "" {
		state[costVar] = resp.Cost
	}
	return nil
}

func runParseJSON(n *Node, state map[string]any) error {
	inVar, err := inputVariable(n)
	if err != nil {
		return err
	}
	raw, _ := state[inVar].(string)

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return mcrerrors.Wrap(mcrerrors.JSONParsingFailed, fmt.Sprintf("node %s failed to parse JSON", n.ID), err)
	}
	if n.OutputVariable != "" {
		state[n.OutputVariable] = parsed
	}
	return nil
}

func runExtractPrologQuery(n *Node, state map[string]any) error {
	inVar, err := inputVariable(n)
	if err != nil {
		return err
	}
	v, ok := state[inVar]
	if !ok {
		return mcrerrors.New(mcrerrors.InvalidNodeInput, fmt.Sprintf("node %s: input %q not found in execution state", n.ID, inVar))
	}
	s, ok := v.(string)
	if !ok {
		return mcrerrors.New(mcrerrors.InvalidNodeInput, fmt.Sprintf("node %s: input %q is not a string", n.ID, inVar))
	}
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasSuffix(s, ".") {
		s += "."
	}
	if n.OutputVariable != "" {
		state[n.OutputVariable] = s
	}
	return nil
}

func runSIRToProlog(n *Node, state map[string]any) error {
	inVar, err := inputVariable(n)
	if err != nil {
		return err
	}
	statements, err := coerceSIRStatements(state[inVar])
	if err != nil {
		return err
	}
	if n.OutputVariable != "" {
		state[n.OutputVariable] = SIRToProlog(statements)
	}
	return nil
}

func coerceSIRStatements(v any) ([]SIRStatement, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, mcrerrors.Wrap(mcrerrors.JSONParsingFailed, "failed to re-marshal SIR input", err)
	}
	var one SIRStatement
	if err := json.Unmarshal(b, &one); err == nil && one.StatementType != "" {
		return []SIRStatement{one}, nil
	}
	var many []SIRStatement
	if err := json.Unmarshal(b, &many); err != nil {
		return nil, mcrerrors.Wrap(mcrerrors.JSONParsingFailed, "SIR input is neither a statement nor an array of statements", err)
	}
	return many, nil
}

func runLFToProlog(n *Node, state map[string]any) error {
	inVar, err := inputVariable(n)
	if err != nil {
		return err
	}
	clauses, err := coerceLFClauses(state[inVar])
	if err != nil {
		return err
	}
	result, err := LFToProlog(clauses)
	if err != nil {
		return err
	}
	if n.OutputVariable != "" {
		state[n.OutputVariable] = result
	}
	return nil
}

func coerceLFClauses(v any) ([]LFClause, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, mcrerrors.New(mcrerrors.InvalidLFStructure, "failed to re-marshal logical-form input")
	}
	var one LFClause
	if err := json.Unmarshal(b, &one); err == nil && one.Head.Predicate != "" {
		return []LFClause{one}, nil
	}
	var many []LFClause
	if err := json.Unmarshal(b, &many); err != nil {
		return nil, mcrerrors.New(mcrerrors.InvalidLFStructure, "logical-form input is neither a clause nor an array of clauses")
	}
	return many, nil
}

func runConditionalRouter(n *Node, state map[string]any) (string, error) {
	inVar, err := inputVariable(n)
	if err != nil {
		return "", err
	}
	obj, _ := state[inVar].(map[string]any)

	for _, branch := range n.Branches {
		if branch.Condition.PropertyExists != "" {
			if _, ok := obj[branch.Condition.PropertyExists]; ok {
				return branch.Target, nil
			}
			continue
		}
		if branch.Condition.Default {
			return branch.Target, nil
		}
	}
	return "", mcrerrors.New(mcrerrors.InvalidStrategyNode, fmt.Sprintf("node %s: no branch matched and no default branch defined", n.ID))
}

func (e *Executor) runValidateProlog(ctx context.Context, n *Node, state map[string]any) error {
	inVar, err := inputVariable(n)
	if err != nil {
		return err
	}
	kb, _ := state[inVar].(string)

	valid, errMsg := e.reasoner.Validate(ctx, kb)
	result := map[string]any{"valid": valid}
	if errMsg != "" {
		result["error"] = errMsg
	}
	if n.OutputVariable != "" {
		state[n.OutputVariable] = result
	}
	return nil
}
