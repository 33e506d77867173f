package prompt

// Default template names the Service's built-in pipelines call by name
// (spec.md §4.4). Strategy authors and the Service reference these
// constants rather than hand-typing the strings.
const (
	LogicToNLAnswer     = "LOGIC_TO_NL_ANSWER"
	LogicTraceToNL      = "LOGIC_TRACE_TO_NL"
	ExplainPrologQuery  = "EXPLAIN_PROLOG_QUERY"
	RulesToNLDirect     = "RULES_TO_NL_DIRECT"
	NLToSIRAssert       = "NL_TO_SIR_ASSERT"
	NLToPrologQuery     = "NL_TO_PROLOG_QUERY"
	RefineInvalidClause = "REFINE_INVALID_CLAUSE"
)

// DefaultTemplates returns the built-in prompt set the Service relies on
// when no on-disk override is configured. RegisterDefaults loads them into
// a Registry; callers may still LoadDir afterward to override any of them.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:   LogicToNLAnswer,
			System: "You turn Prolog query results into a direct, natural-language answer. Do not invent facts beyond what the results state.",
			User: "Question: {{naturalLanguageQuestion}}\n" +
				"Prolog results (JSON): {{prologResultsJSON}}\n" +
				"Answer style: {{style}}\n" +
				"Write the answer to the question using only the results above.",
		},
		{
			Name:   LogicTraceToNL,
			System: "You explain a Prolog proof tree to a non-technical reader, step by step, without Prolog jargon.",
			User: "Question: {{naturalLanguageQuestion}}\n" +
				"Proof tree (JSON): {{proofTreeJSON}}\n" +
				"Explain how the answer was derived.",
		},
		{
			Name:   ExplainPrologQuery,
			System: "You explain what a generated Prolog query will ask and what kind of answer to expect, for a user who does not know Prolog.",
			User: "Original question: {{naturalLanguageQuestion}}\n" +
				"Generated query: {{prologQuery}}\n" +
				"Known facts:\n{{sessionFacts}}\n" +
				"Known rules:\n{{ontologyRules}}\n" +
				"Explain the query in plain language.",
		},
		{
			Name:   RulesToNLDirect,
			System: "You translate Prolog rules and facts into clear natural-language statements.",
			User: "Style: {{style}}\n" +
				"Rules:\n{{rules}}\n" +
				"Write the natural-language equivalent.",
		},
		{
			Name:   NLToSIRAssert,
			System: "You convert a natural-language assertion into a JSON array of structured fact/rule statements (SIR). Reuse existing predicates from the lexicon where they already express the same meaning.",
			User: "Known predicates: {{lexiconSummary}}\n" +
				"Known facts:\n{{existingFacts}}\n" +
				"Ontology rules:\n{{ontologyRules}}\n" +
				"Statement: {{naturalLanguageText}}\n" +
				"Respond with only the JSON array of SIR statements.",
		},
		{
			Name:   NLToPrologQuery,
			System: "You convert a natural-language question into a single Prolog query goal ending with a period. Reuse existing predicates from the lexicon.",
			User: "Known predicates: {{lexiconSummary}}\n" +
				"Known facts:\n{{existingFacts}}\n" +
				"Question: {{naturalLanguageQuestion}}\n" +
				"Respond with only the Prolog query.",
		},
		{
			Name:   RefineInvalidClause,
			System: "You fix a single Prolog clause that a reasoner rejected, returning a corrected clause and nothing else.",
			User: "Rejected clause: {{clause}}\n" +
				"Reasoner error: {{error}}\n" +
				"Known predicates: {{lexiconSummary}}\n" +
				"Respond with only the corrected clause, ending with a period.",
		},
	}
}

// RegisterDefaults loads DefaultTemplates into r.
func RegisterDefaults(r *Registry) {
	for _, t := range DefaultTemplates() {
		r.Register(t)
	}
}
