package rule

// Cause classifies why a chain failed.
type Cause string

const (
	CauseNone           Cause = ""
	CauseRequiredAbsent Cause = "required, absent"
	CauseRuleFailed     Cause = "rule failed"
)

// Outcome is the result of evaluating a [Chain] against one cell.
type Outcome struct {
	// Coerced is the value produced by the last numeric rule that ran, or the
	// cell text when only text rules ran.
	Coerced any
	// Rule is the rule that decided the outcome: the failing rule, or the
	// last rule that ran when the chain passed. Nil when no rule ran.
	Rule    *Spec
	Cause   Cause
	Message string
	Pass    bool
}

// Chain is an ordered list of rules applied to one cell position.
type Chain []*Rule

// Specs returns the declarations of all rules in the chain.
func (c Chain) Specs() []Spec {
	specs := make([]Spec, 0, len(c))
	for _, r := range c {
		specs = append(specs, r.Spec())
	}

	return specs
}

// Evaluate applies the chain to the cell text. An empty text means the cell
// is absent.
//
// Rules run left to right. An optional rule meeting an absent cell is skipped
// and evaluation continues, so a later required rule still fails the chain.
// The first rule that runs and fails stops the chain.
func (c Chain) Evaluate(text string) Outcome {
	present := text != ""
	out := Outcome{Pass: true}

	for _, r := range c {
		spec := r.Spec()

		if !present {
			if r.Optional() {
				continue
			}

			return Outcome{
				Rule:    &spec,
				Cause:   CauseRequiredAbsent,
				Message: "required, absent",
			}
		}

		v, err := r.Check(text)
		if err != nil {
			return Outcome{
				Rule:    &spec,
				Cause:   CauseRuleFailed,
				Message: err.Error(),
			}
		}

		out.Rule = &spec
		if out.Coerced == nil || v != text {
			out.Coerced = v
		}
	}

	return out
}
