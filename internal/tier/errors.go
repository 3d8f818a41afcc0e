package tier

import "fmt"

// TemplateError reports a structurally invalid schema or tier template.
// This is a configuration defect: the operation that hit it was not applied.
type TemplateError struct {
	Tier    int    // offending tier level, 0 if schema-wide
	Section string // offending section key or title, if any
	Reason  string
}

func (e *TemplateError) Error() string {
	switch {
	case e.Tier != 0 && e.Section != "":
		return fmt.Sprintf("invalid template: tier %d, section %q: %s", e.Tier, e.Section, e.Reason)
	case e.Tier != 0:
		return fmt.Sprintf("invalid template: tier %d: %s", e.Tier, e.Reason)
	default:
		return "invalid template: " + e.Reason
	}
}

// InvalidTransitionError reports a tier expansion request that is not
// exactly one level above the document's recorded tier (or, with force, a
// downgrade to an existing lower tier). Not retryable without changing the
// request.
type InvalidTransitionError struct {
	Current   int
	Requested int
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid tier transition %d -> %d: %s", e.Current, e.Requested, e.Reason)
}
