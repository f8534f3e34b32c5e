package xmledit

import (
	"errors"
	"fmt"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

// Purpose of a rule target.
const (
	PurposeDate   = "date"
	PurposeServer = "server"
)

// RuleTargetNotFoundError reports a rule naming a node the document does not
// contain. It is never fatal to Apply.
type RuleTargetNotFoundError struct {
	ToolID  string
	Purpose string
}

func (e *RuleTargetNotFoundError) Error() string {
	return fmt.Sprintf("%s rule target %q not found in document", e.Purpose, e.ToolID)
}

func (e *RuleTargetNotFoundError) Unwrap() error {
	return workflow.ErrRuleTargetNotFound
}

// IsRuleTargetNotFound checks if an error is a RuleTargetNotFoundError
func IsRuleTargetNotFound(err error) bool {
	var target *RuleTargetNotFoundError
	return errors.As(err, &target)
}
