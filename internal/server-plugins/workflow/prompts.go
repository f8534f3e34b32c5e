package workflow

// PromptTemplate is a prompt body with one %s placeholder for the document.
type PromptTemplate struct {
	Name         string
	Description  string
	Template     string
	RequiredArgs []string
}

// ReviewPrompt walks the model through a migration review.
func ReviewPrompt() PromptTemplate {
	return PromptTemplate{
		Name:        "review_workflow",
		Description: "Review a workflow before migrating it",
		Template: `Please review the workflow at "%s" before it is migrated.

1. Call parse_workflow to learn its format, size and data sources.
2. Call validate_workflow and group the findings by severity. Explain every error and
   say whether it blocks the migration.
3. Call convert_workflow in the matching direction (a2o for Alteryx, o2a for ODI) and
   list every unmapped entity with the manual work it implies.
4. Point out hardcoded dates and servers. Suggest which nodes belong in a template rule
   so apply_template can move them to a new period or environment.

Finish with a short, prioritized checklist.`,
		RequiredArgs: []string{"path"},
	}
}
