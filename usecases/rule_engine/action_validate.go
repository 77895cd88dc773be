package rule_engine

import (
	"github.com/gridforge/gridforge-backend/models"
)

// executeValidate reports on the asset without mutating it.
func (e *ActionExecutor) executeValidate(rule models.RuleDefinition, asset models.Asset,
) (models.RuleResult, error) {
	action := *rule.Action.Validate_

	severity := action.Severity
	if severity == "" {
		severity = models.ValidationSeverityWarning
	}

	outcome := models.OutcomeValidationWarn
	if severity == models.ValidationSeverityError {
		outcome = models.OutcomeValidationFail
	}

	return models.RuleResult{
		Outcome: outcome,
		Detail:  renderMessage(action.Message, asset),
	}, nil
}
