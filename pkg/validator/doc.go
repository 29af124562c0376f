// Package validator provides rule-based input validation with translatable
// error messages.
//
// A Rule pairs a check with the error reported when the check fails. Rules are
// evaluated together by Apply, which collects every failure into
// ValidationErrors:
//
//	err := validator.Apply(
//	    validator.RequiredString("email", cmd.Email),
//	    validator.ValidEmail("email", cmd.Email),
//	    validator.ValidCollisionResistantID("token", cmd.Token, 32),
//	)
//	if validator.IsValidationError(err) {
//	    // reject input
//	}
//
// Identifier rules deliberately distinguish collision-resistant ids from
// UUIDs: ValidCollisionResistantID rejects any value that parses as a UUID, so
// tokens minted by unrelated systems never pass format validation.
package validator
