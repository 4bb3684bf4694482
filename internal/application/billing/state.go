package billing

// Failure codes carried by message-only states
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeCreateFailed     = "CREATE_FAILED"
	CodeUpdateFailed     = "UPDATE_FAILED"
	CodeDeleteFailed     = "DELETE_FAILED"
)

// Fixed user-facing outcomes
const (
	MessageCreateFailed = "Database Error: Failed to create Invoice."
	MessageUpdateFailed = "Database Error: Failed to update Invoice."
	MessageDeleteFailed = "Database Error: Failed to delete invoice."
	MessageDeleted      = "Deleted Invoice."
)

// InvoicesPath is where the caller navigates after a successful create or update
const InvoicesPath = "/dashboard/invoices"

// State is the outcome of a mutation as shown to the user. Exactly one of
// three shapes is produced: field errors with an overall message, a failure
// message with a code, or success (optionally with a message or redirect).
type State struct {
	Errors     FieldErrors `json:"errors,omitempty"`
	Message    string      `json:"message,omitempty"`
	RedirectTo string      `json:"redirect,omitempty"`
	Code       string      `json:"code,omitempty"`
}

// FieldErrorState reports invalid fields
func FieldErrorState(errs FieldErrors, op Operation) State {
	return State{Errors: errs, Message: op.missingFieldsMessage(), Code: CodeValidationFailed}
}

// MessageState reports a failure with no field detail
func MessageState(code, message string) State {
	return State{Code: code, Message: message}
}

// SuccessState reports success and where to navigate next
func SuccessState(redirectTo string) State {
	return State{RedirectTo: redirectTo}
}

// IsFieldError reports whether the form had invalid fields
func (s State) IsFieldError() bool {
	return len(s.Errors) > 0
}

// IsFailure reports a failure carrying only a message
func (s State) IsFailure() bool {
	return len(s.Errors) == 0 && s.Code != ""
}

// IsSuccess reports whether the mutation was applied
func (s State) IsSuccess() bool {
	return len(s.Errors) == 0 && s.Code == ""
}
