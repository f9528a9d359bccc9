package port

// Validator checks struct rules and returns a *domain.ValidationError on failure.
type Validator interface {
	Validate(s any) error
}
