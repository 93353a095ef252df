package core

// Environment selects the runtime profile of the service.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps a raw value, including the common short forms,
// onto a known environment. Unrecognised values resolve to Development.
func ParseEnvironment(v string) Environment {
	switch v {
	case "production", "prod":
		return Production
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
