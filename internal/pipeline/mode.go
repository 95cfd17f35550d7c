package pipeline

// Mode is the externally supplied build mode. Only "prod" and "dev" carry
// meaning; every other value, including the empty string, is a development
// build that is not explicitly "dev".
type Mode string

const (
	ModeProd Mode = "prod"
	ModeDev  Mode = "dev"
)

// IsProd reports whether minification should be enabled for app bundles.
func (m Mode) IsProd() bool {
	return m == ModeProd
}

// IsDev reports whether the mode is exactly "dev".
func (m Mode) IsDev() bool {
	return m == ModeDev
}

func (m Mode) String() string {
	if m == "" {
		return "unset"
	}
	return string(m)
}
