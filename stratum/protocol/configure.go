package protocol

const DefaultVersionRollingMask = "ffffffff"

type Configure struct {
	*Method
}

func NewConfigure() *Configure {
	return &Configure{NewMethod(
		"mining.configure",
		[]interface{}{"version-rolling"},
		map[string]string{"version-rolling.mask": DefaultVersionRollingMask},
	)}
}
