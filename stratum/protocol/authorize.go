package protocol

type Authorize struct {
	*Method
}

func NewAuthorize(user, pass string) *Authorize {
	return &Authorize{NewMethod("mining.authorize", user, pass)}
}
