package protocol

const UserAgent = "goaxeminer/0.1.0"

type Subscribe struct {
	*Method
}

func NewSubscribe() *Subscribe {
	return &Subscribe{NewMethod("mining.subscribe", UserAgent)}
}
