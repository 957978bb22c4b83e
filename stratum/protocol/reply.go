package protocol

import (
	"errors"
	"fmt"
)

type Reply struct {
	Method
	Result interface{}   `json:"result"`
	Error  []interface{} `json:"error"`
}

func (r *Reply) IsMethod() bool {
	return r.Method.MethodName != ""
}

// HasError converts a stratum [code, message, data] error triple into an error.
func (r *Reply) HasError() error {
	if len(r.Error) == 0 {
		return nil
	}
	if len(r.Error) < 2 {
		return fmt.Errorf("stratum error %v", r.Error)
	}
	if errorText, ok := r.Error[1].(string); !ok {
		return errors.New("unknown error")
	} else {
		return errors.New(errorText)
	}
}
