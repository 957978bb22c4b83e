package protocol

import "github.com/epiclabs-io/elastic"

// BoolResponse is the plain true/false result of authorize and submit calls.
type BoolResponse struct {
	Result bool
}

func NewBoolResponse(reply *Reply) (*BoolResponse, error) {
	br := &BoolResponse{}
	if err := reply.HasError(); err != nil {
		return nil, err
	}
	if reply.Result == nil {
		return br, nil
	}
	if err := elastic.Set(&br.Result, reply.Result); err != nil {
		return nil, err
	}
	return br, nil
}
