package myhttpclient

import "context"

//go:generate mockgen -source=api.go -package myhttpclient -destination httpclient_mock.go HTTPSender
type HTTPSender interface {
	Send(ctx context.Context, method string, url string, headers map[string]string, body []byte) (int, []byte, error)
}

func New(name string) HTTPSender {
	return newJSONHTTPClient(name)
}
