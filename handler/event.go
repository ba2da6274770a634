package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// Request is the transport-neutral view of an API Gateway event.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    string
	// BodyInvalid is set when the body could not be decoded from base64.
	BodyInvalid bool
}

// eventProbe holds just enough of a payload to tell v1 from v2 events.
type eventProbe struct {
	Version string `json:"version"`
	RawPath string `json:"rawPath"`
}

// HandleEvent is the Lambda entrypoint. It accepts both API Gateway REST
// (payload v1) and HTTP API (payload v2) events.
func (h *Handler) HandleEvent(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	req, err := decodeEvent(raw)
	if err != nil {
		// Undecodable events are answered as invalid bodies.
		req = Request{BodyInvalid: true}
	}
	return h.Dispatch(ctx, req), nil
}

// Handle serves an API Gateway REST (payload v1) event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.Dispatch(ctx, fromProxyRequest(event)), nil
}

func decodeEvent(raw json.RawMessage) (Request, error) {
	var probe eventProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Request{}, err
	}
	if probe.Version == "2.0" || probe.RawPath != "" {
		var v2 events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &v2); err != nil {
			return Request{}, err
		}
		return fromV2Request(v2), nil
	}
	var v1 events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &v1); err != nil {
		return Request{}, err
	}
	return fromProxyRequest(v1), nil
}

func fromProxyRequest(e events.APIGatewayProxyRequest) Request {
	method := e.RequestContext.HTTPMethod
	if method == "" {
		method = e.HTTPMethod
	}
	body, ok := decodeBody(e.Body, e.IsBase64Encoded)
	return Request{
		Method:      method,
		Path:        e.Path,
		Query:       e.QueryStringParameters,
		Headers:     e.Headers,
		Body:        body,
		BodyInvalid: !ok,
	}
}

func fromV2Request(e events.APIGatewayV2HTTPRequest) Request {
	body, ok := decodeBody(e.Body, e.IsBase64Encoded)
	return Request{
		Method:      e.RequestContext.HTTP.Method,
		Path:        e.RawPath,
		Query:       e.QueryStringParameters,
		Headers:     e.Headers,
		Body:        body,
		BodyInvalid: !ok,
	}
}

func decodeBody(body string, isBase64 bool) (string, bool) {
	if !isBase64 || body == "" {
		return body, true
	}
	b, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", false
	}
	return string(b), true
}
