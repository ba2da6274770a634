package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"career-advisor/internal/domain"
)

const headerCorrelationID = "X-Correlation-Id"

type sessionsBody struct {
	Sessions []domain.SessionIndexEntry `json:"sessions"`
}

type historyBody struct {
	History []domain.Message `json:"history"`
}

type chatBody struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

type messageBody struct {
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "OPTIONS,POST,GET,DELETE",
		"Content-Type":                 "application/json",
	}
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(body),
	}
}

func errorResponse(status int, message string) events.APIGatewayProxyResponse {
	return jsonResponse(status, errorBody{Error: message})
}

func redirectResponse(location string) events.APIGatewayProxyResponse {
	resp := jsonResponse(http.StatusMovedPermanently, messageBody{Message: "Use DELETE " + location + " instead"})
	resp.Headers["Location"] = location
	return resp
}
