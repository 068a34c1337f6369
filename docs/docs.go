// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "data contains token and token_type"}}}
        },
        "/events": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Create a new event", "responses": {"201": {"description": "data contains the created event"}}}
        },
        "/events/{slug}": {
            "get": {"tags": ["events"], "summary": "Get an event", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"200": {"description": "data contains the event aggregate"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Delete an event", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"204": {"description": "no content"}}}
        },
        "/events/{slug}/role": {
            "post": {"tags": ["events"], "summary": "Host, attend or leave an event", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"200": {"description": "data contains messages, final role flags and the event aggregate"}, "400": {"description": "error.code: bad_request"}}}
        },
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users in a segment", "responses": {"200": {"description": "data contains items and pagination"}}}
        },
        "/emails/send": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["emails"], "summary": "Send an email to a user segment", "responses": {"200": {"description": "data contains sent_count, recipients_count and message"}}}
        },
        "/send-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["emails"], "summary": "List send logs", "responses": {"200": {"description": "data contains items and pagination"}}}
        },
        "/attributions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["attributions"], "summary": "List attribution records", "responses": {"200": {"description": "data contains items and pagination"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event CRM API",
	Description:      "Event participation, user segments and bulk email for the community CRM.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
