// Package docs registers the OpenAPI description served at /swagger/.
// Regenerate with `swag init -g cmd/ordertaker/main.go` after changing the
// handler annotations in internal/transport/http.
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
        "/calls": {
            "post": {
                "description": "Opens a call session and returns the greeting to speak.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "Start a call",
                "parameters": [
                    {"description": "Optional call ID, caller and pacing", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/message.StartRequest"}}
                ],
                "responses": {
                    "201": {"description": "Greeting", "schema": {"$ref": "#/definitions/message.TurnResult"}},
                    "400": {"description": "Invalid request body", "schema": {"type": "string"}},
                    "409": {"description": "Call ID already in use", "schema": {"type": "string"}}
                }
            }
        },
        "/calls/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "Get a call's order",
                "parameters": [
                    {"type": "string", "description": "Call ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Current payload", "schema": {"$ref": "#/definitions/delivery.Payload"}},
                    "404": {"description": "Unknown call", "schema": {"type": "string"}}
                }
            },
            "delete": {
                "description": "Closes the call, forwards the payload to the webhook and returns it.",
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "End a call",
                "parameters": [
                    {"type": "string", "description": "Call ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Final payload", "schema": {"$ref": "#/definitions/delivery.Payload"}},
                    "404": {"description": "Unknown call", "schema": {"type": "string"}}
                }
            }
        },
        "/calls/{id}/dtmf": {
            "post": {
                "description": "1 menu, 2 drinks, 3 desserts, 4 wines, 0 goodbye.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "Send DTMF digits",
                "parameters": [
                    {"type": "string", "description": "Call ID", "name": "id", "in": "path", "required": true},
                    {"description": "Digits", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.DigitsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Next action", "schema": {"$ref": "#/definitions/message.TurnResult"}},
                    "400": {"description": "Invalid request", "schema": {"type": "string"}},
                    "404": {"description": "Unknown call", "schema": {"type": "string"}}
                }
            }
        },
        "/calls/{id}/turns": {
            "post": {
                "description": "Accepts a JSON turn with transcribed text, or raw audio bytes (audio/*) that are\ntranscribed first. Returns the assistant's next action.",
                "consumes": ["application/json", "audio/wav", "audio/ogg"],
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "Send a turn",
                "parameters": [
                    {"type": "string", "description": "Call ID", "name": "id", "in": "path", "required": true},
                    {"description": "Turn (JSON). For raw audio, POST the bytes with an audio Content-Type.", "name": "turn", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.Turn"}},
                    {"type": "string", "description": "customer or assistant (raw audio only)", "name": "X-Speaker", "in": "header"},
                    {"type": "string", "description": "normal, concise, detailed or auto (raw audio only)", "name": "X-Pacing", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "Next action", "schema": {"$ref": "#/definitions/message.TurnResult"}},
                    "400": {"description": "Invalid turn", "schema": {"type": "string"}},
                    "404": {"description": "Unknown call", "schema": {"type": "string"}},
                    "413": {"description": "Audio too large", "schema": {"type": "string"}},
                    "503": {"description": "Speech-to-text disabled", "schema": {"type": "string"}}
                }
            }
        },
        "/calls/{id}/ws": {
            "get": {
                "tags": ["calls"],
                "summary": "Stream turns over WebSocket",
                "parameters": [
                    {"type": "string", "description": "Call ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "101": {"description": "Switching protocols"},
                    "404": {"description": "Unknown call", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "delivery.Item": {
            "type": "object",
            "properties": {
                "item": {"type": "string"},
                "modifiers": {"type": "object", "additionalProperties": {"type": "string"}},
                "quantity": {"type": "integer"}
            }
        },
        "delivery.OrderDetails": {
            "type": "object",
            "properties": {
                "customer_name": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/delivery.Item"}},
                "pickup_time": {"type": "string"}
            }
        },
        "delivery.Payload": {
            "type": "object",
            "properties": {
                "call_id": {"type": "string"},
                "closed": {"type": "boolean"},
                "order_details": {"$ref": "#/definitions/delivery.OrderDetails"},
                "order_summary": {"type": "string"},
                "transcript": {"type": "array", "items": {"$ref": "#/definitions/delivery.Turn"}}
            }
        },
        "delivery.Turn": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "role": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "message.DigitsRequest": {
            "type": "object",
            "properties": {
                "call_id": {"type": "string"},
                "digits": {"type": "string"}
            }
        },
        "message.StartRequest": {
            "type": "object",
            "properties": {
                "call_id": {"type": "string"},
                "caller": {"type": "string"},
                "pacing": {"type": "string"}
            }
        },
        "message.Turn": {
            "type": "object",
            "properties": {
                "audio": {"type": "string", "format": "byte"},
                "call_id": {"type": "string"},
                "content_type": {"type": "string"},
                "pacing": {"type": "string"},
                "speaker": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "message.TurnResult": {
            "type": "object",
            "properties": {
                "action": {"$ref": "#/definitions/policy.Action"},
                "call_id": {"type": "string"},
                "closed": {"type": "boolean"},
                "error": {"type": "string"},
                "phase": {"type": "string"},
                "transcript": {"type": "string"}
            }
        },
        "policy.Action": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "item": {"type": "string"},
                "kind": {"type": "string"},
                "modifier": {"type": "string"},
                "text": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ordertaker API",
	Description:      "Call control for the Churrascaria Quitanda phone ordering assistant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
