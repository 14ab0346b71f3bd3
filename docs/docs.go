// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Get corpus statistics",
                "responses": {
                    "200": {"description": "Aggregate statistics", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/stats/states": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Per-state coverage",
                "responses": {"200": {"description": "Coverage by state", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/stats/types": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Documents per classified type",
                "responses": {"200": {"description": "Counts by document type", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/stats/schemas": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Schema registry with success rates",
                "responses": {"200": {"description": "Schemas", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/runs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Recent processing runs",
                "parameters": [{"type": "integer", "default": 20, "description": "Number of runs (max 100)", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "Runs, newest first", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/reports/coverage.xlsx": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["stats"],
                "summary": "Download the coverage workbook",
                "responses": {"200": {"description": "XLSX workbook", "schema": {"type": "file"}}}
            }
        },
        "/documents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List normalized documents by jurisdiction",
                "parameters": [
                    {"type": "string", "description": "Two-letter state code", "name": "state_code", "in": "query"},
                    {"type": "string", "description": "Place name", "name": "place_name", "in": "query"},
                    {"type": "integer", "default": 0, "description": "Offset for pagination", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Limit for pagination (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Documents", "schema": {"$ref": "#/definitions/handler.PaginatedResponse"}}}
            }
        },
        "/documents/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a normalized document",
                "parameters": [{"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Normalized document", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "404": {"description": "Document not found", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/documents/{id}/state": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a document's processing state",
                "parameters": [{"type": "string", "description": "Content ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Processing state", "schema": {"$ref": "#/definitions/handler.Response"}}}
            }
        },
        "/documents/{id}/reprocess": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Reset a document so the next run processes it again",
                "parameters": [{"type": "string", "description": "Content ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Reset state", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/failures": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List permanently failed documents",
                "responses": {"200": {"description": "Failed documents", "schema": {"$ref": "#/definitions/handler.PaginatedResponse"}}}
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.PagMeta": {
            "type": "object",
            "properties": {"limit": {"type": "integer"}, "offset": {"type": "integer"}, "total": {"type": "integer"}}
        },
        "handler.Response": {
            "type": "object",
            "properties": {"data": {}, "success": {"type": "boolean", "example": true}}
        },
        "handler.PaginatedResponse": {
            "type": "object",
            "properties": {"data": {}, "meta": {"$ref": "#/definitions/handler.PagMeta"}, "success": {"type": "boolean", "example": true}}
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/handler.APIError"}, "success": {"type": "boolean", "example": false}}
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "lawnorm API",
	Description:      "Reporting and administration API for the municipal law normalization pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
