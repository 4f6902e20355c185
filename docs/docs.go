// Package docs registers the OpenAPI document served under /swagger.
//
// The paths are produced from the handler annotations with
// `swag init -g cmd/server/main.go --v3.1`, which rewrites this file.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}",
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        }
    },
    "servers": [
        {"url": "//{{.Host}}{{.BasePath}}"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Administrator login",
                "operationId": "login",
                "requestBody": {
                    "required": true,
                    "content": {
                        "application/json": {
                            "schema": {
                                "type": "object",
                                "required": ["username", "password"],
                                "properties": {
                                    "username": {"type": "string"},
                                    "password": {"type": "string"}
                                }
                            }
                        }
                    }
                },
                "responses": {
                    "200": {"description": "Access token"},
                    "401": {"description": "Invalid credentials"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/crm/clients": {
            "get": {
                "tags": ["crm"],
                "summary": "List clients",
                "operationId": "listClients",
                "responses": {"200": {"description": "Clients ordered by id"}}
            },
            "post": {
                "tags": ["crm"],
                "summary": "Create a client",
                "operationId": "createClient",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate ID number"}
                }
            }
        },
        "/crm/summary": {
            "get": {
                "tags": ["crm-analytics"],
                "summary": "Portfolio summary for a month",
                "operationId": "crmSummary",
                "parameters": [
                    {"name": "month", "in": "query", "schema": {"type": "string", "example": "2024-05"}}
                ],
                "responses": {"200": {"description": "Totals by company and fund type"}}
            }
        },
        "/justification/clients/{id}/packet.pdf": {
            "get": {
                "tags": ["justification-documents"],
                "summary": "Client packet PDF",
                "operationId": "packetPdf",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "schema": {"type": "integer"}},
                    {"name": "generate", "in": "query", "schema": {"type": "boolean"}}
                ],
                "responses": {
                    "200": {"description": "PDF", "content": {"application/pdf": {}}},
                    "404": {"description": "Packet not found"}
                }
            }
        },
        "/admin/import-crm-excel": {
            "post": {
                "tags": ["admin"],
                "summary": "Import a CRM spreadsheet",
                "operationId": "importCrmExcel",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Import counts"}}
            }
        }
    },
    "components": {
        "securitySchemes": {
            "BearerAuth": {
                "type": "apiKey",
                "name": "Authorization",
                "in": "header",
                "description": "Bearer token authentication. Format: \"Bearer {token}\""
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Advisory Back-Office API",
	Description:      "Client CRM, portfolio snapshots and justification documents for a pension advisory office",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
