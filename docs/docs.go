// Package docs holds the OpenAPI description served under /swagger.
// It mirrors the handler annotations; `swag init -g cmd/aging-api/main.go`
// rewrites it from them.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sessions": {
            "get": {
                "description": "Stored sessions, newest first. Without a history store only live sessions are listed.",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.SessionRecord"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Reads an XLSX or CSV file, validates its columns and opens a dashboard session",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Upload an aging sheet",
                "parameters": [
                    {"type": "file", "description": "Aging sheet", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.UploadResponse"}},
                    "400": {"description": "Unreadable file or missing columns", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "description": "Live session state, or the stored record of a closed session",
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Info"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Close session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/dashboard": {
            "get": {
                "description": "Cards, chart proportions and breakdown tables for the current selection",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "currency or millions", "name": "format", "in": "query"},
                    {"type": "string", "description": "Comma separated breakdown columns", "name": "group", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Dashboard"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/export.csv": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["export"],
                "summary": "Export CSV",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/export.xlsx": {
            "get": {
                "description": "On failure the response is 409 with a warning pointing to the CSV export",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["export"],
                "summary": "Export XLSX",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Workbook could not be generated", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/filters": {
            "get": {
                "description": "Distinct values of every categorical column, each list starting with \"All\", plus the current selection",
                "produces": ["application/json"],
                "tags": ["filters"],
                "summary": "Filter options",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/session.FilterOption"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["filters"],
                "summary": "Set filter",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Column and value", "name": "filter", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FilterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/session.FilterOption"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Returns every filter to \"All\" and clears the chart selection",
                "produces": ["application/json"],
                "tags": ["filters"],
                "summary": "Reset filters",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/session.FilterOption"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/rows": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Filtered rows",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page size (default 100, max 1000)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Rows to skip", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Page"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/segment": {
            "post": {
                "description": "Maps a segment label to its bucket; rows are then restricted to a positive value in that bucket. Unknown labels clear the selection.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Select chart segment",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"description": "Segment label", "name": "segment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SegmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SegmentResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "csv_url": {"type": "string"},
                "detail": {"type": "string"},
                "error": {"type": "string"},
                "missing": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.FilterRequest": {
            "type": "object",
            "required": ["column", "value"],
            "properties": {
                "column": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "handler.SegmentRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"}
            }
        },
        "handler.SegmentResponse": {
            "type": "object",
            "properties": {
                "active_bucket": {"type": "string"}
            }
        },
        "handler.UploadResponse": {
            "type": "object",
            "properties": {
                "coercions": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Coercion"}},
                "layout": {"type": "string"},
                "rows": {"type": "integer"},
                "session_id": {"type": "string"},
                "zeroed_cells": {"type": "integer"}
            }
        },
        "model.Card": {
            "type": "object",
            "properties": {
                "column": {"type": "string"},
                "formatted": {"type": "string"},
                "label": {"type": "string"},
                "total": {"type": "number"}
            }
        },
        "model.Config": {
            "type": "object",
            "properties": {
                "active_bucket": {"type": "string"},
                "filters": {"type": "object", "additionalProperties": {"type": "string"}},
                "group_by": {"type": "array", "items": {"type": "string"}},
                "metrics_scope": {"type": "string"}
            }
        },
        "model.Slice": {
            "type": "object",
            "properties": {
                "column": {"type": "string"},
                "label": {"type": "string"},
                "proportion": {"type": "number"},
                "value": {"type": "number"}
            }
        },
        "pipeline.Coercion": {
            "type": "object",
            "properties": {
                "column": {"type": "string"},
                "locale_applied": {"type": "boolean"},
                "zeroed": {"type": "integer"}
            }
        },
        "session.BreakdownRow": {
            "type": "object",
            "properties": {
                "display": {"type": "string"},
                "formatted": {"type": "string"},
                "group_key": {"type": "string"},
                "group_value": {"type": "string"},
                "millions": {"type": "number"},
                "record_count": {"type": "integer"},
                "total": {"type": "number"}
            }
        },
        "session.Dashboard": {
            "type": "object",
            "properties": {
                "base_rows": {"type": "integer"},
                "breakdowns": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/session.BreakdownRow"}}},
                "cards": {"type": "array", "items": {"$ref": "#/definitions/model.Card"}},
                "chart": {"type": "array", "items": {"$ref": "#/definitions/model.Slice"}},
                "config": {"$ref": "#/definitions/model.Config"},
                "filtered_rows": {"type": "integer"},
                "format": {"type": "string"},
                "grand_total": {"type": "number"},
                "grand_total_formatted": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "session.FilterOption": {
            "type": "object",
            "properties": {
                "column": {"type": "string"},
                "label": {"type": "string"},
                "selected": {"type": "string"},
                "values": {"type": "array", "items": {"type": "string"}}
            }
        },
        "session.Info": {
            "type": "object",
            "properties": {
                "coercions": {"type": "array", "items": {"$ref": "#/definitions/pipeline.Coercion"}},
                "config": {"$ref": "#/definitions/model.Config"},
                "created_at": {"type": "string"},
                "format": {"type": "string"},
                "id": {"type": "string"},
                "last_access": {"type": "string"},
                "layout": {"type": "string"},
                "rows": {"type": "integer"},
                "source_name": {"type": "string"},
                "zeroed_cells": {"type": "integer"}
            }
        },
        "session.Page": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "rows": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
                "total": {"type": "integer"}
            }
        },
        "store.SessionRecord": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "layout": {"type": "string"},
                "row_count": {"type": "integer"},
                "source_name": {"type": "string"},
                "status": {"type": "string"},
                "updated_at": {"type": "string"},
                "zeroed_cells": {"type": "integer"}
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
	Title:            "Aging Dashboard API",
	Description:      "Upload receivables aging sheets, filter them and export the filtered rows.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
