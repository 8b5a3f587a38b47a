package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Picday API",
        "description": "Photo-session reconciliation engine for school photo days",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scan Codes", "description": "Pre-event code compilation and printable sheets"},
        {"name": "Photos", "description": "Camera-card batch ingestion"},
        {"name": "Sessions", "description": "Offline photographer sync"}
    ],
    "paths": {
        "/events/{eventId}/scan-codes": {
            "post": {
                "tags": ["Scan Codes"],
                "summary": "Compile scan codes for an event",
                "parameters": [
                    {"name": "eventId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Event not found"},
                    "409": {"description": "Codes already generated"}
                }
            }
        },
        "/events/{eventId}/scan-codes/sheet": {
            "get": {
                "tags": ["Scan Codes"],
                "summary": "Download the printable code sheet",
                "parameters": [
                    {"name": "eventId", "in": "path", "type": "string", "required": true}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF sheet"},
                    "404": {"description": "No codes generated"}
                }
            }
        },
        "/events/{eventId}/scan-codes/sheet/link": {
            "get": {
                "tags": ["Scan Codes"],
                "summary": "Mint a pre-signed download link for the code sheet",
                "parameters": [
                    {"name": "eventId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Signed URL and expiry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No codes generated"}
                }
            }
        },
        "/downloads/code-sheet": {
            "get": {
                "tags": ["Scan Codes"],
                "summary": "Download the code sheet with a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF sheet"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/events/{eventId}/photos/batch": {
            "post": {
                "tags": ["Photos"],
                "summary": "Ingest a camera-card batch",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "eventId", "in": "path", "type": "string", "required": true},
                    {"name": "clockOffsetMinutes", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv"]},
                    {"name": "files", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Aggregate result with per-file failures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No sessions recorded for event"}
                }
            }
        },
        "/events/{eventId}/sessions/sync": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Merge offline-logged sessions",
                "parameters": [
                    {"name": "eventId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "Merge summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Event or scan code not found"}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "SyncRequest": {
            "type": "object",
            "properties": {
                "sessions": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "scanCodeId": {"type": "string"},
                            "photoType": {"type": "string"},
                            "studentIds": {"type": "array", "items": {"type": "string"}},
                            "capturedAt": {"type": "string", "format": "date-time"}
                        }
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
