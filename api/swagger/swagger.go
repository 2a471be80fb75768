package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Google Calendar Sync",
        "description": "One-way sync of calendar events from Postgres into a Notion database",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sync", "description": "Reconciliation runs"},
        {"name": "Health", "description": "Liveness and observability"}
    ],
    "paths": {
        "/webhook/calendar-sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Trigger a calendar sync run",
                "description": "Runs one full reconciliation pass. The raw request body must be signed with the shared webhook secret.",
                "parameters": [
                    {"name": "X-Webhook-Signature", "in": "header", "required": true, "type": "string", "description": "Hex HMAC-SHA256 digest of the raw body"}
                ],
                "responses": {
                    "200": {"description": "Sync completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid signature", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A sync run is already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Run failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status": {
            "get": {
                "tags": ["Sync"],
                "summary": "Report the most recent sync run",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No run has completed yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "Healthy"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Health"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "Metrics in Prometheus text format"}
                }
            }
        }
    },
    "definitions": {
        "RunSummary": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "finished_at": {"type": "string"},
                "duration_ms": {"type": "integer"},
                "created": {"type": "integer"},
                "updated": {"type": "integer"},
                "deleted": {"type": "integer"},
                "errors": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/RunSummary"}
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
