package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grade Stats API",
        "description": "Weighted learner averages (exam 50%, quiz 30%, homework 20%) and pass-rate statistics",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grades", "description": "Weighted averages and pass rates"},
        {"name": "Operations", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check (pings the grade store)",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Grade store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics exposition"}
                }
            }
        },
        "/learner/{id}/avg-class": {
            "get": {
                "tags": ["Grades"],
                "summary": "Weighted average per class for a learner",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer", "minimum": 0, "description": "Learner ID"}
                ],
                "responses": {
                    "200": {"description": "Class averages", "schema": {"$ref": "#/definitions/ClassAveragesEnvelope"}},
                    "400": {"description": "Invalid learner id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Learner has no records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Grade store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Grades"],
                "summary": "Pass rate across all learners",
                "responses": {
                    "200": {"description": "Pass-rate summary", "schema": {"$ref": "#/definitions/StatsEnvelope"}},
                    "503": {"description": "Grade store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stats/{classId}": {
            "get": {
                "tags": ["Grades"],
                "summary": "Pass rate for the learners of one class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "integer", "minimum": 0, "maximum": 300, "description": "Class ID"}
                ],
                "responses": {
                    "200": {"description": "Pass-rate summary", "schema": {"$ref": "#/definitions/StatsEnvelope"}},
                    "400": {"description": "Invalid class id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Grade store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ClassAverage": {
            "type": "object",
            "properties": {
                "class_id": {"type": "integer"},
                "avg": {"type": "number"}
            }
        },
        "StatsSummary": {
            "type": "object",
            "properties": {
                "totalLearners": {"type": "integer"},
                "learners": {"type": "integer"},
                "percentage": {"type": "number"}
            }
        },
        "ClassAveragesEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/ClassAverage"}},
                "meta": {"type": "object"}
            }
        },
        "StatsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StatsSummary"},
                "meta": {"type": "object"}
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
