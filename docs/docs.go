// Package docs holds the Swagger description of the HTTP API.
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
                "description": "Returns the health status of the service and which loops are active",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/loops": {
            "get": {
                "description": "Returns the status of every scheduler loop",
                "produces": ["application/json"],
                "tags": ["loops"],
                "summary": "List scheduler loops",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/api/loops/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["loops"],
                "summary": "Get a scheduler loop",
                "parameters": [{"type": "string", "description": "Loop name (discovery, posting)", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoopStatus"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/loops/{name}/start": {
            "post": {
                "produces": ["application/json"],
                "tags": ["loops"],
                "summary": "Start a scheduler loop",
                "parameters": [{"type": "string", "description": "Loop name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/loops/{name}/stop": {
            "post": {
                "description": "Prevents further ticks; a tick already running finishes",
                "produces": ["application/json"],
                "tags": ["loops"],
                "summary": "Stop a scheduler loop",
                "parameters": [{"type": "string", "description": "Loop name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/loops/{name}/run": {
            "post": {
                "description": "Runs a single tick synchronously, outside the schedule",
                "produces": ["application/json"],
                "tags": ["loops"],
                "summary": "Run one tick now",
                "parameters": [{"type": "string", "description": "Loop name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/history": {
            "get": {
                "description": "Returns the stored record of a loop (discovery by default)",
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Persisted best-token history",
                "parameters": [{"type": "string", "default": "discovery", "description": "Loop name", "name": "loop", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AnalysisHistory"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/tokens/best": {
            "get": {
                "description": "Ranks recent listings and returns the top entries with their leading factors",
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Best recent tokens",
                "parameters": [{"type": "integer", "default": 5, "description": "Number of tokens (default 5, max 20)", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/tokens/{mint}": {
            "get": {
                "description": "Fetches the token by mint address and returns its score, classification and factors",
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Analyze a token",
                "parameters": [{"type": "string", "description": "Solana mint address", "name": "mint", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ScoredToken"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Socials": {
            "type": "object",
            "properties": {
                "website": {"type": "string"},
                "twitter": {"type": "string"},
                "telegram": {"type": "string"},
                "discord": {"type": "string"}
            }
        },
        "domain.ScoredToken": {
            "type": "object",
            "properties": {
                "mint": {"type": "string"},
                "symbol": {"type": "string"},
                "name": {"type": "string"},
                "score": {"type": "integer"},
                "sentiment": {"type": "string"},
                "risk_level": {"type": "string"},
                "key_factors": {"type": "array", "items": {"type": "string"}},
                "analysis_reason": {"type": "string"},
                "market_cap": {"type": "number"},
                "daily_volume": {"type": "number"},
                "liquidity": {"type": "number"},
                "price_change_24h": {"type": "number"},
                "extensions": {"$ref": "#/definitions/domain.Socials"}
            }
        },
        "domain.AnalysisEntry": {
            "type": "object",
            "allOf": [{"$ref": "#/definitions/domain.ScoredToken"}],
            "properties": {
                "rank": {"type": "integer"},
                "analyzed_at": {"type": "string"}
            }
        },
        "domain.AnalysisHistory": {
            "type": "object",
            "properties": {
                "last_analysis": {"type": "string"},
                "best_token": {"$ref": "#/definitions/domain.AnalysisEntry"},
                "previous_analyses": {"type": "array", "items": {"$ref": "#/definitions/domain.AnalysisEntry"}}
            }
        },
        "domain.LoopStatus": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "active": {"type": "boolean"},
                "running": {"type": "boolean"},
                "destination": {"type": "string"},
                "interval_ns": {"type": "integer"},
                "last_run_at": {"type": "string"},
                "next_run": {"type": "string"},
                "runs": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.3",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SolHype API",
	Description:      "Solana token discovery: loop control, persisted history and on-demand token analysis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
