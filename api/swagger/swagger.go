package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FilterHub API",
        "description": "Filter distribution and subscription service for content providers",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Provider registration and tokens"},
        {"name": "Filters", "description": "Filter catalog management and search"},
        {"name": "Cids", "description": "Identifier management and conflict detection"},
        {"name": "Subscriptions", "description": "Subscription ledger"},
        {"name": "Providers", "description": "Accounts, settings and deletion"},
        {"name": "Dashboard", "description": "Subscribed filters view and rollups"},
        {"name": "Exports", "description": "Account export archives and manifests"},
        {"name": "Deals", "description": "Retrieval decisions"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a provider account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Wallet already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a provider",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters": {
            "get": {
                "tags": ["Filters"],
                "summary": "List the provider's own filters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Filters"],
                "summary": "Create a filter list",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFilterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/search": {
            "get": {
                "tags": ["Filters"],
                "summary": "Search public filters",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "per_page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/lookup": {
            "get": {
                "tags": ["Filters"],
                "summary": "Find a filter by exact name",
                "parameters": [
                    {"name": "name", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/filters/share/{shareId}": {
            "get": {
                "tags": ["Filters"],
                "summary": "Resolve a share token",
                "parameters": [
                    {"name": "shareId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/filters/{id}": {
            "get": {
                "tags": ["Filters"],
                "summary": "Get an owned filter with its identifiers",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Filters"],
                "summary": "Patch an owned filter",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FilterPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Filters"],
                "summary": "Delete an owned filter",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/filters/{id}/cids": {
            "post": {
                "tags": ["Cids"],
                "summary": "Add an identifier to an owned filter",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CidInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/filters/{id}/manifest": {
            "get": {
                "tags": ["Exports"],
                "summary": "Render a filter's identifier manifest as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/cids/conflict": {
            "get": {
                "tags": ["Cids"],
                "summary": "Count identifier overlap across the provider's filters",
                "parameters": [
                    {"name": "filterId", "in": "query", "type": "integer", "required": true},
                    {"name": "cid", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/cids/{id}": {
            "put": {
                "tags": ["Cids"],
                "summary": "Edit or re-parent an identifier",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Cids"],
                "summary": "Delete an identifier",
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/subscriptions": {
            "post": {
                "tags": ["Subscriptions"],
                "summary": "Import a filter by id or share token",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already imported"}
                }
            }
        },
        "/subscriptions/{filterId}": {
            "put": {
                "tags": ["Subscriptions"],
                "summary": "Toggle enforcement or edit notes",
                "parameters": [
                    {"name": "filterId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subscriptions"],
                "summary": "Remove a subscription",
                "parameters": [
                    {"name": "filterId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/subscriptions/{filterId}/enabled": {
            "put": {
                "tags": ["Subscriptions"],
                "summary": "Toggle a filter for every subscriber (owner only)",
                "parameters": [
                    {"name": "filterId", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Toggled"},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/providers/me": {
            "get": {
                "tags": ["Providers"],
                "summary": "Get the authenticated provider profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Providers"],
                "summary": "Update business metadata",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/providers/me/config": {
            "get": {
                "tags": ["Providers"],
                "summary": "Get provider settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Providers"],
                "summary": "Replace provider settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/providers/{wallet}": {
            "delete": {
                "tags": ["Providers"],
                "summary": "Delete a provider account and everything it owns",
                "parameters": [
                    {"name": "wallet", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Not the account owner"}
                }
            }
        },
        "/providers/{wallet}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an account export archive",
                "parameters": [
                    {"name": "wallet", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export archive via a signed token",
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Archive stream"}
                }
            }
        },
        "/deals": {
            "get": {
                "tags": ["Deals"],
                "summary": "List recorded deals",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Deals"],
                "summary": "Record a retrieval decision for a cid",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/filters": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Search the provider's subscribed filters",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "per_page", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Account-level rollups over the subscribed set",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["wallet_address_hashed", "email", "password"],
            "properties": {
                "wallet_address_hashed": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "business_name": {"type": "string"},
                "website": {"type": "string"},
                "contact_person": {"type": "string"},
                "address": {"type": "string"},
                "country": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateFilterRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "override": {"type": "boolean"},
                "visibility": {"type": "integer"},
                "enabled": {"type": "boolean"},
                "cids": {"type": "array", "items": {"$ref": "#/definitions/CidInput"}}
            }
        },
        "FilterPatch": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "override": {"type": "boolean"},
                "visibility": {"type": "integer"},
                "enabled": {"type": "boolean"}
            }
        },
        "CidInput": {
            "type": "object",
            "required": ["cid"],
            "properties": {
                "cid": {"type": "string"},
                "ref_url": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
