// Package docs registers the OpenAPI document served by the Swagger UI.
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
        "/api/v1/usuarios/registro": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usuarios"],
                "summary": "Register a new account",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/usuarios/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usuarios"],
                "summary": "Login",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/usuarios": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["usuarios"],
                "summary": "List accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/usuarios/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["usuarios"],
                "summary": "Get an account",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/usuarios/{id}/roles": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usuarios"],
                "summary": "Grant a role",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.grantRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/categorias": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categorias"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categorias"],
                "summary": "Create a category",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.categoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/categorias/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categorias"],
                "summary": "Get a category",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categorias"],
                "summary": "Rename a category",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.categoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categorias"],
                "summary": "Delete a category and its movies",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/peliculas": {
            "get": {
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "List movies",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "pageSize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.moviePageResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "Create a movie",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.movieRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/peliculas/buscar": {
            "get": {
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "Search movies by name or description",
                "parameters": [{"type": "string", "name": "nombre", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Movie"}}}
                }
            }
        },
        "/api/v1/peliculas/categoria/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "List the movies of a category",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Movie"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v1/peliculas/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "Get a movie",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["peliculas"],
                "summary": "Replace a movie",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.movieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Movie"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["peliculas"],
                "summary": "Delete a movie",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.Envelope"}}
                }
            }
        },
        "/api/v2/categorias": {
            "get": {
                "produces": ["application/json"],
                "tags": ["categorias"],
                "summary": "List category names",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.categoryNameResponse"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Movie": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "image_path": {"type": "string"},
                "classification": {"type": "string", "enum": ["Siete", "Trece", "Dieciseis", "Dieciocho", "Adultos"]},
                "category_id": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "handler.Envelope": {
            "type": "object",
            "properties": {
                "statusCode": {"type": "integer"},
                "isSuccess": {"type": "boolean"},
                "errorMessages": {"type": "array", "items": {"type": "string"}},
                "result": {}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["username", "email", "password"],
            "properties": {
                "username": {"type": "string", "minLength": 3, "maxLength": 64},
                "email": {"type": "string"},
                "displayName": {"type": "string", "maxLength": 128},
                "password": {"type": "string", "minLength": 6, "maxLength": 72}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.grantRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {
                "role": {"type": "string", "enum": ["Admin", "Registered"]}
            }
        },
        "handler.categoryRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 100}
            }
        },
        "handler.categoryNameResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "handler.movieRequest": {
            "type": "object",
            "required": ["name", "classification"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "duration_minutes": {"type": "integer", "minimum": 1},
                "image_path": {"type": "string"},
                "classification": {"type": "string", "enum": ["Siete", "Trece", "Dieciseis", "Dieciocho", "Adultos"]},
                "category_id": {"type": "integer", "minimum": 1}
            }
        },
        "handler.moviePageResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.Movie"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Peliculas Catalog API",
	Description:      "Movie catalog with account registration, login and role-based access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
