// Package docs holds the swagger document of the books api.
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
        "/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List all books",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BooksResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Create a book",
                "parameters": [
                    {"description": "book to create", "name": "book", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Book"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/books/{isbn}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book by isbn",
                "parameters": [
                    {"type": "string", "description": "book isbn", "name": "isbn", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Partially update a book",
                "parameters": [
                    {"type": "string", "description": "book isbn", "name": "isbn", "in": "path", "required": true},
                    {"description": "fields to update", "name": "patch", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/APIError"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Delete a book",
                "parameters": [
                    {"type": "string", "description": "book isbn", "name": "isbn", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        }
    },
    "definitions": {
        "Book": {
            "type": "object",
            "required": ["isbn", "amazon_url", "author", "language", "pages", "publisher", "title", "year"],
            "properties": {
                "isbn": {"type": "string"},
                "amazon_url": {"type": "string"},
                "author": {"type": "string"},
                "language": {"type": "string"},
                "pages": {"type": "integer", "minimum": 1, "maximum": 2147483647},
                "publisher": {"type": "string"},
                "title": {"type": "string"},
                "year": {"type": "integer", "minimum": 1000, "maximum": 2100}
            }
        },
        "BookPatch": {
            "type": "object",
            "properties": {
                "amazon_url": {"type": "string"},
                "author": {"type": "string"},
                "language": {"type": "string"},
                "pages": {"type": "integer", "minimum": 1, "maximum": 2147483647},
                "publisher": {"type": "string"},
                "title": {"type": "string"},
                "year": {"type": "integer", "minimum": 1000, "maximum": 2100}
            }
        },
        "BookResponse": {
            "type": "object",
            "properties": {"book": {"$ref": "#/definitions/Book"}}
        },
        "BooksResponse": {
            "type": "object",
            "properties": {"books": {"type": "array", "items": {"$ref": "#/definitions/Book"}}}
        },
        "MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "requestid": {"type": "string"},
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "error": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Books API",
	Description:      "CRUD over books with json schema validated writes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
