// Package openapi imports form schemas from OpenAPI 3 documents. Object
// component schemas become schema.Schema values; operations with an object
// request body become forms bound to the schema of that body.
package openapi
