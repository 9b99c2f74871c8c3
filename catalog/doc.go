// Package catalog provides the flat console entities: dictionaries (named
// lookup lists), their contents, and registered applications. Each service
// validates input and calls straight through to a store backend.
package catalog
