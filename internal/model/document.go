package model

import "go.mongodb.org/mongo-driver/bson"

// Document is a schemaless record in the users or gallery collections.
// Those two collections accept whatever shape the client sends and return
// it verbatim, so they stay untyped end to end.
type Document = bson.M
