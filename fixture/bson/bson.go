// Package bson provides a BSON fixture codec.
package bson

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/zoobzio/carbon/fixture"
)

// bsonCodec implements fixture.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() fixture.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON. The top level must be a document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
// A *any target receives a bson.M rather than an ordered document.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	if p, ok := v.(*any); ok {
		var m bson.M
		if err := bson.Unmarshal(data, &m); err != nil {
			return err
		}
		*p = m
		return nil
	}
	return bson.Unmarshal(data, v)
}
