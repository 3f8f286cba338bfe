// Package codec implements the per-type encode/decode pairs (C2) that turn
// schema-described attribute values into compact, metadata-safe strings
// and back. Each codec is deterministic and total on its declared domain;
// values outside that domain are rejected with errs.InvalidArgument.
package codec

import "github.com/s3db-io/s3db/errs"

// Codec is the contract every type encoder/decoder satisfies. Descriptor is
// the per-field type descriptor string parsed out of the schema (e.g.
// "money:USD", "decimal:2", "string|maxlength:40").
type Codec interface {
	// Encode renders value as a string fit for the metadata envelope.
	Encode(descriptor string, value any) (string, error)
	// Decode reverses Encode.
	Decode(descriptor string, encoded string) (any, error)
}

// Registry maps a type tag (the portion of a descriptor before the first
// ':' or '|') to its Codec.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry returns a Registry pre-populated with every built-in codec.
func NewRegistry() *Registry {
	r := &Registry{codecs: map[string]Codec{}}
	r.Register("string", StringCodec{})
	r.Register("number", NumberCodec{})
	r.Register("ip4", IP4Codec{})
	r.Register("ip6", IP6Codec{})
	r.Register("money", MoneyCodec{})
	r.Register("decimal", DecimalCodec{})
	r.Register("geo", GeoCodec{})
	r.Register("embedding", EmbeddingCodec{})
	r.Register("timestamp", TimestampCodec{})
	r.Register("uuid", UUIDCodec{})
	r.Register("secret", SecretCodec{})
	r.Register("array", ArrayCodec{Registry: r})
	r.Register("object", ObjectCodec{})
	r.Register("dictionary", DictionaryCodec{Inner: StringCodec{}})
	return r
}

func (r *Registry) Register(typeTag string, c Codec) {
	r.codecs[typeTag] = c
}

// WithSecretKey re-registers the "secret" codec bound to key, the §5
// read-once AES key threaded in by the connection layer (cmd/root.go's
// connect). Without this, NewRegistry's default SecretCodec carries no
// key and every "secret" attribute fails encode and decode.
func (r *Registry) WithSecretKey(key SecretKey) *Registry {
	r.Register("secret", SecretCodec{}.WithKey(key))
	return r
}

func (r *Registry) Get(typeTag string) (Codec, error) {
	c, ok := r.codecs[typeTag]
	if !ok {
		return nil, errs.InvalidArgumentErr("unknown codec type %q", typeTag)
	}
	return c, nil
}
