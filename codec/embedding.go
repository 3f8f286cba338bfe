package codec

import (
	"strconv"
	"strings"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/util"
)

// EmbeddingCodec quantises a fixed-dimension array of floats to a
// fixed-point representation and joins the batch into one base62-encoded
// token, separated by '.'. Dimension D is declared in the descriptor
// ("embedding:128") and validated on both encode and decode.
type EmbeddingCodec struct{}

const embeddingPrecision = 6 // fixed-point digits retained per component

func (EmbeddingCodec) Encode(descriptor string, value any) (string, error) {
	dim, err := embeddingDim(descriptor)
	if err != nil {
		return "", err
	}
	vec, ok := value.([]float64)
	if !ok {
		return "", invalidType("embedding", value)
	}
	if len(vec) != dim {
		return "", errs.InvalidArgumentErr("embedding has %d components, schema declares %d", len(vec), dim)
	}
	tokens := make([]string, len(vec))
	for i, f := range vec {
		scaled := int64(roundHalfAwayFromZero(f * pow10f(embeddingPrecision)))
		tokens[i] = util.EncodeBase62(scaled)
	}
	return strings.Join(tokens, "."), nil
}

func (EmbeddingCodec) Decode(descriptor string, encoded string) (any, error) {
	dim, err := embeddingDim(descriptor)
	if err != nil {
		return nil, err
	}
	if encoded == "" {
		if dim == 0 {
			return []float64{}, nil
		}
		return nil, invalidEncoding("embedding", encoded)
	}
	tokens := strings.Split(encoded, ".")
	if len(tokens) != dim {
		return nil, invalidEncoding("embedding", encoded)
	}
	vec := make([]float64, dim)
	for i, tok := range tokens {
		n, ok := util.DecodeBase62(tok)
		if !ok {
			return nil, invalidEncoding("embedding", encoded)
		}
		vec[i] = float64(n) / pow10f(embeddingPrecision)
	}
	return vec, nil
}

func embeddingDim(descriptor string) (int, error) {
	_, param := ParseDescriptor(descriptor)
	dim, err := strconv.Atoi(param)
	if err != nil || dim < 0 {
		return 0, errs.InvalidArgumentErr("invalid embedding dimension in descriptor %q", descriptor)
	}
	return dim, nil
}
