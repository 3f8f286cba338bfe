package schema

import (
	"crypto/sha256"

	digest "github.com/opencontainers/go-digest"

	"github.com/s3db-io/s3db/util"
)

// DefinitionHash is SHA-256 over the stable JSON of
// {attributes, behavior, partitions}, the authoritative version identity
// for a resource (spec.md §3).
func DefinitionHash(attributes map[string]*Attribute, behavior string, partitions any) (digest.Digest, error) {
	payload := map[string]any{
		"attributes": attributes,
		"behavior":   behavior,
		"partitions": partitions,
	}
	stable, err := util.StableJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(stable)
	return digest.NewDigestFromBytes(digest.SHA256, sum[:]), nil
}
