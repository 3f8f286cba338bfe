package catalog

import (
	"encoding/json"

	digest "github.com/opencontainers/go-digest"

	"github.com/s3db-io/s3db/schema"
	"github.com/s3db-io/s3db/util"
)

func hashFor(rawSchema map[string]any, behaviorName string, partitions any) (digest.Digest, error) {
	attrs, err := decodeAttributes(rawSchema)
	if err != nil {
		return "", err
	}
	return schema.DefinitionHash(attrs, behaviorName, partitions)
}

func decodeAttributes(raw map[string]any) (map[string]*schema.Attribute, error) {
	bytes, err := util.StableJSON(raw)
	if err != nil {
		return nil, err
	}
	var attrs map[string]*schema.Attribute
	if err := json.Unmarshal(bytes, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func stableMarshal(v any) ([]byte, error) {
	return util.StableJSON(v)
}
