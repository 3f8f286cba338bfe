package codec

import "github.com/s3db-io/s3db/errs"

func invalidType(wanted string, got any) error {
	return errs.InvalidArgumentErr("expected a %s value, got %T", wanted, got)
}

func invalidEncoding(wanted string, encoded string) error {
	return errs.InvalidArgumentErr("value %q is not a valid %s encoding", encoded, wanted)
}
