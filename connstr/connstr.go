// Package connstr parses the URI-like connection descriptor used to
// configure the object-store capability (spec.md §6). Grounded on the
// teacher's config.ParseConfig shape: parse raw input once into a typed,
// validated struct rather than threading a map of options through the
// caller.
package connstr

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/s3db-io/s3db/errs"
)

// Descriptor is the parsed form of a connection string:
//
//	s3://KEY:SECRET@bucket[/prefix]?region=us-east-1
//	http(s)://KEY:SECRET@host:port/bucket[/prefix]   (S3-compatible)
//	memory://bucket[/prefix]                          (in-process test backend)
type Descriptor struct {
	Scheme         string // "s3", "http", "https", "memory"
	Endpoint       string // host:port for http(s) forms, empty for s3/memory
	AccessKey      string
	SecretKey      string
	Bucket         string
	Prefix         string
	Region         string
	ForcePathStyle bool
}

// Parse parses raw into a Descriptor. Userinfo credentials are
// percent-decoded by net/url automatically. When no credentials are
// present in the string, AccessKey/SecretKey fall back to
// S3DB_ACCESS_KEY/S3DB_SECRET_KEY from the environment, per spec.md §6's
// "engine falls back to environment-provided credentials".
func Parse(raw string) (*Descriptor, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.InvalidArgumentErr("parsing connection string: %v", err)
	}

	d := &Descriptor{Scheme: u.Scheme}

	switch u.Scheme {
	case "memory":
		d.Bucket, d.Prefix = splitBucketPath(u.Host, u.Path)
	case "s3":
		if u.User != nil {
			d.AccessKey = u.User.Username()
			d.SecretKey, _ = u.User.Password()
		}
		d.Bucket, d.Prefix = splitBucketPath(u.Host, u.Path)
		if q := u.Query(); q.Get("region") != "" {
			d.Region = q.Get("region")
		}
	case "http", "https":
		if u.User != nil {
			d.AccessKey = u.User.Username()
			d.SecretKey, _ = u.User.Password()
		}
		d.Endpoint = u.Host
		bucket, prefix := splitFirstSegment(u.Path)
		d.Bucket, d.Prefix = bucket, prefix
		d.ForcePathStyle = true
	default:
		return nil, errs.InvalidArgumentErr("unsupported connection scheme %q", u.Scheme)
	}

	if q := u.Query(); q.Get("region") != "" {
		d.Region = q.Get("region")
	}
	if q := u.Query(); q.Get("forcePathStyle") != "" {
		if v, err := strconv.ParseBool(q.Get("forcePathStyle")); err == nil {
			d.ForcePathStyle = v
		}
	}

	if d.Bucket == "" {
		return nil, errs.InvalidArgumentErr("connection string %q has no bucket", raw)
	}

	if d.Scheme != "memory" && d.AccessKey == "" && d.SecretKey == "" {
		d.AccessKey = os.Getenv("S3DB_ACCESS_KEY")
		d.SecretKey = os.Getenv("S3DB_SECRET_KEY")
	}

	return d, nil
}

// splitBucketPath handles the "s3://bucket[/prefix]" and
// "memory://bucket[/prefix]" forms, where the bucket is the URL's host
// component and the prefix is whatever follows.
func splitBucketPath(host, path string) (bucket, prefix string) {
	return host, strings.Trim(path, "/")
}

// splitFirstSegment handles the "http(s)://host:port/bucket[/prefix]"
// form, where the bucket is the first path segment.
func splitFirstSegment(path string) (bucket, prefix string) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
