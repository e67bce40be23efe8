package export

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Destination is a parsed --to argument.
type Destination struct {
	// Dir is set for local exports.
	Dir string
	// S3 is set for s3:// exports.
	S3     *S3Config
	Prefix string
}

// ParseDestination accepts a directory path or
// s3://bucket/prefix?region=..&endpoint=..&path_style=true.
func ParseDestination(to string) (Destination, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return Destination{}, fmt.Errorf("export destination required")
	}
	if !strings.HasPrefix(strings.ToLower(to), "s3://") {
		return Destination{Dir: to}, nil
	}

	u, err := url.Parse(to)
	if err != nil {
		return Destination{}, fmt.Errorf("invalid export destination %q: %w", to, err)
	}
	if u.Host == "" {
		return Destination{}, fmt.Errorf("invalid export destination %q: missing bucket", to)
	}
	q := u.Query()
	pathStyle := false
	if v := q.Get("path_style"); v != "" {
		pathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return Destination{}, fmt.Errorf("invalid path_style %q: %w", v, err)
		}
	}
	return Destination{
		S3: &S3Config{
			Bucket:    u.Host,
			Region:    q.Get("region"),
			Endpoint:  q.Get("endpoint"),
			PathStyle: pathStyle,
		},
		Prefix: strings.Trim(u.Path, "/"),
	}, nil
}

// Open builds the blob store the destination names.
func (d Destination) Open(ctx context.Context) (Blob, error) {
	if d.S3 != nil {
		return NewS3Blob(ctx, *d.S3)
	}
	return NewFSBlob(d.Dir)
}

func (d Destination) String() string {
	if d.S3 != nil {
		if d.Prefix == "" {
			return "s3://" + d.S3.Bucket
		}
		return "s3://" + d.S3.Bucket + "/" + d.Prefix
	}
	return d.Dir
}
