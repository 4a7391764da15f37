package s3

import "strings"

// Options configures the S3-compatible image store.
type Options struct {
	Bucket string
	Region string
	// Endpoint points at an S3-compatible server such as MinIO. Empty uses AWS.
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicBaseURL is prepended to object keys to build image URLs. When
	// empty the URL is derived from Endpoint or the AWS virtual-host form.
	PublicBaseURL string
	// Prefix is prepended to generated object keys.
	Prefix       string
	UsePathStyle bool
}

func (o Options) withDefaults() Options {
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	if o.Prefix == "" {
		o.Prefix = "eduzap"
	}
	o.Prefix = strings.Trim(o.Prefix, "/")
	o.Endpoint = strings.TrimRight(o.Endpoint, "/")
	o.PublicBaseURL = strings.TrimRight(o.PublicBaseURL, "/")
	if o.Endpoint != "" {
		o.UsePathStyle = true
	}
	return o
}

func (o Options) publicBase() string {
	switch {
	case o.PublicBaseURL != "":
		return o.PublicBaseURL
	case o.Endpoint != "":
		return o.Endpoint + "/" + o.Bucket
	default:
		return "https://" + o.Bucket + ".s3." + o.Region + ".amazonaws.com"
	}
}
