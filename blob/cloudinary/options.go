package cloudinary

import "time"

// Options configures the Cloudinary upload client.
type Options struct {
	CloudName string
	APIKey    string
	APISecret string
	// Folder groups uploads inside the Cloudinary media library.
	Folder  string
	BaseURL string
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Folder == "" {
		o.Folder = "eduzap"
	}
	if o.BaseURL == "" {
		o.BaseURL = "https://api.cloudinary.com"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}
