// Package blob reads and writes objects addressed by URI (s3://bucket/key,
// gs://bucket/key, file://bucket/key, mem://bucket/key) through a scheme-keyed Router.
package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

const logPrefix = "blob:blob"

// ErrNotFound is returned by backends when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is what resource actions see: whole-object access by URI.
type Store interface {
	// List returns the URIs of every object under uri, sorted.
	List(ctx context.Context, uri string) ([]string, error)
	Read(ctx context.Context, uri string) ([]byte, error)
	Write(ctx context.Context, uri string, data []byte) error
}

// Backend is one storage provider addressed by bucket and key.
type Backend interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// URI is a parsed object location.
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

func (u URI) String() string {
	if u.Key == "" {
		return u.Scheme + "://" + u.Bucket
	}
	return u.Scheme + "://" + u.Bucket + "/" + u.Key
}

// ParseURI splits scheme://bucket/key.
func ParseURI(raw string) (URI, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("%s - %q is not a blob URI (want scheme://bucket/key)", logPrefix, raw)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return URI{}, fmt.Errorf("%s - %q has no bucket", logPrefix, raw)
	}
	return URI{Scheme: scheme, Bucket: bucket, Key: strings.TrimPrefix(key, "/")}, nil
}

// Join appends name to a base URI with exactly one slash between them.
func Join(base, name string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(name, "/")
}

// Router dispatches URIs to the backend registered for their scheme.
type Router struct {
	backends map[string]Backend
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{backends: make(map[string]Backend)}
}

// Handle registers b for scheme, replacing any previous backend.
func (r *Router) Handle(scheme string, b Backend) {
	r.backends[scheme] = b
	slog.Debug(fmt.Sprintf("%s - registered %s:// backend", logPrefix, scheme))
}

// Schemes returns the registered schemes, sorted.
func (r *Router) Schemes() []string {
	out := make([]string, 0, len(r.backends))
	for s := range r.backends {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *Router) resolve(raw string) (Backend, URI, error) {
	u, err := ParseURI(raw)
	if err != nil {
		return nil, URI{}, err
	}
	b, ok := r.backends[u.Scheme]
	if !ok {
		return nil, URI{}, fmt.Errorf("'%s' is not a supported destination! Supported are: %s",
			u.Scheme, strings.Join(r.Schemes(), ", "))
	}
	return b, u, nil
}

// List implements Store. A non-empty key is treated as a directory.
func (r *Router) List(ctx context.Context, raw string) ([]string, error) {
	b, u, err := r.resolve(raw)
	if err != nil {
		return nil, err
	}
	prefix := u.Key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	keys, err := b.List(ctx, u.Bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list %s: %w", logPrefix, raw, err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, URI{Scheme: u.Scheme, Bucket: u.Bucket, Key: k}.String())
	}
	sort.Strings(out)
	return out, nil
}

// Read implements Store.
func (r *Router) Read(ctx context.Context, raw string) ([]byte, error) {
	b, u, err := r.resolve(raw)
	if err != nil {
		return nil, err
	}
	data, err := b.Get(ctx, u.Bucket, u.Key)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read %s: %w", logPrefix, raw, err)
	}
	return data, nil
}

// Write implements Store.
func (r *Router) Write(ctx context.Context, raw string, data []byte) error {
	b, u, err := r.resolve(raw)
	if err != nil {
		return err
	}
	if u.Key == "" {
		return fmt.Errorf("%s - %s has no object key", logPrefix, raw)
	}
	if err := b.Put(ctx, u.Bucket, u.Key, data); err != nil {
		return fmt.Errorf("%s - failed to write %s: %w", logPrefix, raw, err)
	}
	slog.Debug(fmt.Sprintf("%s - wrote %d bytes to %s", logPrefix, len(data), raw))
	return nil
}
