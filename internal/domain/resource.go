package domain

import (
	"fmt"
	"strings"
)

// ResourceKind names a server-managed collection.
type ResourceKind string

const (
	Users    ResourceKind = "users"
	Programs ResourceKind = "programs"
	Services ResourceKind = "services"
	Events   ResourceKind = "events"
	Blog     ResourceKind = "blog"
)

// CachedKinds are the collections mirrored by the client cache.
var CachedKinds = []ResourceKind{Programs, Services, Events, Blog}

// AllKinds lists every collection the backend exposes.
var AllKinds = []ResourceKind{Users, Programs, Services, Events, Blog}

var collectionPaths = map[ResourceKind]string{
	Users:    "/user/",
	Programs: "/programs/",
	Services: "/services/",
	Events:   "/event/",
	Blog:     "/blog/",
}

var labels = map[ResourceKind]string{
	Users:    "User",
	Programs: "Program",
	Services: "Service",
	Events:   "Event",
	Blog:     "News",
}

// Path returns the collection endpoint, with trailing slash.
func (k ResourceKind) Path() string {
	return collectionPaths[k]
}

// ItemPath returns the endpoint for a single record.
func (k ResourceKind) ItemPath(id string) string {
	return collectionPaths[k] + id
}

// RequiresSession reports whether listing the collection needs a login.
func (k ResourceKind) RequiresSession() bool {
	return k == Events || k == Blog
}

// Label is the singular display name ("Program", "News", ...).
func (k ResourceKind) Label() string {
	return labels[k]
}

// Valid reports whether k is a known collection.
func (k ResourceKind) Valid() bool {
	_, ok := collectionPaths[k]
	return ok
}

// ParseResourceKind accepts the collection name plus a few aliases
// ("news" for blog, singular forms).
func ParseResourceKind(s string) (ResourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "users", "user":
		return Users, nil
	case "programs", "program":
		return Programs, nil
	case "services", "service":
		return Services, nil
	case "events", "event":
		return Events, nil
	case "blog", "news", "posts", "post":
		return Blog, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
}
