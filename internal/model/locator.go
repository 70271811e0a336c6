// Package model defines the core types shared across the formgate entry
// validation pipeline: request locators, project/form/instance records, and
// the content-type resolver that classifies locators.
package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Well-known content-type tokens returned by a TypeResolver.
const (
	ContentTypeForm     = "application/x-formgate-form"
	ContentTypeInstance = "application/x-formgate-instance"
)

// Kind classifies what a locator points at.
type Kind string

const (
	KindForm     Kind = "form"
	KindInstance Kind = "instance"
)

// Locator is a parsed request locator. Immutable once parsed.
//
// The canonical shape is a URI like
//
//	formgate://forms/12?projectId=<uuid>
//	formgate://instances/7
//
// The path segment names the collection, the final segment carries the row
// id, and the optional projectId query parameter pins the target project.
type Locator struct {
	uri        string
	collection string
	id         int64
	projectID  string
}

// ParseLocator parses a raw locator URI. It fails only on malformed URIs;
// an unknown collection or missing id still parses, so that the validation
// chain can surface its own unrecognized-locator / bad-locator verdicts.
func ParseLocator(raw string) (*Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse locator: %w", err)
	}

	loc := &Locator{
		uri:       raw,
		projectID: u.Query().Get("projectId"),
	}

	// Host-relative URIs (formgate://forms/12) put the collection in the
	// host; path-only URIs (/forms/12) put it in the path.
	segments := []string{}
	if u.Host != "" {
		segments = append(segments, u.Host)
	}
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) > 0 {
		loc.collection = segments[0]
	}
	if len(segments) > 1 {
		if id, err := strconv.ParseInt(segments[len(segments)-1], 10, 64); err == nil {
			loc.id = id
		}
	}

	return loc, nil
}

// URI returns the raw locator string.
func (l *Locator) URI() string { return l.uri }

// Collection returns the first path segment ("forms", "instances", ...).
func (l *Locator) Collection() string { return l.collection }

// ID returns the numeric row id extracted from the locator, or 0 when the
// locator carried none.
func (l *Locator) ID() int64 { return l.id }

// ProjectID returns the projectId query parameter, or "" when absent.
func (l *Locator) ProjectID() string { return l.projectID }

// TypeResolver classifies a locator into one of the well-known content-type
// tokens. An empty string means the locator is unrecognized.
type TypeResolver interface {
	TypeOf(loc *Locator) string
}

// PathTypeResolver resolves the content type from the locator's collection
// segment. This is the default resolver.
type PathTypeResolver struct{}

// TypeOf implements TypeResolver.
func (PathTypeResolver) TypeOf(loc *Locator) string {
	switch loc.Collection() {
	case "forms":
		return ContentTypeForm
	case "instances":
		return ContentTypeInstance
	default:
		return ""
	}
}

// KindForType maps a content-type token to a Kind. The second return is
// false for unknown tokens.
func KindForType(contentType string) (Kind, bool) {
	switch contentType {
	case ContentTypeForm:
		return KindForm, true
	case ContentTypeInstance:
		return KindInstance, true
	default:
		return "", false
	}
}
