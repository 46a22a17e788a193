package ado

import (
	"context"
	"errors"
)

// ErrInvalidObjectID indicates a tag target that is not a full hex commit SHA.
var ErrInvalidObjectID = errors.New("ado: object id must be a 40 character hex sha")

// Ref represents a Git ref returned by Azure DevOps.
type Ref struct {
	Name     string
	ObjectID string
}

// TagObjectType enumerates the Git object kinds supported when creating annotated tags.
type TagObjectType string

const (
	// TagObjectTypeCommit represents a Git commit object.
	TagObjectTypeCommit TagObjectType = "commit"
)

// TagSpec captures the information required to create an annotated release tag.
type TagSpec struct {
	Name        string
	ObjectID    string
	ObjectType  TagObjectType
	Message     string
	TaggerName  string
	TaggerEmail string
}

// Client describes the Azure DevOps Git operations used to publish library releases.
type Client interface {
	// ListRefsWithPrefix returns refs whose names start with the provided prefix
	// (e.g. "refs/tags/"). The concrete client encapsulates organization/project/repo details.
	ListRefsWithPrefix(ctx context.Context, prefix string) ([]Ref, error)

	// CreateAnnotatedTag creates an annotated Git tag in the configured repository.
	CreateAnnotatedTag(ctx context.Context, spec TagSpec) error
}
