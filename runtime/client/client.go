// Package client defines the document-store client the runtime consumes.
package client

import (
	"context"
	"strings"

	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
)

// DocumentClient is the document store's network client.
//
// Not-found responses are reported as *runtime.RemoteOperationError with
// StatusCode runtime.StatusNotFound.
type DocumentClient interface {
	ListDatabases(ctx context.Context) ([]Database, error)
	CreateDatabase(ctx context.Context, id string) (*Database, error)
	ListCollections(ctx context.Context, dbLink string) ([]Collection, error)
	CreateCollection(ctx context.Context, dbLink string, id string) (*Collection, error)

	QueryDocuments(ctx context.Context, collLink string, spec QuerySpec, opts *FeedOptions) ([]map[string]interface{}, error)
	ReadDocument(ctx context.Context, docLink string, opts *RequestOptions) (map[string]interface{}, error)
	CreateDocument(ctx context.Context, collLink string, doc map[string]interface{}, opts *RequestOptions) (map[string]interface{}, error)
	ReplaceDocument(ctx context.Context, docLink string, doc map[string]interface{}, opts *RequestOptions) (map[string]interface{}, error)
	DeleteDocument(ctx context.Context, docLink string, opts *RequestOptions) error
}

// Database is a remote database descriptor
type Database struct {
	ID   string `json:"id" yaml:"id"`
	RID  string `json:"_rid,omitempty" yaml:"rid,omitempty"`
	Self string `json:"_self,omitempty" yaml:"self,omitempty"`
	ETag string `json:"_etag,omitempty" yaml:"etag,omitempty"`
}

// Link returns the database link.
func (d *Database) Link() string {
	if d.Self != "" {
		return strings.TrimSuffix(d.Self, "/")
	}
	return DatabaseLink(d.ID)
}

// Collection is a remote collection descriptor
type Collection struct {
	ID   string `json:"id" yaml:"id"`
	RID  string `json:"_rid,omitempty" yaml:"rid,omitempty"`
	Self string `json:"_self,omitempty" yaml:"self,omitempty"`
	ETag string `json:"_etag,omitempty" yaml:"etag,omitempty"`
}

// Link returns the collection link.
func (c *Collection) Link() string {
	return strings.TrimSuffix(c.Self, "/")
}

// QuerySpec is a parameterised query as sent to the store.
type QuerySpec struct {
	Query      string             `json:"query" yaml:"query"`
	Parameters []sqlgen.Parameter `json:"parameters" yaml:"parameters"`
}

// NewQuerySpec converts a compiled query.
func NewQuerySpec(q *sqlgen.Query) QuerySpec {
	if q == nil {
		return QuerySpec{}
	}
	return QuerySpec{Query: q.Text, Parameters: q.Parameters}
}

// RequestOptions are passed through on document calls
type RequestOptions struct {
	PartitionKey     interface{}       `json:"partitionKey,omitempty" yaml:"partitionKey,omitempty"`
	ConsistencyLevel string            `json:"consistencyLevel,omitempty" yaml:"consistencyLevel,omitempty"`
	SessionToken     string            `json:"sessionToken,omitempty" yaml:"sessionToken,omitempty"`
	IfMatch          string            `json:"ifMatch,omitempty" yaml:"ifMatch,omitempty"`
	Headers          map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// FeedOptions are passed through on query calls
type FeedOptions struct {
	MaxItemCount              int         `json:"maxItemCount,omitempty" yaml:"maxItemCount,omitempty"`
	EnableCrossPartitionQuery bool        `json:"enableCrossPartitionQuery,omitempty" yaml:"enableCrossPartitionQuery,omitempty"`
	PartitionKey              interface{} `json:"partitionKey,omitempty" yaml:"partitionKey,omitempty"`
	ContinuationToken         string      `json:"continuationToken,omitempty" yaml:"continuationToken,omitempty"`
	ConsistencyLevel          string      `json:"consistencyLevel,omitempty" yaml:"consistencyLevel,omitempty"`
}

// DatabaseLink returns dbs/<db>.
func DatabaseLink(dbID string) string {
	return "dbs/" + dbID
}

// CollectionLink returns dbs/<db>/colls/<coll>.
func CollectionLink(dbID, collID string) string {
	return DatabaseLink(dbID) + "/colls/" + collID
}

// CollectionLinkFrom returns <dbLink>/colls/<coll>.
func CollectionLinkFrom(dbLink, collID string) string {
	return strings.TrimSuffix(dbLink, "/") + "/colls/" + collID
}

// DocumentLink returns <collLink>/docs/<id>.
func DocumentLink(collLink, docID string) string {
	return strings.TrimSuffix(collLink, "/") + "/docs/" + docID
}

// ParseLink splits a link into its database, collection and document ids.
// Missing parts are empty; ok is false for anything not shaped like a link.
func ParseLink(link string) (dbID, collID, docID string, ok bool) {
	parts := strings.Split(strings.Trim(link, "/"), "/")
	if len(parts)%2 != 0 || len(parts) > 6 {
		return "", "", "", false
	}
	keys := []string{"dbs", "colls", "docs"}
	ids := make([]string, 3)
	for i := 0; i < len(parts); i += 2 {
		if parts[i] != keys[i/2] || parts[i+1] == "" {
			return "", "", "", false
		}
		ids[i/2] = parts[i+1]
	}
	return ids[0], ids[1], ids[2], true
}
