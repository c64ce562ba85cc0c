package graph

import (
	"context"
	"net/http"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

type ctxKey string

const idempotencyKey ctxKey = "idempotency_key"

// NewSchema parses Schema against the resolver. It panics on a resolver mismatch.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r, graphql.MaxDepth(8))
}

// Handler serves POST /graphql. The caller must already be on the context.
func Handler(schema *graphql.Schema) http.Handler {
	h := &relay.Handler{Schema: schema}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("Idempotency-Key"); key != "" && len(key) <= 255 {
			r = r.WithContext(WithIdempotencyKey(r.Context(), key))
		}
		h.ServeHTTP(w, r)
	})
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey).(string)
	return key
}
