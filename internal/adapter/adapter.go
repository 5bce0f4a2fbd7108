// Package adapter is the thin operation surface that translates
// wire-shaped requests into engine/cluster calls and their results back
// into wire-shaped responses. It implements only the translation — the
// actual socket, framing, and CLI front-end are external collaborators
// out of scope and are not built here.
package adapter

import (
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kverrors"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/kvstore"
	"github.com/KhalidAhmed1/Distributed-Durable-Key-Value-Store/internal/walrecord"
)

// Op names one of the six wire operations this surface supports.
type Op string

const (
	OpSet             Op = "set"
	OpGet             Op = "get"
	OpDelete          Op = "delete"
	OpBulkSet         Op = "bulk_set"
	OpSearchFullText  Op = "search_full_text"
	OpSearchEmbedding Op = "search_embedding"
)

// WireItem mirrors walrecord.Item on the wire.
type WireItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Request is one wire-shaped request frame.
type Request struct {
	Op    Op         `json:"op"`
	Key   string     `json:"key,omitempty"`
	Value string     `json:"value,omitempty"`
	Items []WireItem `json:"items,omitempty"`
	Query string     `json:"query,omitempty"`
	TopK  int        `json:"top_k,omitempty"`
}

// Response is one wire-shaped response frame. Fields are populated only as
// relevant to the request's Op.
type Response struct {
	OK      bool             `json:"ok"`
	Value   string           `json:"value,omitempty"`
	Existed bool             `json:"existed,omitempty"`
	Keys    []string         `json:"keys,omitempty"`
	Results []EmbeddingResult `json:"results,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// EmbeddingResult mirrors kvstore.SearchResult on the wire.
type EmbeddingResult struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Engine is the subset of *kvstore.Engine the adapter needs. Any type
// satisfying it — a single-node engine, or a small shim over a cluster
// such as PrimaryCluster or QuorumCluster — can be handed to Handle.
type Engine interface {
	Set(key, value string, opts kvstore.SetOpts) error
	Get(key string) (string, bool)
	Delete(key string, opts kvstore.DeleteOpts) (bool, error)
	BulkSet(items []walrecord.Item, opts kvstore.BulkSetOpts) error
	SearchFullText(query string) map[string]struct{}
	SearchEmbedding(query string, topK int) []kvstore.SearchResult
}

// Handle translates req into an Engine call and builds the Response. It
// never panics on a malformed request — unknown ops and missing required
// fields become a ProtocolError response instead.
func Handle(e Engine, req Request) Response {
	switch req.Op {
	case OpSet:
		if req.Key == "" {
			return errorResponse(kverrors.NewProtocolError("set requires key"))
		}
		if err := e.Set(req.Key, req.Value, kvstore.SetOpts{}); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true}

	case OpGet:
		if req.Key == "" {
			return errorResponse(kverrors.NewProtocolError("get requires key"))
		}
		value, found := e.Get(req.Key)
		if !found {
			return Response{OK: false, Error: kverrors.NotFound.Error()}
		}
		return Response{OK: true, Value: value}

	case OpDelete:
		if req.Key == "" {
			return errorResponse(kverrors.NewProtocolError("delete requires key"))
		}
		existed, err := e.Delete(req.Key, kvstore.DeleteOpts{})
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Existed: existed}

	case OpBulkSet:
		if len(req.Items) == 0 {
			return errorResponse(kverrors.NewProtocolError("bulk_set requires items"))
		}
		items := make([]walrecord.Item, len(req.Items))
		for i, it := range req.Items {
			items[i] = walrecord.Item{Key: it.Key, Value: it.Value}
		}
		if err := e.BulkSet(items, kvstore.BulkSetOpts{}); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true}

	case OpSearchFullText:
		keySet := e.SearchFullText(req.Query)
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		return Response{OK: true, Keys: keys}

	case OpSearchEmbedding:
		hits := e.SearchEmbedding(req.Query, req.TopK)
		results := make([]EmbeddingResult, len(hits))
		for i, h := range hits {
			results[i] = EmbeddingResult{Key: h.Key, Score: h.Score}
		}
		return Response{OK: true, Results: results}

	default:
		return errorResponse(kverrors.NewProtocolError("unknown op " + string(req.Op)))
	}
}

func errorResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
