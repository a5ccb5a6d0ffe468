package search

import (
	"context"
	"errors"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/metachat/accounts/internal/domain"
)

const (
	boostExact = 5.0
	boostName  = 3.0
	boostFuzzy = 1.0
)

type bleveIndex struct {
	idx bleve.Index
}

// Open opens the index at path, creating it on first run.
func Open(path string) (UserIndex, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, err
	}
	return &bleveIndex{idx: idx}, nil
}

// NewMemOnly builds an in-memory index, used by tests and local runs.
func NewMemOnly() (UserIndex, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &bleveIndex{idx: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	name := bleve.NewTextFieldMapping()

	// name_exact and email are single keyword terms so a match query on
	// them is an equality check.
	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", name)
	doc.AddFieldMappingsAt("name_exact", kw)
	doc.AddFieldMappingsAt("email", kw)
	doc.AddFieldMappingsAt("phone", stored)
	doc.AddFieldMappingsAt("avatar", stored)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func (b *bleveIndex) Index(_ context.Context, doc Document) error {
	return b.idx.Index(doc.ID, map[string]any{
		"name":       doc.Name,
		"name_exact": strings.ToLower(doc.Name),
		"email":      doc.Email,
		"phone":      doc.Phone,
		"avatar":     doc.Avatar,
	})
}

func (b *bleveIndex) Delete(_ context.Context, id string) error {
	return b.idx.Delete(id)
}

func (b *bleveIndex) SearchName(ctx context.Context, q string, page, limit int) (Page, error) {
	exact := bleve.NewMatchQuery(strings.ToLower(q))
	exact.SetField("name_exact")
	exact.SetBoost(boostExact)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(boostName)

	fuzzy := bleve.NewMatchQuery(q)
	fuzzy.SetField("name")
	fuzzy.SetFuzziness(2)
	fuzzy.SetBoost(boostFuzzy)

	return b.search(ctx, bleve.NewDisjunctionQuery(exact, name, fuzzy), page, limit)
}

func (b *bleveIndex) SearchEmail(ctx context.Context, email string, page, limit int) (Page, error) {
	q := bleve.NewMatchQuery(email)
	q.SetField("email")
	return b.search(ctx, q, page, limit)
}

func (b *bleveIndex) search(ctx context.Context, q query.Query, page, limit int) (Page, error) {
	from := (page - 1) * limit
	req := bleve.NewSearchRequestOptions(q, limit, from, false)
	req.Fields = []string{"name", "avatar", "phone"}

	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return Page{}, err
	}

	out := Page{Total: int64(res.Total)}
	for _, hit := range res.Hits {
		out.Items = append(out.Items, domain.Summary{
			ID:     hit.ID,
			Name:   fieldString(hit.Fields, "name"),
			Avatar: fieldString(hit.Fields, "avatar"),
			Phone:  fieldString(hit.Fields, "phone"),
		})
	}
	return out, nil
}

func fieldString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
