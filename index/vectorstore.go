package index

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/poiesic/lexrag/core"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var _ vectorstores.VectorStore = (*Store)(nil)

// AddDocuments stores langchaingo documents and returns their passage IDs.
// Documents for which the Deduplicater option reports true are skipped.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}

	passages := make([]*core.Passage, 0, len(docs))
	for _, doc := range docs {
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, doc) {
			continue
		}
		passages = append(passages, &core.Passage{
			Content:  doc.PageContent,
			Metadata: stringifyMetadata(doc.Metadata),
		})
	}

	if err := s.Add(ctx, passages...); err != nil {
		return nil, err
	}

	ids := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = strconv.FormatUint(uint64(p.Id), 10)
	}
	return ids, nil
}

// SimilaritySearch returns up to numDocuments documents by plain cosine
// similarity, without MMR. ScoreThreshold and equality Filters
// (map[string]string or map[string]any) are honored.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}

	threshold := s.minSimilarity
	if opts.ScoreThreshold > 0 {
		threshold = opts.ScoreThreshold
	}

	filters, err := metadataFilters(opts.Filters)
	if err != nil {
		return nil, err
	}

	// Filters apply after scoring, so a filtered search scores every passage
	limit := numDocuments
	if len(filters) > 0 {
		if limit, err = s.Count(ctx); err != nil {
			return nil, err
		}
		if limit == 0 {
			return []schema.Document{}, nil
		}
	}

	hits, err := s.similar(ctx, query, limit, threshold)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, 0, numDocuments)
	for _, p := range hits {
		if !matchesFilters(p.Metadata, filters) {
			continue
		}
		docs = append(docs, passageToDocument(*p))
		if len(docs) == numDocuments {
			break
		}
	}
	return docs, nil
}

// VectorStoreProvider adapts any langchaingo vector store into a Provider.
type VectorStoreProvider struct {
	store   vectorstores.VectorStore
	options []vectorstores.Option
}

var _ Provider = (*VectorStoreProvider)(nil)

// NewVectorStoreProvider wraps store. options are passed to every search.
func NewVectorStoreProvider(store vectorstores.VectorStore, options ...vectorstores.Option) (*VectorStoreProvider, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	return &VectorStoreProvider{store: store, options: options}, nil
}

// Search delegates to the store's similarity search.
func (v *VectorStoreProvider) Search(ctx context.Context, query string, width int) ([]core.Passage, error) {
	docs, err := v.store.SimilaritySearch(ctx, query, width, v.options...)
	if err != nil {
		return nil, err
	}

	passages := make([]core.Passage, 0, len(docs))
	for _, doc := range docs {
		passages = append(passages, documentToPassage(doc))
	}
	return passages, nil
}

// IsEmpty probes the store with a one-result search. Stores that cannot
// answer the probe are reported empty along with the error.
func (v *VectorStoreProvider) IsEmpty(ctx context.Context) (bool, error) {
	docs, err := v.store.SimilaritySearch(ctx, "test", 1)
	if err != nil {
		return true, err
	}
	return len(docs) == 0, nil
}

// Add converts passages to documents and adds them to the store.
func (v *VectorStoreProvider) Add(ctx context.Context, passages ...*core.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	docs := make([]schema.Document, len(passages))
	for i, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return err
		}
		docs[i] = passageToDocument(*p)
	}
	_, err := v.store.AddDocuments(ctx, docs)
	return err
}

func passageToDocument(p core.Passage) schema.Document {
	metadata := make(map[string]any, len(p.Metadata))
	for k, val := range p.Metadata {
		metadata[k] = val
	}
	return schema.Document{
		PageContent: p.Content,
		Metadata:    metadata,
		Score:       p.Score,
	}
}

func documentToPassage(doc schema.Document) core.Passage {
	return core.Passage{
		Id:       core.IDFromContent(doc.PageContent),
		Content:  doc.PageContent,
		Metadata: stringifyMetadata(doc.Metadata),
		Score:    doc.Score,
	}
}

// stringifyMetadata renders every value with fmt, so a JSON page number of
// 12 becomes "12". Nil values are dropped.
func stringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func metadataFilters(filters any) (map[string]string, error) {
	switch f := filters.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return maps.Clone(f), nil
	case map[string]any:
		return stringifyMetadata(f), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedFilter, filters)
	}
}

func matchesFilters(metadata, filters map[string]string) bool {
	for k, want := range filters {
		if metadata[k] != want {
			return false
		}
	}
	return true
}
