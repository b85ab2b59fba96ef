package service

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/woozymasta/geolink/internal/linkeddata"
)

// graphCache keeps decoded graph documents by URI. Each document costs 1, so
// size is the number of documents kept.
type graphCache struct {
	c *ristretto.Cache[string, *linkeddata.Document]
}

func newGraphCache(size int64) (*graphCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *linkeddata.Document]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &graphCache{c: c}, nil
}

func (g *graphCache) get(uri string) (*linkeddata.Document, bool) {
	return g.c.Get(uri)
}

func (g *graphCache) set(uri string, doc *linkeddata.Document) {
	g.c.Set(uri, doc, 1)
	// make the entry visible to the next Get
	g.c.Wait()
}

func (g *graphCache) close() {
	g.c.Close()
}
