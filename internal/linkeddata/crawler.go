package linkeddata

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/geolink/internal/fault"
)

// DataFormat is the query value appended to seeAlso links to request GeoJSON.
const DataFormat = "geojson"

// Object is one related resource discovered while crawling from a root node.
type Object struct {
	Type     string   `json:"type" yaml:"type"`
	Name     string   `json:"name" yaml:"name"`
	URI      string   `json:"uri" yaml:"uri"`
	DataURIs []string `json:"dataUris" yaml:"dataUris"`
}

// Fetcher retrieves the graph document published at uri.
// Retrieval failures are reported as fault.ErrResourceNotFound, undecodable
// payloads as fault.ErrMalformedInput.
type Fetcher interface {
	Graph(ctx context.Context, uri string) (*Document, error)
}

// Crawler expands the relations of a graph node.
type Crawler struct {
	fetcher     Fetcher
	concurrency int
	logger      zerolog.Logger
}

// NewCrawler returns a crawler resolving up to concurrency references at a
// time. A concurrency below 2 resolves references one after another.
func NewCrawler(fetcher Fetcher, concurrency int) *Crawler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Crawler{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      log.Logger.With().Str("component", "crawler").Logger(),
	}
}

// WithLogger replaces the crawler logger.
func (c *Crawler) WithLogger(l zerolog.Logger) *Crawler {
	c.logger = l
	return c
}

type reference struct {
	relation string
	uri      string
}

// Crawl fetches the node rootURI and resolves each of its relations into an
// Object. The result starts with the root itself (type "@id"), followed by
// the references of each relation in Relations order, each relation keeping
// its array order. Any failure aborts the crawl and no result is returned.
func (c *Crawler) Crawl(ctx context.Context, rootURI string) ([]Object, error) {
	const op = "crawl"
	start := time.Now()

	doc, err := c.fetcher.Graph(ctx, rootURI)
	if err != nil {
		return nil, err
	}
	root := doc.Node(rootURI)
	if root == nil {
		return nil, fault.Malformed(op, rootURI, errors.New("root node not found in graph"))
	}

	var refs []reference
	for _, rel := range Relations {
		for _, uri := range root.References(rel) {
			refs = append(refs, reference{relation: rel, uri: uri})
		}
	}

	objects := make([]Object, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			src := doc
			if ref.uri != rootURI {
				var err error
				if src, err = c.fetcher.Graph(gctx, ref.uri); err != nil {
					return err
				}
			}
			obj, err := objectFromNode(ref, src)
			if err != nil {
				return err
			}
			objects[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Debug().Err(err).Str("uri", rootURI).Msg("crawl aborted")
		return nil, err
	}

	c.logger.Debug().
		Str("uri", rootURI).
		Int("objects", len(objects)).
		Dur("took", time.Since(start)).
		Msg("crawl finished")

	return objects, nil
}

func objectFromNode(ref reference, doc *Document) (Object, error) {
	const op = "resolve reference"

	node := doc.Node(ref.uri)
	if node == nil {
		return Object{}, fault.Malformed(op, ref.uri, errors.New("node not found in graph"))
	}
	name, ok := node.Name()
	if !ok {
		return Object{}, fault.Malformed(op, ref.uri, errors.New("node has no label"))
	}

	dataURIs := make([]string, 0, len(node.SeeAlso))
	for _, s := range node.SeeAlso {
		u, err := DataURI(s)
		if err != nil {
			return Object{}, fault.Malformed(op, ref.uri, err)
		}
		dataURIs = append(dataURIs, u)
	}

	return Object{
		Type:     ref.relation,
		Name:     name,
		URI:      ref.uri,
		DataURIs: dataURIs,
	}, nil
}

// DataURI returns link with the GeoJSON format parameter appended. The
// existing query is kept byte for byte.
func DataURI(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	format := "f=" + DataFormat
	if u.RawQuery == "" {
		u.RawQuery = format
	} else {
		u.RawQuery += "&" + format
	}
	u.ForceQuery = false
	return u.String(), nil
}
