package extension_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geolink/internal/extension"
	"github.com/woozymasta/geolink/internal/fault"
	"github.com/woozymasta/geolink/internal/geo"
	"github.com/woozymasta/geolink/internal/host"
	"github.com/woozymasta/geolink/internal/linkeddata"
	"github.com/woozymasta/geolink/internal/service"
)

const square = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"area":4},"geometry":{"type":"Polygon",
   "coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}]}`

// pointStub answers CHyF queries. A non-nil gate blocks the query whose
// point X matches until the gate is closed.
type pointStub struct {
	mu      sync.Mutex
	calls   int
	holes   []bool
	data    string
	err     error
	gateX   float64
	gate    chan struct{}
	perCall map[float64]string
}

func (s *pointStub) FeaturesByPoint(ctx context.Context, endpoint string, pt orb.Point, removeHoles bool) ([]geo.Feature[service.HydroProperties], error) {
	s.mu.Lock()
	s.calls++
	s.holes = append(s.holes, removeHoles)
	data, err := s.data, s.err
	if d, ok := s.perCall[pt[0]]; ok {
		data = d
	}
	gate := s.gate
	s.mu.Unlock()

	if gate != nil && pt[0] == s.gateX {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return geo.FeaturesFromGeoJSON[service.HydroProperties]([]byte(data), nil)
}

type catchmentStub struct {
	mu         sync.Mutex
	catchCalls int
	catchments string
	catchErr   error
	linked     map[string]string
}

func (s *catchmentStub) Catchments(ctx context.Context, url string) ([]geo.Feature[service.CatchmentProperties], error) {
	s.mu.Lock()
	s.catchCalls++
	s.mu.Unlock()
	if s.catchErr != nil {
		return nil, s.catchErr
	}
	return geo.FeaturesFromGeoJSON[service.CatchmentProperties]([]byte(s.catchments), nil)
}

func (s *catchmentStub) LinkedFeatures(ctx context.Context, url string) ([]geo.Feature[service.HydroProperties], error) {
	data, ok := s.linked[url]
	if !ok {
		return nil, fault.NotFound("fetch features", url, errors.New("status 404"))
	}
	return geo.FeaturesFromGeoJSON[service.HydroProperties]([]byte(data), nil)
}

type crawlStub struct {
	mu      sync.Mutex
	crawled []string
	results map[string][]linkeddata.Object
}

func (s *crawlStub) Crawl(ctx context.Context, uri string) ([]linkeddata.Object, error) {
	s.mu.Lock()
	s.crawled = append(s.crawled, uri)
	s.mu.Unlock()
	objs, ok := s.results[uri]
	if !ok {
		return nil, fault.NotFound("fetch graph", uri, errors.New("status 404"))
	}
	return objs, nil
}

func TestCHyFClickRendersAndDeselects(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	src := &pointStub{data: square}
	up := extension.NewCHyF("Upstream", "http://chyf/upstreamOf.json", src)
	require.NoError(t, m.AddExtensions(up))

	handled, err := m.Click(context.Background(), orb.Point{1, 1})
	require.NoError(t, err)
	assert.False(t, handled, "idle manager must ignore clicks")
	assert.Zero(t, src.calls)

	st, err := m.Select(context.Background(), "Upstream")
	require.NoError(t, err)
	assert.Equal(t, extension.Active, st)
	assert.Equal(t, extension.CursorCrosshair, h.Cursor())

	handled, err = m.Click(context.Background(), orb.Point{1, 1})
	require.NoError(t, err)
	assert.True(t, handled)

	st, _ = m.State()
	assert.Equal(t, extension.Idle, st)
	assert.Equal(t, extension.CursorDefault, h.Cursor())

	layer, ok := h.Layer("Upstream")
	require.True(t, ok)
	require.Len(t, layer.Geometry(), 1)
	assert.Equal(t, extension.DefaultStyle, layer.Geometry()[0].Style())
	require.Len(t, layer.Attributes(), 1)
	assert.InDelta(t, 4, layer.Attributes()[0]["area"], 1e-9)
	assert.Equal(t, up.Features()[0].ID, layer.Geometry()[0].ID())
}

func TestSelectTwiceIsPureDeselect(t *testing.T) {
	h := host.New()
	m := extension.NewManager("Geoconnex", h)
	src := &catchmentStub{catchments: square}
	gsip := extension.NewGeoconnex("GSIP", "http://geoconnex/catchments", src, &crawlStub{})
	require.NoError(t, m.AddExtensions(gsip))

	st, err := m.Select(context.Background(), "GSIP")
	require.NoError(t, err)
	assert.Equal(t, extension.Active, st)

	st, err = m.Select(context.Background(), "GSIP")
	require.NoError(t, err)
	assert.Equal(t, extension.Idle, st)
	assert.Equal(t, 1, src.catchCalls)
	assert.False(t, m.IsActive(gsip))
}

func TestSelectSwitchesExtension(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	a := extension.NewCHyF("Upstream", "http://chyf/up", &pointStub{data: square})
	b := extension.NewCHyF("Downstream", "http://chyf/down", &pointStub{data: square})
	require.NoError(t, m.AddExtensions(a, b))
	assert.Equal(t, []string{"Upstream", "Downstream"}, h.Layers())

	_, err := m.Select(context.Background(), "Upstream")
	require.NoError(t, err)
	_, err = m.Select(context.Background(), "Downstream")
	require.NoError(t, err)

	st, selected := m.State()
	assert.Equal(t, extension.Active, st)
	assert.Same(t, b, selected)
	assert.False(t, m.IsActive(a))

	_, err = m.Select(context.Background(), "Sideways")
	assert.ErrorIs(t, err, extension.ErrUnknownExtension)

	assert.Error(t, m.AddExtensions(extension.NewCHyF("Upstream", "x", nil)))
}

func TestFailedClickKeepsGeometryAndSelection(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	src := &pointStub{data: square}
	up := extension.NewCHyF("Upstream", "http://chyf/up", src)
	require.NoError(t, m.AddExtensions(up))

	_, err := m.Select(context.Background(), "Upstream")
	require.NoError(t, err)
	_, err = m.Click(context.Background(), orb.Point{1, 1})
	require.NoError(t, err)
	before := up.Geometries()
	require.Len(t, before, 1)

	tests := []struct {
		name string
		data string
		err  error
		kind error
	}{
		{"fetch fails", "", fault.NotFound("fetch features", "http://chyf/up", errors.New("status 500")), fault.ErrResourceNotFound},
		{"bad coordinates", `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[]}}`, nil, fault.ErrConversion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src.mu.Lock()
			src.data, src.err = tt.data, tt.err
			src.mu.Unlock()

			_, err := m.Select(context.Background(), "Upstream")
			require.NoError(t, err)

			handled, err := m.Click(context.Background(), orb.Point{1, 1})
			assert.True(t, handled)
			assert.ErrorIs(t, err, tt.kind)

			assert.True(t, m.IsActive(up), "failed click keeps the selection")
			assert.Equal(t, before, up.Geometries())

			m.Deselect()
		})
	}
}

func TestStaleRenderIsDropped(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	src := &pointStub{
		data:  square,
		gateX: 100,
		gate:  make(chan struct{}),
		perCall: map[float64]string{
			100: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{"area":1},"geometry":{"type":"Point","coordinates":[100,0]}},
				{"type":"Feature","properties":{"area":2},"geometry":{"type":"Point","coordinates":[101,0]}}]}`,
		},
	}
	up := extension.NewCHyF("Upstream", "http://chyf/up", src)
	require.NoError(t, m.AddExtensions(up))

	// Drive the extension directly: the slow click starts first, the fast
	// one finishes first and must win.
	up.Bind(h, mustLayer(t, h, "Upstream"), func() bool { return true })

	slow := make(chan error, 1)
	go func() { slow <- up.ActionMap(context.Background(), orb.Point{100, 0}) }()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, up.ActionMap(context.Background(), orb.Point{1, 1}))
	close(src.gate)
	require.NoError(t, <-slow)

	require.Len(t, up.Geometries(), 1)
	assert.Equal(t, geo.KindPolygon, up.Geometries()[0].Type())
}

func TestRenderNeedsActiveExtension(t *testing.T) {
	h := host.New()
	src := &catchmentStub{catchments: square}
	gsip := extension.NewGeoconnex("GSIP", "http://geoconnex/catchments", src, &crawlStub{})
	gsip.Bind(h, mustLayer(t, h, "GSIP"), func() bool { return false })

	require.NoError(t, gsip.ActionButton(context.Background()))
	assert.Empty(t, gsip.Geometries())

	_, _, err := gsip.Catchment(orb.Point{1, 1})
	assert.ErrorIs(t, err, fault.ErrPrecondition)
}

func TestUnboundExtension(t *testing.T) {
	up := extension.NewCHyF("Upstream", "http://chyf/up", &pointStub{data: square})

	err := up.SetAttributes([]map[string]any{{"a": 1}})
	assert.ErrorIs(t, err, fault.ErrPrecondition)

	err = up.ActionMap(context.Background(), orb.Point{1, 1})
	assert.ErrorIs(t, err, fault.ErrPrecondition)

	gsip := extension.NewGeoconnex("GSIP", "u", &catchmentStub{}, &crawlStub{})
	assert.ErrorIs(t, gsip.Drill(context.Background(), "x"), fault.ErrPrecondition)
	assert.ErrorIs(t, gsip.ShowData(context.Background(), "x"), fault.ErrPrecondition)
}

func TestRemoveHolesToggle(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	src := &pointStub{data: square}
	up := extension.NewCHyF("Upstream", "http://chyf/up", src)
	require.NoError(t, m.AddExtensions(up))

	for _, holes := range []bool{false, true} {
		m.SetRemoveHoles(holes)
		assert.Equal(t, holes, m.RemoveHoles())
		_, err := m.Select(context.Background(), "Upstream")
		require.NoError(t, err)
		_, err = m.Click(context.Background(), orb.Point{1, 1})
		require.NoError(t, err)
	}
	assert.Equal(t, []bool{false, true}, src.holes)
}

func TestRemoveHolesFollowsExtensions(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	up := extension.NewCHyF("Upstream", "http://chyf/up", &pointStub{data: square})
	down := extension.NewCHyF("Downstream", "http://chyf/down", &pointStub{data: square})
	gsip := extension.NewGeoconnex("GSIP", "u", &catchmentStub{}, &crawlStub{})
	down.SetRemoveHoles(true)
	require.NoError(t, m.AddExtensions(up, down, gsip))

	assert.False(t, m.RemoveHoles())

	enabled, supported := extension.RemovesHoles(down)
	assert.True(t, enabled)
	assert.True(t, supported)
	enabled, supported = extension.RemovesHoles(up)
	assert.False(t, enabled)
	assert.True(t, supported)
	_, supported = extension.RemovesHoles(gsip)
	assert.False(t, supported)

	up.SetRemoveHoles(true)
	assert.True(t, m.RemoveHoles())

	m.SetRemoveHoles(false)
	assert.False(t, up.RemoveHoles())
	assert.False(t, down.RemoveHoles())

	assert.False(t, extension.NewManager("empty", h).RemoveHoles())
}

func TestClear(t *testing.T) {
	h := host.New()
	m := extension.NewManager("CHyF", h)
	up := extension.NewCHyF("Upstream", "http://chyf/up", &pointStub{data: square})
	require.NoError(t, m.AddExtensions(up))

	_, err := m.Select(context.Background(), "Upstream")
	require.NoError(t, err)
	_, err = m.Click(context.Background(), orb.Point{1, 1})
	require.NoError(t, err)
	require.NotEmpty(t, up.Geometries())

	require.NoError(t, m.Clear("Upstream"))
	assert.Empty(t, up.Geometries())
	assert.ErrorIs(t, m.Clear("nope"), extension.ErrUnknownExtension)
}

func mustLayer(t *testing.T, h *host.Map, name string) extension.Layer {
	t.Helper()
	l, err := h.AddLayer(name)
	require.NoError(t, err)
	return l
}
