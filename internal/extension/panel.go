package extension

import (
	"bytes"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/woozymasta/geolink/internal/linkeddata"
	"github.com/woozymasta/geolink/internal/service"
)

// Panel ids used by the Geoconnex flow.
const (
	InfoPanel       = "infoPanel"
	LinkedDataPanel = "linkedDataPanel"
)

// Button actions carried by panel content. The page posts data-uri to the
// matching endpoint.
const (
	ActionLinked = "linked"
	ActionGeo    = "geo"
)

const infoTemplate = `
<div class="info">
  {{.Name}}
  <button type="button" class="icon-button" data-action="linked" data-uri="{{.URI}}" title="Linked data">
    <svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="100%" height="100%">
      <path d="M3.9 12c0-1.71 1.39-3.1 3.1-3.1h4V7H7c-2.76 0-5 2.24-5 5s2.24 5 5 5h4v-1.9H7c-1.71 0-3.1-1.39-3.1-3.1zM8 13h8v-2H8v2zm9-6h-4v1.9h4c1.71 0 3.1 1.39 3.1 3.1s-1.39 3.1-3.1 3.1h-4V17h4c2.76 0 5-2.24 5-5s-2.24-5-5-5z"/>
    </svg>
  </button>
</div>
`

const linkedTemplate = `
<div class="linked-data">
  {{with .Root}}<h3>{{.Name}}</h3>{{end}}
  <hr>
  <ul>
  {{range .Items}}
    <li>
      <strong>{{.Type}}: </strong>{{.Name}}
      <button type="button" class="icon-button" data-action="linked" data-uri="{{.URI}}" title="Linked data">
        <svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="100%" height="100%">
          <path d="M3.9 12c0-1.71 1.39-3.1 3.1-3.1h4V7H7c-2.76 0-5 2.24-5 5s2.24 5 5 5h4v-1.9H7c-1.71 0-3.1-1.39-3.1-3.1zM8 13h8v-2H8v2zm9-6h-4v1.9h4c1.71 0 3.1 1.39 3.1 3.1s-1.39 3.1-3.1 3.1h-4V17h4c2.76 0 5-2.24 5-5s-2.24-5-5-5z"/>
        </svg>
      </button>
      <a class="icon-button" target="_blank" href="{{.URI}}" title="HTML">html</a>
      {{range .DataURIs}}
      <button type="button" class="icon-button" data-action="geo" data-uri="{{.}}" title="Show on map">
        <svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="100%" height="100%">
          <path d="M12 2C8.13 2 5 5.13 5 9c0 5.25 7 13 7 13s7-7.75 7-13c0-3.87-3.13-7-7-7zm0 9.5c-1.38 0-2.5-1.12-2.5-2.5s1.12-2.5 2.5-2.5 2.5 1.12 2.5 2.5-1.12 2.5-2.5 2.5z"/>
        </svg>
      </button>
      {{end}}
    </li>
  {{end}}
  </ul>
</div>
`

var (
	infoTmpl   = template.Must(template.New("info").Parse(infoTemplate))
	linkedTmpl = template.Must(template.New("linked").Parse(linkedTemplate))
	minifier   = newMinifier()
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// InfoHTML renders the info panel of a catchment.
func InfoHTML(p service.CatchmentProperties) (string, error) {
	return render(infoTmpl, p)
}

// LinkedDataHTML renders a crawl result. Entry 0 is the crawled node itself
// and becomes the header; the others are listed with their links.
func LinkedDataHTML(objects []linkeddata.Object) (string, error) {
	data := struct {
		Root  *linkeddata.Object
		Items []linkeddata.Object
	}{}
	if len(objects) > 0 {
		data.Root = &objects[0]
		data.Items = objects[1:]
	}
	return render(linkedTmpl, data)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return minifier.String("text/html", buf.String())
}
