// Package wellknown serves the discovery endpoints under /.well-known.
package wellknown

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-json-experiment/json"

	"github.com/bihlink/shuttlecraft/activitypub"
	"github.com/bihlink/shuttlecraft/internal/httpx"
)

// Env is the environment passed to the package's HTTP handlers.
type Env struct {
	Identities *activitypub.Identities
}

// Webfinger serves the node's webfinger document. A resource query, when
// present, must name the node's identity.
func Webfinger(env *Env, w http.ResponseWriter, r *http.Request) error {
	identity, err := env.Identities.Get()
	if err != nil {
		return httpx.Error(http.StatusNotFound, err)
	}
	if resource := r.URL.Query().Get("resource"); resource != "" && resource != identity.Webfinger.Subject {
		return httpx.Error(http.StatusNotFound, fmt.Errorf("unknown resource: %q", resource))
	}
	w.Header().Set("Content-Type", "application/jrd+json")
	return json.MarshalFull(w, identity.Webfinger)
}

// HostMeta serves the host-meta XRD document pointing at the webfinger
// endpoint.
func HostMeta(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/xrd+xml")
	io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
		<XRD xmlns="http://docs.oasis-open.org/ns/xri/xrd-1.0">
		<Subject>`+r.Host+`</Subject>
		<Link rel="lrdd" template="https://`+r.Host+`/.well-known/webfinger?resource={uri}"/>
		</XRD>`)
}
