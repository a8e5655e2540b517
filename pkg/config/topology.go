package config

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/fspreiss/metrics-proxy/pkg/labelfilter"
	securitytls "github.com/fspreiss/metrics-proxy/pkg/security/tls"
)

// Transport is the wire protocol a listener speaks.
type Transport int

const (
	// TransportPlain is unencrypted HTTP.
	TransportPlain Transport = iota

	// TransportTLS is HTTP over TLS.
	TransportTLS
)

// String returns the URL scheme for the transport.
func (t Transport) String() string {
	if t == TransportTLS {
		return "https"
	}
	return "http"
}

// Backend is the validated target a route fetches metrics from.
type Backend struct {
	// URL is the backend metrics endpoint.
	URL string

	// Timeout bounds the fetch.
	Timeout time.Duration
}

// Route is one validated (listener, path) binding: a backend, a compiled
// filter chain with its route-scoped state, and the cache TTL.
type Route struct {
	// Path is the HTTP handler path on the listener.
	Path string

	// Backend is the scrape target.
	Backend Backend

	// Filters is the compiled, ordered filter chain.
	Filters []labelfilter.Rule

	// FilterState is the route-scoped ReduceTimeResolution series table.
	FilterState *labelfilter.State

	// CacheFor is the response cache TTL; zero disables caching.
	CacheFor time.Duration
}

// Listener is one physical listening endpoint serving one or more routes.
// Listeners are immutable once built.
type Listener struct {
	// Addr is the canonical "host:port" socket address.
	Addr string

	// Transport selects plain HTTP or TLS.
	Transport Transport

	// Certificate is the resolved TLS material; nil for plain listeners.
	// It is loaded once at build time and never re-read at serve time.
	Certificate *tls.Certificate

	// CertificateFile and KeyFile record where the material came from, for
	// optional hot reloading.
	CertificateFile string
	KeyFile         string

	// WatchCertificates enables hot reloading of the TLS material.
	WatchCertificates bool

	// HeaderReadTimeout is the client header read timeout.
	HeaderReadTimeout time.Duration

	// RequestResponseTimeout bounds each request end to end.
	RequestResponseTimeout time.Duration

	// Routes maps handler paths to routes.
	Routes map[string]*Route
}

// Topology is the fully validated, immutable runtime topology: every
// physical listener with the routes folded onto it. It is built once from
// the configuration and shared read-only by all request handlers.
type Topology struct {
	// Listeners is sorted by address for deterministic startup order.
	Listeners []*Listener
}

// resolvedEntry is one proxies-list entry after per-entry validation,
// before conflict checking and folding.
type resolvedEntry struct {
	addr      string
	path      string
	transport Transport
	listen    ListenOnConfig
	cert      *tls.Certificate
	route     *Route
}

// Build validates the configuration and folds it into a Topology. It returns
// a ValidationError collecting every per-entry problem, or a ConflictError
// for the first pair of entries that cannot coexist. The configuration is
// never partially applied: any error leaves no topology behind.
func Build(cfg *Config) (*Topology, error) {
	var errs []FieldError
	resolved := make([]resolvedEntry, 0, len(cfg.Proxies))

	for i := range cfg.Proxies {
		entry, entryErrs := resolveEntry(i, &cfg.Proxies[i])
		if len(entryErrs) > 0 {
			errs = append(errs, entryErrs...)
			continue
		}
		resolved = append(resolved, entry)
	}

	if len(errs) > 0 {
		return nil, ValidationError{Errors: errs}
	}

	if err := detectConflicts(resolved); err != nil {
		return nil, err
	}

	return fold(resolved), nil
}

// Validate checks the configuration without keeping the resulting topology.
func Validate(cfg *Config) error {
	_, err := Build(cfg)
	return err
}

// resolveEntry validates one proxies-list entry and resolves its listen
// address, TLS material, backend and filter chain.
func resolveEntry(index int, p *ProxyEntry) (resolvedEntry, []FieldError) {
	prefix := fmt.Sprintf("proxies[%d]", index)
	var errs []FieldError

	addr, path, transport, cert, err := resolveListen(&p.ListenOn)
	if err != nil {
		errs = append(errs, FieldError{Field: prefix + ".listen_on", Err: err})
	}

	backend, err := resolveConnect(&p.ConnectTo)
	if err != nil {
		errs = append(errs, FieldError{Field: prefix + ".connect_to", Err: err})
	}

	rules, filterErrs := compileFilters(prefix, p.LabelFilters)
	errs = append(errs, filterErrs...)

	if p.CacheFor < 0 {
		errs = append(errs, FieldError{
			Field: prefix + ".cache_for",
			Err:   fmt.Errorf("cache duration must not be negative"),
		})
	}

	if len(errs) > 0 {
		return resolvedEntry{}, errs
	}

	return resolvedEntry{
		addr:      addr,
		path:      path,
		transport: transport,
		listen:    p.ListenOn,
		cert:      cert,
		route: &Route{
			Path:        path,
			Backend:     backend,
			Filters:     rules,
			FilterState: labelfilter.NewState(),
			CacheFor:    p.CacheFor,
		},
	}, nil
}

// resolveListen validates a listen URL and loads TLS material when the
// scheme requires it.
func resolveListen(l *ListenOnConfig) (addr, path string, transport Transport, cert *tls.Certificate, err error) {
	u, parseErr := url.Parse(l.URL)
	if parseErr != nil {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: fmt.Sprintf("cannot parse address: %v", parseErr)}
	}

	if u.User != nil {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: "authentication is not supported"}
	}
	if u.RawQuery != "" {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: "query strings may not be specified"}
	}
	if u.Fragment != "" {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: "fragments may not be specified"}
	}

	portStr := u.Port()
	if portStr == "" {
		return "", "", 0, nil, &PortMissingError{URL: l.URL}
	}
	port, portErr := strconv.Atoi(portStr)
	if portErr != nil {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: fmt.Sprintf("invalid port: %v", portErr)}
	}
	if port < 1024 {
		return "", "", 0, nil, &PortOutOfRangeError{URL: l.URL, Port: port}
	}

	host := u.Hostname()
	if host == "" {
		host = "0.0.0.0"
	}
	tcpAddr, resolveErr := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, portStr))
	if resolveErr != nil {
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: fmt.Sprintf("cannot resolve address: %v", resolveErr)}
	}
	addr = tcpAddr.String()

	path = u.Path
	if path == "" {
		path = "/"
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	switch scheme {
	case "http":
		if l.CertificateFile != "" || l.KeyFile != "" {
			return "", "", 0, nil, &SSLOptionsNotAllowedError{URL: l.URL}
		}
		return addr, path, TransportPlain, nil, nil

	case "https":
		if l.CertificateFile == "" {
			return "", "", 0, nil, &CertificateFileRequiredError{URL: l.URL}
		}
		if l.KeyFile == "" {
			return "", "", 0, nil, &KeyFileRequiredError{URL: l.URL}
		}
		cert, materialErr := securitytls.LoadMaterial(l.CertificateFile, l.KeyFile)
		if materialErr != nil {
			return "", "", 0, nil, materialErr
		}
		return addr, path, TransportTLS, cert, nil

	default:
		return "", "", 0, nil, &ListenURLError{URL: l.URL, Reason: fmt.Sprintf("the %s protocol is not supported by this program", scheme)}
	}
}

// resolveConnect validates a connect URL.
func resolveConnect(c *ConnectToConfig) (Backend, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return Backend{}, &ConnectURLError{URL: c.URL, Reason: fmt.Sprintf("cannot parse address: %v", err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Backend{}, &ConnectURLError{URL: c.URL, Reason: fmt.Sprintf("the %s protocol is not supported by this program", u.Scheme)}
	}
	if u.User != nil {
		return Backend{}, &ConnectURLError{URL: c.URL, Reason: "authentication is not supported"}
	}
	if u.Fragment != "" {
		return Backend{}, &ConnectURLError{URL: c.URL, Reason: "fragments may not be specified"}
	}
	if u.Host == "" {
		return Backend{}, &ConnectURLError{URL: c.URL, Reason: "host is missing"}
	}

	return Backend{URL: c.URL, Timeout: c.Timeout}, nil
}

// compileFilters compiles the declared filter chain into labelfilter rules.
func compileFilters(prefix string, filters []LabelFilterConfig) ([]labelfilter.Rule, []FieldError) {
	var errs []FieldError
	rules := make([]labelfilter.Rule, 0, len(filters))

	for j, f := range filters {
		field := fmt.Sprintf("%s.label_filters[%d]", prefix, j)

		if len(f.Actions) == 0 {
			errs = append(errs, FieldError{
				Field: field + ".actions",
				Err:   fmt.Errorf("at least one action is required"),
			})
			continue
		}

		actions := make([]labelfilter.Action, len(f.Actions))
		for k, a := range f.Actions {
			switch a.Kind {
			case ActionKeep:
				actions[k] = labelfilter.Action{Kind: labelfilter.Keep}
			case ActionDrop:
				actions[k] = labelfilter.Action{Kind: labelfilter.Drop}
			case ActionReduceTimeResolution:
				actions[k] = labelfilter.Action{
					Kind:       labelfilter.ReduceTimeResolution,
					Resolution: a.Resolution,
				}
			}
		}

		rule, err := labelfilter.NewRule(f.SourceLabels, f.Separator, f.Regex, actions)
		if err != nil {
			errs = append(errs, FieldError{Field: field + ".regex", Err: err})
			continue
		}
		rules = append(rules, rule)
	}

	return rules, errs
}

// detectConflicts walks the resolved entries in declaration order and
// reports the first pair that cannot coexist: two routes with the same
// socket address and path, or two routes sharing a socket address with
// differing transports. Positions in the error are 1-based.
func detectConflicts(entries []resolvedEntry) error {
	type addrClaim struct {
		index     int
		transport Transport
	}

	byAddrPath := make(map[string]int)
	byAddr := make(map[string]addrClaim)

	for i, e := range entries {
		addrPath := e.addr + e.path
		if prior, ok := byAddrPath[addrPath]; ok {
			return &ConflictError{
				First:  prior + 1,
				Second: i + 1,
				Reason: "contain the same host, port and handler path; two proxies cannot listen on the same HTTP handler simultaneously",
			}
		}
		byAddrPath[addrPath] = i

		if prior, ok := byAddr[e.addr]; ok {
			if prior.transport != e.transport {
				return &ConflictError{
					First:  prior.index + 1,
					Second: i + 1,
					Reason: "use conflicting protocols on the same host and port; the same listening address cannot serve both HTTP and HTTPS",
				}
			}
		} else {
			byAddr[e.addr] = addrClaim{index: i, transport: e.transport}
		}
	}

	return nil
}

// fold groups the resolved entries by socket address into listeners. The
// first entry for an address fixes the listener's transport, TLS material
// and timeouts; later entries on the same address only contribute handler
// paths. The result is immutable; handler-set changes require a rebuild.
func fold(entries []resolvedEntry) *Topology {
	byAddr := make(map[string]*Listener)
	order := make([]string, 0, len(entries))

	for _, e := range entries {
		listener, ok := byAddr[e.addr]
		if !ok {
			listener = &Listener{
				Addr:                   e.addr,
				Transport:              e.transport,
				Certificate:            e.cert,
				CertificateFile:        e.listen.CertificateFile,
				KeyFile:                e.listen.KeyFile,
				WatchCertificates:      e.listen.WatchCertificates,
				HeaderReadTimeout:      e.listen.HeaderReadTimeout,
				RequestResponseTimeout: e.listen.RequestResponseTimeout,
				Routes:                 make(map[string]*Route),
			}
			byAddr[e.addr] = listener
			order = append(order, e.addr)
		}
		listener.Routes[e.route.Path] = e.route
	}

	sort.Strings(order)
	listeners := make([]*Listener, len(order))
	for i, addr := range order {
		listeners[i] = byAddr[addr]
	}

	return &Topology{Listeners: listeners}
}
